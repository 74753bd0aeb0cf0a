package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultConnectTimeout bounds connection setup of every outbound call
const DefaultConnectTimeout = 30 * time.Second

type config struct {
	connectTimeout time.Duration
	skipVerifyTLS  bool
}

// Option configures the HTTP client
type Option func(*config)

// WithConnectTimeout overrides the connect timeout
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) {
		c.connectTimeout = d
	}
}

// WithVerifyTLS toggles certificate verification. Verification is on unless disabled here.
func WithVerifyTLS(verify bool) Option {
	return func(c *config) {
		c.skipVerifyTLS = !verify
	}
}

// New creates an HTTP client for outbound calls, instrumented with OpenTelemetry
func New(opts ...Option) *http.Client {
	cfg := &config{
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.connectTimeout
	if cfg.skipVerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in for local testing
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
	}
}
