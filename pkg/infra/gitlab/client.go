package gitlab

import (
	"context"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
	"github.com/m-mizutani/carrot/pkg/domain/types"
)

// maxManifestSize limits how much of a manifest response is read
const maxManifestSize = 1 << 20

type client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures the manifest client
type Option func(*client)

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *client) {
		c.userAgent = ua
	}
}

// NewClient creates a client that downloads raw repository files without authentication
func NewClient(httpClient *http.Client, opts ...Option) interfaces.ManifestFetcher {
	c := &client{
		httpClient: httpClient,
		userAgent:  types.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchManifest downloads the manifest at url. Any transport failure or non-2xx status is
// tagged model.ErrTagManifestFetch.
func (c *client) FetchManifest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create manifest request",
			goerr.V("url", url), goerr.T(model.ErrTagManifestFetch))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch manifest",
			goerr.V("url", url), goerr.T(model.ErrTagManifestFetch))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.New("unexpected status code for manifest",
			goerr.V("url", url), goerr.V("status", resp.StatusCode), goerr.T(model.ErrTagManifestFetch))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read manifest body",
			goerr.V("url", url), goerr.T(model.ErrTagManifestFetch))
	}

	return data, nil
}
