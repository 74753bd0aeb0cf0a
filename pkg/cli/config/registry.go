package config

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/types"
	"github.com/m-mizutani/carrot/pkg/infra/httpclient"
	"github.com/m-mizutani/carrot/pkg/infra/packagist"
)

// Registry holds settings for outbound fetches of manifests and package metadata
type Registry struct {
	URL            string
	UserAgent      string
	CacheTTL       time.Duration
	ConnectTimeout time.Duration
}

// Flags returns CLI flags for registry configuration
func (c *Registry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "registry-url",
			Usage:       "Composer v2 metadata repository",
			Value:       packagist.DefaultBaseURL,
			Destination: &c.URL,
			Sources:     cli.EnvVars("CARROT_REGISTRY_URL"),
		},
		&cli.StringFlag{
			Name:        "user-agent",
			Usage:       "User-Agent sent with manifest and registry requests",
			Value:       types.DefaultUserAgent,
			Destination: &c.UserAgent,
			Sources:     cli.EnvVars("CARROT_USER_AGENT"),
		},
		&cli.DurationFlag{
			Name:        "registry-cache-ttl",
			Usage:       "Share registry lookups across webhooks for this long (0 disables)",
			Value:       0,
			Destination: &c.CacheTTL,
			Sources:     cli.EnvVars("CARROT_REGISTRY_CACHE_TTL"),
		},
		&cli.DurationFlag{
			Name:        "connect-timeout",
			Usage:       "Connect timeout of outbound HTTP requests",
			Value:       httpclient.DefaultConnectTimeout,
			Destination: &c.ConnectTimeout,
			Sources:     cli.EnvVars("CARROT_CONNECT_TIMEOUT"),
		},
	}
}

// NewClient builds the registry client, wrapped in a shared cache when CacheTTL is positive
func (c *Registry) NewClient() interfaces.RegistryClient {
	httpClient := httpclient.New(httpclient.WithConnectTimeout(c.ConnectTimeout))

	var registry interfaces.RegistryClient = packagist.NewClient(httpClient,
		packagist.WithBaseURL(c.URL),
		packagist.WithUserAgent(c.UserAgent),
	)
	if c.CacheTTL > 0 {
		registry = packagist.NewCachedClient(registry, c.CacheTTL)
	}
	return registry
}
