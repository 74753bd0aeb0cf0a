package packagist

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// CachedClient shares registry lookups across webhook invocations. Concurrent lookups of the
// same package are collapsed into one request. Failures are not cached.
type CachedClient struct {
	inner interfaces.RegistryClient
	cache *gocache.Cache
	group singleflight.Group
}

// NewCachedClient wraps inner with a TTL cache
func NewCachedClient(inner interfaces.RegistryClient, ttl time.Duration) *CachedClient {
	return &CachedClient{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// LatestVersion returns a cached version record or fetches it from the inner client
func (c *CachedClient) LatestVersion(ctx context.Context, pkg string) (*model.PackageVersion, error) {
	if v, found := c.cache.Get(pkg); found {
		if pv, ok := v.(*model.PackageVersion); ok {
			return pv, nil
		}
	}

	v, err, _ := c.group.Do(pkg, func() (any, error) {
		if v, found := c.cache.Get(pkg); found {
			return v, nil
		}
		// shared by every joined caller, so no single caller may cancel it
		pv, err := c.inner.LatestVersion(context.WithoutCancel(ctx), pkg)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(pkg, pv)
		return pv, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.PackageVersion), nil
}
