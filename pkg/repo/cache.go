package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/thepwagner/madison/pkg/cache"
)

// Cache wraps a Repo with a cache.
// Only content-addressed responses are cached: InRelease and path-addressed
// indexes always reach the wrapped Repo so refreshes observe new releases.
type Cache struct {
	src     Repo
	storage cache.Storage
}

var _ Repo = (*Cache)(nil)

const byHash = cache.Namespace("by-hash")

func NewCache(src Repo, storage cache.Storage) *Cache {
	storage.NamespaceTTL(byHash, 24*time.Hour)
	return &Cache{
		src:     src,
		storage: storage,
	}
}

func (c Cache) InRelease(ctx context.Context, dist Distribution) ([]byte, error) {
	return c.src.InRelease(ctx, dist)
}

func (c Cache) Index(ctx context.Context, dist Distribution, component Component, arch Architecture, compression Compression) ([]byte, error) {
	return c.src.Index(ctx, dist, component, arch, compression)
}

func (c Cache) ByHash(ctx context.Context, dist Distribution, component Component, arch Architecture, digest string) ([]byte, error) {
	key := byHash.Key(dist.String(), component.String(), arch.String(), digest)
	v, ok := c.storage.Get(ctx, key)
	slog.Debug("cached ByHash",
		slog.Any("dist", dist),
		slog.Any("component", component),
		slog.Any("arch", arch),
		slog.String("digest", digest),
		slog.Bool("cache_hit", ok),
	)
	if ok {
		return v, nil
	}

	v, err := c.src.ByHash(ctx, dist, component, arch, digest)
	if err != nil {
		return nil, err
	}
	c.storage.Add(ctx, key, v)
	return v, nil
}
