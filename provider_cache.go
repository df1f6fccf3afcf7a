package pipgrub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/golang/groupcache/lru"
)

// defaultCacheEntries bounds the in-memory tier. Registry metadata runs a
// few KB per package, so the default stays modest.
const defaultCacheEntries = 512

// CachedProvider wraps a MetadataProvider with a two-tier cache: an LRU
// in memory, and optionally a persistent PackageStore underneath it.
//
// WHEN TO USE:
// CachedProvider is most beneficial for:
//   - Providers with network I/O (package registries, APIs)
//   - Running multiple resolutions without recreating the provider
//   - Build systems that resolve dependencies repeatedly across runs
//     (add a PackageStore so the cache survives the process)
//
// WHEN NOT TO USE:
//   - InMemoryProvider (already fast, nothing to save)
//   - Single-shot resolutions over local metadata
//
// The cache assumes package metadata is immutable during solving. Use
// Invalidate when a package is known to have changed upstream.
type CachedProvider struct {
	inner  MetadataProvider
	logger *slog.Logger

	mu     sync.Mutex
	memory *lru.Cache
	store  *PackageStore

	fetches    int
	memoryHits int
	storeHits  int
}

// CachedProviderOption configures a CachedProvider.
type CachedProviderOption func(*CachedProvider)

// WithCacheEntries sets the maximum number of packages held in memory.
func WithCacheEntries(n int) CachedProviderOption {
	return func(c *CachedProvider) {
		if n > 0 {
			c.memory = lru.New(n)
		}
	}
}

// WithPackageStore adds a persistent tier below the in-memory cache.
// Entries found in the store are promoted into memory on access.
func WithPackageStore(store *PackageStore) CachedProviderOption {
	return func(c *CachedProvider) {
		c.store = store
	}
}

// WithCacheLogger enables debug logging of cache activity.
func WithCacheLogger(logger *slog.Logger) CachedProviderOption {
	return func(c *CachedProvider) {
		c.logger = logger
	}
}

// NewCachedProvider creates a caching wrapper around the given provider.
func NewCachedProvider(inner MetadataProvider, opts ...CachedProviderOption) *CachedProvider {
	c := &CachedProvider{
		inner:  inner,
		memory: lru.New(defaultCacheEntries),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedProvider) debug(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, args...)
}

// FetchPackageInfo implements MetadataProvider. Lookups check the memory
// tier, then the store, then the wrapped provider. Only successful
// fetches are cached; a missing package is re-asked every time so a
// package published later is picked up.
func (c *CachedProvider) FetchPackageInfo(ctx context.Context, name string) (*PackageInfo, error) {
	c.mu.Lock()
	c.fetches++

	if cached, ok := c.memory.Get(name); ok {
		c.memoryHits++
		c.mu.Unlock()
		return cached.(*PackageInfo), nil
	}

	if c.store != nil {
		info, ok, err := c.store.Get(name)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		if ok {
			c.storeHits++
			c.memory.Add(name, info)
			c.mu.Unlock()
			c.debug("package metadata from store", "package", name)
			return info, nil
		}
	}
	c.mu.Unlock()

	// The upstream fetch runs unlocked so one slow registry call does
	// not serialize every other lookup.
	info, err := c.inner.FetchPackageInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.memory.Add(name, info)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Put(name, info); err != nil {
			c.debug("failed to persist package metadata", "package", name, "error", err)
		}
	}

	c.debug("package metadata fetched", "package", name)
	return info, nil
}

// Invalidate drops a package from both cache tiers. The next fetch goes
// back to the wrapped provider.
func (c *CachedProvider) Invalidate(name string) error {
	c.mu.Lock()
	c.memory.Remove(name)
	c.mu.Unlock()

	if c.store != nil {
		return c.store.Delete(name)
	}
	return nil
}

// CacheStats reports cache effectiveness over the provider's lifetime.
type CacheStats struct {
	Fetches    int
	MemoryHits int
	StoreHits  int

	HitRate float64
}

// Stats returns a snapshot of cache statistics.
func (c *CachedProvider) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Fetches:    c.fetches,
		MemoryHits: c.memoryHits,
		StoreHits:  c.storeHits,
	}
	if stats.Fetches > 0 {
		stats.HitRate = float64(stats.MemoryHits+stats.StoreHits) / float64(stats.Fetches)
	}
	return stats
}

var _ MetadataProvider = (*CachedProvider)(nil)
