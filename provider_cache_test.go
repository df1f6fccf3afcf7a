package pipgrub

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider wraps an InMemoryProvider and counts upstream fetches.
type countingProvider struct {
	inner *InMemoryProvider

	mu    sync.Mutex
	calls map[string]int
}

func newCountingProvider() *countingProvider {
	return &countingProvider{
		inner: NewInMemoryProvider(),
		calls: make(map[string]int),
	}
}

func (p *countingProvider) FetchPackageInfo(ctx context.Context, name string) (*PackageInfo, error) {
	p.mu.Lock()
	p.calls[name]++
	p.mu.Unlock()
	return p.inner.FetchPackageInfo(ctx, name)
}

func (p *countingProvider) callCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

func TestCachedProviderMemoizes(t *testing.T) {
	upstream := newCountingProvider()
	require.NoError(t, upstream.inner.AddPackage("requests", "2.28.0", nil))

	cached := NewCachedProvider(upstream)

	for i := 0; i < 3; i++ {
		info, err := cached.FetchPackageInfo(context.Background(), "requests")
		require.NoError(t, err)
		assert.Equal(t, "requests", info.Name)
	}

	assert.Equal(t, 1, upstream.callCount("requests"))

	stats := cached.Stats()
	assert.Equal(t, 3, stats.Fetches)
	assert.Equal(t, 2, stats.MemoryHits)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)
}

func TestCachedProviderDoesNotCacheMisses(t *testing.T) {
	upstream := newCountingProvider()
	cached := NewCachedProvider(upstream)

	for i := 0; i < 2; i++ {
		_, err := cached.FetchPackageInfo(context.Background(), "ghost")
		var notFound *PackageNotFoundError
		require.ErrorAs(t, err, &notFound)
	}

	// Every miss goes back upstream, so a later publish is picked up.
	assert.Equal(t, 2, upstream.callCount("ghost"))
}

func TestCachedProviderInvalidate(t *testing.T) {
	upstream := newCountingProvider()
	require.NoError(t, upstream.inner.AddPackage("requests", "2.28.0", nil))

	cached := NewCachedProvider(upstream)

	_, err := cached.FetchPackageInfo(context.Background(), "requests")
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate("requests"))

	_, err = cached.FetchPackageInfo(context.Background(), "requests")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.callCount("requests"))
}

func TestCachedProviderStoreTier(t *testing.T) {
	store, err := NewPackageStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	upstream := newCountingProvider()
	require.NoError(t, upstream.inner.AddPackage("flask", "2.3.0", []string{"werkzeug>=2.3"}))

	cached := NewCachedProvider(upstream, WithPackageStore(store))
	_, err = cached.FetchPackageInfo(context.Background(), "flask")
	require.NoError(t, err)

	// A fresh provider over the same store hits the persistent tier
	// instead of going upstream.
	rebuilt := NewCachedProvider(newCountingProvider(), WithPackageStore(store))
	info, err := rebuilt.FetchPackageInfo(context.Background(), "flask")
	require.NoError(t, err)
	assert.Equal(t, "flask", info.Name)
	assert.Equal(t, []string{"werkzeug>=2.3"}, info.RequiresDist)
	assert.Equal(t, 1, rebuilt.Stats().StoreHits)
}

func TestCachedProviderEvictsBeyondCapacity(t *testing.T) {
	upstream := newCountingProvider()
	require.NoError(t, upstream.inner.AddPackage("one", "1.0", nil))
	require.NoError(t, upstream.inner.AddPackage("two", "1.0", nil))

	cached := NewCachedProvider(upstream, WithCacheEntries(1))

	_, err := cached.FetchPackageInfo(context.Background(), "one")
	require.NoError(t, err)
	_, err = cached.FetchPackageInfo(context.Background(), "two")
	require.NoError(t, err)
	_, err = cached.FetchPackageInfo(context.Background(), "one")
	require.NoError(t, err)

	// "one" was evicted by "two" and had to be fetched again.
	assert.Equal(t, 2, upstream.callCount("one"))
}

func TestSolverWithCachedProvider(t *testing.T) {
	upstream := newCountingProvider()
	require.NoError(t, upstream.inner.AddPackage("A", "1.0", []string{"B>=1.0"}))
	require.NoError(t, upstream.inner.AddPackage("B", "1.0", nil))

	cached := NewCachedProvider(upstream)
	solver := NewSolver(cached)

	req, err := ParseRequirement("A")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		solution, err := solver.Solve(context.Background(), "myapp", MustParseVersion("1.0"),
			[]Requirement{req})
		require.NoError(t, err)
		assert.Len(t, solution, 2)
	}

	assert.Equal(t, 1, upstream.callCount("A"))
	assert.Equal(t, 1, upstream.callCount("B"))
}
