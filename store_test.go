package pipgrub

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PackageStore {
	t.Helper()
	store, err := NewPackageStore(filepath.Join(t.TempDir(), "packages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPackageStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	info := &PackageInfo{
		Name:          "requests",
		LatestVersion: MustParseVersion("2.28.0"),
		Versions: map[string][]ReleaseInfo{
			"2.28.0": {{
				Filename:     "requests-2.28.0.tar.gz",
				URL:          "https://example.invalid/requests-2.28.0.tar.gz",
				Size:         110000,
				RequiresDist: []string{"urllib3>=1.21.1", "idna>=2.5"},
			}},
			"2.25.0": {{Filename: "requests-2.25.0.tar.gz"}},
		},
		RequiresDist: []string{"urllib3>=1.21.1", "idna>=2.5"},
	}
	require.NoError(t, store.Put("requests", info))

	loaded, ok, err := store.Get("requests")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "requests", loaded.Name)
	assert.True(t, loaded.LatestVersion.Equal(info.LatestVersion))
	assert.Len(t, loaded.Versions, 2)
	assert.Equal(t, info.RequiresDist, loaded.RequiresDist)
	assert.Equal(t, info.Versions["2.28.0"][0].RequiresDist, loaded.Versions["2.28.0"][0].RequiresDist)
}

func TestPackageStoreMissing(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPackageStoreUpsert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("pkg", &PackageInfo{Name: "pkg", LatestVersion: MustParseVersion("1.0")}))
	require.NoError(t, store.Put("pkg", &PackageInfo{Name: "pkg", LatestVersion: MustParseVersion("2.0")}))

	loaded, ok, err := store.Get("pkg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loaded.LatestVersion.Equal(MustParseVersion("2.0")))
}

func TestPackageStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("pkg", &PackageInfo{Name: "pkg"}))
	require.NoError(t, store.Delete("pkg"))

	_, ok, err := store.Get("pkg")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is fine.
	require.NoError(t, store.Delete("pkg"))
}

func TestPackageStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.db")

	store, err := NewPackageStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("pkg", &PackageInfo{Name: "pkg", LatestVersion: MustParseVersion("1.0")}))
	require.NoError(t, store.Close())

	reopened, err := NewPackageStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, ok, err := reopened.Get("pkg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pkg", loaded.Name)
}
