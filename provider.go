// Copyright 2025 Contriboss
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipgrub

import (
	"context"
	"errors"
	"sync"
)

// ReleaseInfo describes one distribution file of a package release, in
// the shape registry JSON metadata uses.
type ReleaseInfo struct {
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	UploadTime string `json:"upload_time"`

	// RequiresDist holds the release's dependency strings. When empty,
	// the package-level list applies to the latest release; other
	// releases are treated as dependency-free.
	RequiresDist []string `json:"requires_dist,omitempty"`
}

// PackageInfo is the metadata the solver needs about one package: the
// published versions (keyed by their original string form) and the
// declared dependencies. RequiresDist is the latest release's dependency
// list, the way registry JSON metadata reports it.
type PackageInfo struct {
	Name          string                   `json:"name"`
	LatestVersion *Version                 `json:"latest_version"`
	Versions      map[string][]ReleaseInfo `json:"versions"`
	RequiresDist  []string                 `json:"requires_dist"`
}

// MetadataProvider supplies package metadata to the solver. A provider
// backed by a registry performs network I/O, so FetchPackageInfo takes a
// context; implementations must be safe for concurrent use if shared
// between solvers.
//
// A missing package is reported as *PackageNotFoundError.
type MetadataProvider interface {
	FetchPackageInfo(ctx context.Context, name string) (*PackageInfo, error)
}

// InMemoryProvider is a MetadataProvider holding everything in memory.
// It is the simplest implementation and is useful for:
//   - Testing resolution scenarios
//   - Building example dependency graphs
//   - Prototyping before implementing a real registry client
//
// For providers that perform I/O, wrap them with CachedProvider.
//
// Example:
//
//	provider := NewInMemoryProvider()
//	provider.AddPackage("requests", "2.28.0", []string{"urllib3>=1.21.1"})
//	provider.AddPackage("urllib3", "1.26.12", nil)
type InMemoryProvider struct {
	mu       sync.Mutex
	packages map[string]*PackageInfo
}

// NewInMemoryProvider creates an empty in-memory provider.
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{packages: make(map[string]*PackageInfo)}
}

// AddPackage registers one version of a package with its dependency
// strings. Repeated calls accumulate versions; the highest version seen
// becomes LatestVersion and contributes the package-level requires list.
func (p *InMemoryProvider) AddPackage(name, version string, requiresDist []string) error {
	parsed, err := ParseVersion(version)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	info, ok := p.packages[name]
	if !ok {
		info = &PackageInfo{
			Name:     name,
			Versions: make(map[string][]ReleaseInfo),
		}
		p.packages[name] = info
	}

	info.Versions[version] = []ReleaseInfo{{
		Filename:     name + "-" + version + ".tar.gz",
		RequiresDist: requiresDist,
	}}

	if info.LatestVersion == nil || parsed.Compare(info.LatestVersion) > 0 {
		info.LatestVersion = parsed
		info.RequiresDist = requiresDist
	}
	return nil
}

// FetchPackageInfo implements MetadataProvider.
func (p *InMemoryProvider) FetchPackageInfo(_ context.Context, name string) (*PackageInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, ok := p.packages[name]
	if !ok {
		return nil, &PackageNotFoundError{Package: MakeName(name)}
	}
	return info, nil
}

// CombinedProvider aggregates multiple providers into one. Lookups try
// each provider in order and return the first hit; a package is reported
// missing only when every provider misses it.
//
// This is useful for:
//   - Combining a local overlay with a remote registry
//   - Implementing provider fallbacks
//   - Testing with mixed provider types
type CombinedProvider []MetadataProvider

// FetchPackageInfo implements MetadataProvider.
func (p CombinedProvider) FetchPackageInfo(ctx context.Context, name string) (*PackageInfo, error) {
	for _, provider := range p {
		info, err := provider.FetchPackageInfo(ctx, name)
		if err != nil {
			var notFound *PackageNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		return info, nil
	}
	return nil, &PackageNotFoundError{Package: MakeName(name)}
}

var (
	_ MetadataProvider = (*InMemoryProvider)(nil)
	_ MetadataProvider = CombinedProvider(nil)
)
