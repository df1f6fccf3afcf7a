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

// Package pipgrub resolves PEP 440/508-style package requirements with a
// simplified PubGrub solver.
//
// Given a set of root requirements and a MetadataProvider that supplies
// package versions and declared dependencies, the solver computes a single
// consistent package-to-version assignment, or proves that none exists and
// explains why via the causal chain of incompatibilities.
//
// The package deliberately has no opinion on how metadata is obtained or
// how resolved packages are installed; both sit behind interfaces.
package pipgrub

import (
	"slices"
	"strings"
	"unique"
)

// Name represents a package name using value interning for memory efficiency.
// Multiple instances of the same package name share the same underlying memory.
type Name = unique.Handle[string]

// MakeName creates an interned Name from a string.
// Equal strings will return the same Name value, enabling fast comparisons.
func MakeName(s string) Name {
	return unique.Make(s)
}

// EmptyName returns an empty name (interned empty string).
func EmptyName() Name {
	return unique.Make("")
}

// Solution maps each resolved package to its selected version.
// The root package itself is not part of the solution.
type Solution map[Name]*Version

// Version returns the resolved version for a package, if present.
func (s Solution) Version(name Name) (*Version, bool) {
	v, ok := s[name]
	return v, ok
}

// String renders the solution as "name version" lines, sorted by name.
func (s Solution) String() string {
	names := make([]Name, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b Name) int {
		return strings.Compare(a.Value(), b.Value())
	})

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(name.Value())
		b.WriteByte(' ')
		b.WriteString(s[name].String())
	}
	return b.String()
}
