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
	"fmt"
	"strings"
)

// IncompID is an integer handle into a solve session's incompatibility
// arena. Assignments and causes reference incompatibilities by handle, so
// the arena can be append-only and snapshot cheaply for error reporting.
type IncompID int

// noIncomp is the zero handle, used where no incompatibility applies.
const noIncomp IncompID = -1

// CauseKind describes why an incompatibility exists.
type CauseKind int

const (
	// CauseRoot marks a requirement declared by the root package.
	CauseRoot CauseKind = iota
	// CauseDependency marks a dependency edge discovered from metadata.
	CauseDependency
	// CauseNoVersion marks a package whose candidate set came up empty.
	CauseNoVersion
	// CauseConflict marks an incompatibility derived from two others.
	CauseConflict
)

// Cause carries the provenance of an incompatibility. Dependency causes
// record the edge; conflict causes link the two incompatibilities they
// were derived from, by handle.
type Cause struct {
	Kind        CauseKind
	From        Name
	FromVersion *Version
	To          Name
	Left        IncompID
	Right       IncompID
}

// Incompatibility is a set of terms that cannot all hold simultaneously.
// It is the solver's unit of knowledge: dependency edges, root
// requirements, empty candidate sets and derived conflicts all take this
// form. Incompatibilities are append-only and live for the whole session.
type Incompatibility struct {
	Terms []Term
	Cause Cause
}

// newRootIncompatibility encodes "the root requires dep":
// {root == rootVersion, not dep}.
func newRootIncompatibility(root Name, rootVersion *Version, dep Term) Incompatibility {
	return Incompatibility{
		Terms: []Term{
			NewTerm(root, ExactConstraint{Version: rootVersion}),
			dep.Negate(),
		},
		Cause: Cause{Kind: CauseRoot, From: root, FromVersion: rootVersion, To: dep.Name, Left: noIncomp, Right: noIncomp},
	}
}

// newDependencyIncompatibility encodes "pkg@ver depends on dep":
// {pkg == ver, not dep}.
func newDependencyIncompatibility(pkg Name, ver *Version, dep Term) Incompatibility {
	return Incompatibility{
		Terms: []Term{
			NewTerm(pkg, ExactConstraint{Version: ver}),
			dep.Negate(),
		},
		Cause: Cause{Kind: CauseDependency, From: pkg, FromVersion: ver, To: dep.Name, Left: noIncomp, Right: noIncomp},
	}
}

// newNoVersionIncompatibility encodes "no candidate of pkg satisfies term".
func newNoVersionIncompatibility(term Term) Incompatibility {
	return Incompatibility{
		Terms: []Term{term},
		Cause: Cause{Kind: CauseNoVersion, To: term.Name, Left: noIncomp, Right: noIncomp},
	}
}

// newConflictIncompatibility derives an incompatibility from two causes.
// Terms for the same package are merged into one; dropping a term instead
// would strengthen the clause beyond what the causes justify, so every
// repeated term folds into the first occurrence.
func newConflictIncompatibility(terms []Term, left, right IncompID) Incompatibility {
	seen := make(map[Name]int)
	deduped := make([]Term, 0, len(terms))
	for _, term := range terms {
		if idx, ok := seen[term.Name]; ok {
			merged, _ := mergeTerms(deduped[idx], term)
			deduped[idx] = merged
			continue
		}
		seen[term.Name] = len(deduped)
		deduped = append(deduped, term)
	}

	return Incompatibility{
		Terms: deduped,
		Cause: Cause{Kind: CauseConflict, Left: left, Right: right},
	}
}

// mentions reports whether any term concerns the given package.
func (inc *Incompatibility) mentions(name Name) bool {
	for _, term := range inc.Terms {
		if term.Name == name {
			return true
		}
	}
	return false
}

// dependencyTerm returns the (unnegated) dependency side of a dependency
// or root incompatibility, for display.
func (inc *Incompatibility) dependencyTerm() (Term, bool) {
	if len(inc.Terms) != 2 {
		return Term{}, false
	}
	dep := inc.Terms[1]
	if dep.Name == inc.Cause.From {
		dep = inc.Terms[0]
	}
	if !dep.Positive {
		dep = dep.Negate()
	}
	return dep, true
}

// String returns a one-line description of the incompatibility.
func (inc *Incompatibility) String() string {
	if len(inc.Terms) == 0 {
		return "version solving failed"
	}
	if len(inc.Terms) == 1 {
		return fmt.Sprintf("%s is forbidden", inc.Terms[0])
	}

	switch inc.Cause.Kind {
	case CauseDependency:
		if dep, ok := inc.dependencyTerm(); ok {
			return fmt.Sprintf("%s %s depends on %s", inc.Cause.From.Value(), inc.Cause.FromVersion, dep)
		}
	case CauseRoot:
		if dep, ok := inc.dependencyTerm(); ok {
			return fmt.Sprintf("%s requires %s", inc.Cause.From.Value(), dep)
		}
	}

	parts := make([]string, len(inc.Terms))
	for i, term := range inc.Terms {
		parts[i] = term.String()
	}
	return fmt.Sprintf("%s are incompatible", strings.Join(parts, " and "))
}
