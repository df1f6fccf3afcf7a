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

// Constraint is an immutable algebraic predicate over versions.
//
// Implementations form a small tree: AnyConstraint, ExactConstraint,
// RangeConstraint, UnionConstraint, IntersectionConstraint and
// NotConstraint. Allows must be pure; String must be canonical enough that
// two structurally equal constraints render identically (the solver uses
// the rendered form to deduplicate derived terms).
type Constraint interface {
	// Allows reports whether the version satisfies the constraint.
	Allows(v *Version) bool
	String() string
}

// AnyConstraint admits every version.
type AnyConstraint struct{}

func (AnyConstraint) Allows(*Version) bool { return true }
func (AnyConstraint) String() string       { return "*" }

// ExactConstraint admits exactly one version.
type ExactConstraint struct {
	Version *Version
}

func (c ExactConstraint) Allows(v *Version) bool { return c.Version.Equal(v) }
func (c ExactConstraint) String() string         { return "==" + c.Version.String() }

// RangeConstraint admits versions with Min <= v < Max.
type RangeConstraint struct {
	Min *Version // inclusive
	Max *Version // exclusive
}

func (c RangeConstraint) Allows(v *Version) bool {
	return v.Compare(c.Min) >= 0 && v.Compare(c.Max) < 0
}

func (c RangeConstraint) String() string {
	lowerOpen := c.Min.Compare(minSentinel()) <= 0
	upperOpen := c.Max.Compare(maxSentinel()) >= 0
	switch {
	case lowerOpen && upperOpen:
		return "*"
	case lowerOpen:
		return "<" + c.Max.String()
	case upperOpen:
		return ">=" + c.Min.String()
	default:
		return fmt.Sprintf(">=%s, <%s", c.Min, c.Max)
	}
}

// UnionConstraint admits versions allowed by any member.
type UnionConstraint struct {
	Members []Constraint
}

func (c UnionConstraint) Allows(v *Version) bool {
	for _, m := range c.Members {
		if m.Allows(v) {
			return true
		}
	}
	return false
}

func (c UnionConstraint) String() string {
	parts := make([]string, len(c.Members))
	for i, m := range c.Members {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

// IntersectionConstraint admits versions allowed by every member.
type IntersectionConstraint struct {
	Members []Constraint
}

func (c IntersectionConstraint) Allows(v *Version) bool {
	for _, m := range c.Members {
		if !m.Allows(v) {
			return false
		}
	}
	return true
}

func (c IntersectionConstraint) String() string {
	parts := make([]string, len(c.Members))
	for i, m := range c.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// NotConstraint admits versions its inner constraint rejects.
type NotConstraint struct {
	Inner Constraint
}

func (c NotConstraint) Allows(v *Version) bool { return !c.Inner.Allows(v) }

func (c NotConstraint) String() string {
	return "not (" + c.Inner.String() + ")"
}

// NewUnion builds a union, flattening nested unions so that repeated
// combination keeps the tree shallow. Members with an identical canonical
// form are kept once, so folding the same constraint in twice does not
// grow the tree or its rendered form. Zero members collapse to Any for
// want of a better empty-union representation; one member is returned
// unchanged.
func NewUnion(members ...Constraint) Constraint {
	flat := make([]Constraint, 0, len(members))
	seen := make(map[string]bool, len(members))
	add := func(c Constraint) {
		key := c.String()
		if seen[key] {
			return
		}
		seen[key] = true
		flat = append(flat, c)
	}
	for _, m := range members {
		if u, ok := m.(UnionConstraint); ok {
			for _, inner := range u.Members {
				add(inner)
			}
			continue
		}
		add(m)
	}
	switch len(flat) {
	case 0:
		return AnyConstraint{}
	case 1:
		return flat[0]
	}
	return UnionConstraint{Members: flat}
}

// NewIntersection builds an intersection, flattening nested intersections,
// dropping Any members and keeping duplicate members once. Full
// normalization is not attempted; the combination operators are
// associative and idempotent, which is all the simplification relies on.
func NewIntersection(members ...Constraint) Constraint {
	flat := make([]Constraint, 0, len(members))
	seen := make(map[string]bool, len(members))
	add := func(c Constraint) {
		key := c.String()
		if seen[key] {
			return
		}
		seen[key] = true
		flat = append(flat, c)
	}
	for _, m := range members {
		switch t := m.(type) {
		case AnyConstraint:
			continue
		case IntersectionConstraint:
			for _, inner := range t.Members {
				add(inner)
			}
		default:
			add(m)
		}
	}
	switch len(flat) {
	case 0:
		return AnyConstraint{}
	case 1:
		return flat[0]
	}
	return IntersectionConstraint{Members: flat}
}

// Intersect combines two constraints conjunctively.
func Intersect(a, b Constraint) Constraint {
	return NewIntersection(a, b)
}

// ConstraintFromOperator translates a PEP 440 comparison operator applied to
// a version into a constraint tree:
//
//	==, ===  Exact
//	!=       Not(Exact)
//	>=       Range(v, +inf)
//	<        Range(-inf, v)
//	<=       Range(-inf, v) or Exact(v)
//	>        Range(v, +inf) minus v
//	~=       compatible release, e.g. ~=1.4.2 means >=1.4.2, <1.5.0
//
// A "~=" applied to a version with fewer than two release segments has no
// defined upper bound; it degrades to Any rather than failing the parse,
// and the returned error is a *ShortCompatibleReleaseError advising the
// caller of the downgrade while the constraint stays usable. Unknown
// operators are a hard error with a nil constraint.
func ConstraintFromOperator(op string, v *Version) (Constraint, error) {
	switch op {
	case "==", "===":
		return ExactConstraint{Version: v}, nil
	case "!=":
		return NotConstraint{Inner: ExactConstraint{Version: v}}, nil
	case ">=":
		return RangeConstraint{Min: v, Max: maxSentinel()}, nil
	case "<":
		return RangeConstraint{Min: minSentinel(), Max: v}, nil
	case "<=":
		return NewUnion(
			RangeConstraint{Min: minSentinel(), Max: v},
			ExactConstraint{Version: v},
		), nil
	case ">":
		return NewIntersection(
			RangeConstraint{Min: v, Max: maxSentinel()},
			NotConstraint{Inner: ExactConstraint{Version: v}},
		), nil
	case "~=":
		return compatibleRelease(v)
	default:
		return nil, fmt.Errorf("unsupported version operator %q", op)
	}
}

// compatibleRelease builds the ~= constraint: the given version as inclusive
// lower bound, and the release with its second-to-last segment incremented
// (and everything after it dropped) as exclusive upper bound. A release too
// short to bound degrades to Any and reports the downgrade.
func compatibleRelease(v *Version) (Constraint, error) {
	if len(v.Release) < 2 {
		return AnyConstraint{}, &ShortCompatibleReleaseError{Version: v}
	}

	upper := make([]int, len(v.Release)-1)
	copy(upper, v.Release[:len(v.Release)-1])
	upper[len(upper)-1]++

	return RangeConstraint{
		Min: v,
		Max: &Version{Epoch: v.Epoch, Release: upper},
	}, nil
}

// constraintAllows treats a nil constraint as Any. Terms built internally
// always carry a constraint, but callers assembling terms by hand may not.
func constraintAllows(c Constraint, v *Version) bool {
	if c == nil {
		return true
	}
	return c.Allows(v)
}

func constraintString(c Constraint) string {
	if c == nil {
		return "*"
	}
	return c.String()
}
