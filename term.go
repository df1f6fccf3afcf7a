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

import "fmt"

// Term is a logical statement about one package: "the chosen version of
// Name does (Positive) or does not (negative) satisfy Constraint".
type Term struct {
	Name       Name
	Constraint Constraint
	Positive   bool
}

// NewTerm creates a positive term.
func NewTerm(name Name, constraint Constraint) Term {
	return Term{Name: name, Constraint: constraint, Positive: true}
}

// NewNegativeTerm creates a negative term.
func NewNegativeTerm(name Name, constraint Constraint) Term {
	return Term{Name: name, Constraint: constraint, Positive: false}
}

// Negate returns the logical negation of the term.
func (t Term) Negate() Term {
	return Term{Name: t.Name, Constraint: t.Constraint, Positive: !t.Positive}
}

// SatisfiedBy reports whether a decided version satisfies the term.
func (t Term) SatisfiedBy(ver *Version) bool {
	allows := constraintAllows(t.Constraint, ver)
	if t.Positive {
		return allows
	}
	return !allows
}

func (t Term) String() string {
	cond := constraintString(t.Constraint)

	if t.Positive {
		if cond == "*" {
			return t.Name.Value()
		}
		return fmt.Sprintf("%s %s", t.Name.Value(), cond)
	}

	if cond == "*" {
		return fmt.Sprintf("not %s", t.Name.Value())
	}
	return fmt.Sprintf("not %s %s", t.Name.Value(), cond)
}

// key is the canonical identity of the term, used to deduplicate
// derivations in the partial solution.
func (t Term) key() string {
	polarity := "+"
	if !t.Positive {
		polarity = "-"
	}
	return polarity + t.Name.Value() + "|" + constraintString(t.Constraint)
}

// mergeTerms combines two terms for the same package into one that holds
// exactly when both do. Positive terms intersect their constraints,
// negative terms union them. A positive and a negative term conjoin to a
// positive term over the difference: the version must satisfy the
// positive side while avoiding the negated one. Only terms for different
// packages refuse to merge.
func mergeTerms(a, b Term) (Term, bool) {
	if a.Name != b.Name {
		return Term{}, false
	}
	if a.Positive == b.Positive {
		if a.Positive {
			return NewTerm(a.Name, Intersect(a.Constraint, b.Constraint)), true
		}
		return NewNegativeTerm(a.Name, NewUnion(a.Constraint, b.Constraint)), true
	}
	pos, neg := a, b
	if !pos.Positive {
		pos, neg = b, a
	}
	return NewTerm(a.Name, Intersect(pos.Constraint, NotConstraint{Inner: neg.Constraint})), true
}
