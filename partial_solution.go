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

// partialSolution is the chronological assignment log the solver builds up.
// It tracks decisions (chosen versions) and derivations (propagated terms)
// together with the decision level each was made at, so backtracking can
// unwind both in one pass.
type partialSolution struct {
	assignments []assignment
	decisions   map[Name]*Version
	// derived memoizes derivation term keys so propagation reaches a
	// fixed point instead of re-deriving the same term every pass.
	derived       map[string]int
	root          Name
	decisionCount int
}

func newPartialSolution() *partialSolution {
	return &partialSolution{
		decisions: make(map[Name]*Version),
		derived:   make(map[string]int),
	}
}

// seedRoot records the root package selection at level zero. The root is
// not counted as a decision, so a conflict among the root's own
// requirements surfaces at level zero and ends the solve.
func (ps *partialSolution) seedRoot(name Name, version *Version) {
	ps.root = name
	ps.decisions[name] = version
	ps.assignments = append(ps.assignments, assignment{
		name:    name,
		term:    NewTerm(name, ExactConstraint{Version: version}),
		kind:    assignmentDecision,
		version: version,
		level:   0,
	})
}

func (ps *partialSolution) addDecision(name Name, version *Version) {
	ps.decisionCount++
	ps.decisions[name] = version
	ps.assignments = append(ps.assignments, assignment{
		name:    name,
		term:    NewTerm(name, ExactConstraint{Version: version}),
		kind:    assignmentDecision,
		version: version,
		level:   ps.decisionCount,
	})
}

func (ps *partialSolution) addDerivation(term Term, cause IncompID) {
	ps.derived[term.key()]++
	ps.assignments = append(ps.assignments, assignment{
		name:  term.Name,
		term:  term,
		kind:  assignmentDerivation,
		cause: cause,
		level: ps.decisionCount,
	})
}

// hasDerivation reports whether an identical term was already derived.
func (ps *partialSolution) hasDerivation(term Term) bool {
	return ps.derived[term.key()] > 0
}

func (ps *partialSolution) decision(name Name) (*Version, bool) {
	v, ok := ps.decisions[name]
	return v, ok
}

// backtrack removes all assignments made after the target decision level.
func (ps *partialSolution) backtrack(target int) {
	for len(ps.assignments) > 0 {
		last := ps.assignments[len(ps.assignments)-1]
		if last.level <= target {
			break
		}
		ps.assignments = ps.assignments[:len(ps.assignments)-1]
		if last.isDecision() {
			delete(ps.decisions, last.name)
		} else {
			key := last.term.key()
			ps.derived[key]--
			if ps.derived[key] <= 0 {
				delete(ps.derived, key)
			}
		}
	}
	ps.decisionCount = target
}

// nextDecisionCandidate returns the first package mentioned by a positive
// derivation that has no decision yet. Log order keeps selection
// deterministic.
func (ps *partialSolution) nextDecisionCandidate() (Name, bool) {
	for _, a := range ps.assignments {
		if a.isDecision() || !a.term.Positive {
			continue
		}
		if a.name == ps.root {
			continue
		}
		if _, decided := ps.decisions[a.name]; !decided {
			return a.name, true
		}
	}
	return EmptyName(), false
}

// derivationsFor returns the derivation assignments concerning name, in
// chronological order.
func (ps *partialSolution) derivationsFor(name Name) []assignment {
	var out []assignment
	for _, a := range ps.assignments {
		if !a.isDecision() && a.name == name {
			out = append(out, a)
		}
	}
	return out
}

// allowedConstraint folds every derivation concerning name into a single
// constraint: positive terms contribute directly, negative terms as their
// complement.
func (ps *partialSolution) allowedConstraint(name Name) Constraint {
	var acc Constraint
	for _, a := range ps.assignments {
		if a.isDecision() || a.name != name {
			continue
		}
		c := a.term.Constraint
		if !a.term.Positive {
			c = NotConstraint{Inner: c}
		}
		if acc == nil {
			acc = c
		} else {
			acc = Intersect(acc, c)
		}
	}
	return acc
}

// solution extracts the decided versions, excluding the synthetic root.
func (ps *partialSolution) solution() Solution {
	out := make(Solution, len(ps.decisions))
	for name, version := range ps.decisions {
		if name == ps.root {
			continue
		}
		out[name] = version
	}
	return out
}
