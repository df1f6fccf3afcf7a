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

// assignmentKind distinguishes between decision and derivation assignments.
// Decisions are explicit version selections; derivations are constraints
// forced by unit propagation.
type assignmentKind int

const (
	assignmentDecision assignmentKind = iota
	assignmentDerivation
)

// assignment is one entry of the partial solution's chronological log.
// Decisions carry a version; derivations carry the incompatibility handle
// that forced them. level is the number of decisions made when the
// assignment was appended, which scopes backtracking.
type assignment struct {
	name    Name
	term    Term
	kind    assignmentKind
	version *Version
	cause   IncompID
	level   int
}

func (a assignment) isDecision() bool {
	return a.kind == assignmentDecision
}

func (a assignment) describe() string {
	if a.isDecision() {
		return fmt.Sprintf("decision %s %s (level %d)", a.name.Value(), a.version, a.level)
	}
	return fmt.Sprintf("derivation %s (level %d, cause #%d)", a.term, a.level, a.cause)
}
