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

import "context"

// Solver resolves a set of requirements against a metadata provider into
// a coherent set of package versions.
//
// Resolution alternates unit propagation with decisions. Each decision
// picks the highest published version the accumulated constraints allow.
// When propagation finds a conflict, the solver learns an
// incompatibility describing the dead end and backtracks one decision
// level, so the retry cannot walk into the same trap.
//
// Basic usage:
//
//	provider := NewInMemoryProvider()
//	provider.AddPackage("requests", "2.28.0", []string{"urllib3>=1.21.1"})
//	provider.AddPackage("urllib3", "1.26.0", nil)
//
//	reqs, _ := ParseRequirement("requests>=2.0")
//	solver := NewSolver(provider)
//	solution, err := solver.Solve(context.Background(), "myapp",
//	    MustParseVersion("1.0"), []Requirement{reqs})
type Solver struct {
	provider MetadataProvider
	options  SolverOptions
}

// NewSolver creates a solver over the given provider.
func NewSolver(provider MetadataProvider, opts ...SolverOption) *Solver {
	options := defaultSolverOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &Solver{provider: provider, options: options}
}

// Solve resolves the requirements of a root package. rootName and
// rootVersion identify the project being resolved; they appear in
// conflict explanations but are never fetched from the provider.
//
// On success the returned Solution maps every transitively required
// package to its selected version. On failure the error is an
// *UnsolvableConflictError for genuine version conflicts, an
// ErrIterationLimit when MaxSteps is exhausted, or the underlying
// metadata error (e.g. *PackageNotFoundError) for provider failures.
func (s *Solver) Solve(ctx context.Context, rootName string, rootVersion *Version, requirements []Requirement) (Solution, error) {
	st := newSolverState(s.provider, s.options)
	root := MakeName(rootName)
	st.partial.seedRoot(root, rootVersion)

	for _, req := range requirements {
		if !EvaluateMarker(req.Marker, s.options.Environment) {
			st.debug("root requirement skipped by environment marker",
				"requirement", req.Name.Value(),
				"marker", req.Marker,
			)
			continue
		}
		dep := NewTerm(req.Name, req.Constraint)
		st.addIncompatibility(newRootIncompatibility(root, rootVersion, dep))
	}
	st.requeueAll()

	steps := 0
	for {
		steps++
		if s.options.MaxSteps > 0 && steps > s.options.MaxSteps {
			return nil, ErrIterationLimit{Steps: steps - 1}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		conflict := st.propagate()
		if conflict != noIncomp {
			if done, err := s.handleConflict(st, conflict); done {
				return nil, err
			}
			continue
		}

		name, ok := st.partial.nextDecisionCandidate()
		if !ok {
			return st.partial.solution(), nil
		}

		conflict, err := st.decide(ctx, name)
		if err != nil {
			return nil, err
		}
		if conflict != noIncomp {
			if done, err := s.handleConflict(st, conflict); done {
				return nil, err
			}
		}
	}
}

// handleConflict backtracks one decision level and schedules a full
// re-propagation, unless the conflict arose with no decisions on the
// stack, in which case resolution has genuinely failed.
func (s *Solver) handleConflict(st *solverState, conflict IncompID) (bool, error) {
	if st.partial.decisionCount == 0 {
		return true, newUnsolvableConflictError(st.incs, conflict)
	}
	target := st.partial.decisionCount - 1
	st.debug("backtracking",
		"to_level", target,
		"conflict", st.incs[conflict].String(),
	)
	st.partial.backtrack(target)
	st.requeueAll()
	return false, nil
}
