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
	"sort"
)

// solverState holds all mutable state of one resolution run. It
// coordinates:
//   - The partial solution (decisions and derivations so far)
//   - The incompatibility arena (every known incompatibility, addressed
//     by handle)
//   - The unit propagation queue (packages whose constraints may have
//     new consequences)
//
// Incompatibilities live in a flat append-only slice and are referred to
// by IncompID everywhere, including conflict causes; nothing holds a
// pointer into the arena across appends.
type solverState struct {
	provider MetadataProvider
	options  SolverOptions
	partial  *partialSolution

	incs      []Incompatibility
	byPackage map[Name][]IncompID

	queue  []Name
	queued map[Name]bool

	// registered tracks name@version edges whose dependencies have been
	// turned into incompatibilities, so backtracking and re-deciding the
	// same version does not duplicate them.
	registered map[string]bool
}

func newSolverState(provider MetadataProvider, options SolverOptions) *solverState {
	return &solverState{
		provider:   provider,
		options:    options,
		partial:    newPartialSolution(),
		byPackage:  make(map[Name][]IncompID),
		queued:     make(map[Name]bool),
		registered: make(map[string]bool),
	}
}

// addIncompatibility appends to the arena and indexes the new entry under
// every package it mentions.
func (st *solverState) addIncompatibility(inc Incompatibility) IncompID {
	id := IncompID(len(st.incs))
	st.incs = append(st.incs, inc)
	seen := make(map[Name]bool, len(inc.Terms))
	for _, term := range inc.Terms {
		if seen[term.Name] {
			continue
		}
		seen[term.Name] = true
		st.byPackage[term.Name] = append(st.byPackage[term.Name], id)
	}
	return id
}

// enqueue adds a package to the propagation queue if not already queued.
func (st *solverState) enqueue(name Name) {
	if st.queued[name] {
		return
	}
	st.queue = append(st.queue, name)
	st.queued[name] = true
}

func (st *solverState) dequeue() (Name, bool) {
	if len(st.queue) == 0 {
		return EmptyName(), false
	}
	name := st.queue[0]
	st.queue = st.queue[1:]
	delete(st.queued, name)
	return name, true
}

// requeueAll schedules every package mentioned by any incompatibility for
// another propagation pass, in sorted order so runs stay deterministic.
// Called after backtracking, when earlier conclusions may need redrawing.
func (st *solverState) requeueAll() {
	st.queue = st.queue[:0]
	for name := range st.queued {
		delete(st.queued, name)
	}
	names := make([]Name, 0, len(st.byPackage))
	for name := range st.byPackage {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i].Value() < names[j].Value()
	})
	for _, name := range names {
		st.enqueue(name)
	}
}

func (st *solverState) debug(msg string, args ...any) {
	if st.options.Logger == nil {
		return
	}
	st.options.Logger.Debug(msg, args...)
}

// termRelation describes one term against the current decisions.
type termRelation int

const (
	termSatisfied termRelation = iota
	termContradicted
	termUndecided
)

// termStatus classifies a term against decisions only. Derivations do not
// count here: a derivation narrows future choices but does not yet pin a
// version the term could be checked against.
func (st *solverState) termStatus(t Term) termRelation {
	version, decided := st.partial.decision(t.Name)
	if !decided {
		return termUndecided
	}
	if t.SatisfiedBy(version) {
		return termSatisfied
	}
	return termContradicted
}

// propagate performs unit propagation until the queue drains or a
// conflict is found. For each incompatibility touching a dequeued
// package:
//   - any contradicted term: the incompatibility is vacuously satisfied,
//     skip it
//   - no undecided terms: every term holds, which is a conflict
//   - exactly one undecided term: that term must not hold, so derive its
//     negation
//
// Derivations already present are not re-added, which makes propagation a
// fixed point instead of an endless re-derivation loop.
func (st *solverState) propagate() IncompID {
	for {
		pkg, ok := st.dequeue()
		if !ok {
			return noIncomp
		}

		for _, id := range st.byPackage[pkg] {
			inc := &st.incs[id]

			undecidedIdx := -1
			undecidedCount := 0
			contradicted := false
			for i, term := range inc.Terms {
				switch st.termStatus(term) {
				case termContradicted:
					contradicted = true
				case termUndecided:
					undecidedIdx = i
					undecidedCount++
				}
			}
			if contradicted {
				continue
			}

			if undecidedCount == 0 {
				st.debug("conflict detected during propagation",
					"package", pkg.Value(),
					"incompatibility", inc.String(),
				)
				return id
			}

			if undecidedCount == 1 {
				derived := inc.Terms[undecidedIdx].Negate()
				if st.partial.hasDerivation(derived) {
					continue
				}
				st.debug("unit propagation",
					"package", pkg.Value(),
					"incompatibility", inc.String(),
					"derived_term", derived.String(),
				)
				st.partial.addDerivation(derived, id)
				st.enqueue(derived.Name)
			}
		}
	}
}

// decide picks a version for name: the highest published version allowed
// by every derivation accumulated so far. Selecting a version also
// registers that version's dependencies as incompatibilities, once per
// name@version edge.
//
// Returns a conflict handle when no published version fits, and an error
// for metadata failures (missing package, malformed dependency strings).
func (st *solverState) decide(ctx context.Context, name Name) (IncompID, error) {
	info, err := st.provider.FetchPackageInfo(ctx, name.Value())
	if err != nil {
		return noIncomp, err
	}

	type candidate struct {
		version *Version
		key     string
	}
	candidates := make([]candidate, 0, len(info.Versions))
	for key := range info.Versions {
		version, err := ParseVersion(key)
		if err != nil {
			st.debug("skipping unparsable published version",
				"package", name.Value(),
				"version", key,
			)
			continue
		}
		candidates = append(candidates, candidate{version: version, key: key})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].version.Compare(candidates[j].version) > 0
	})

	allowed := st.partial.allowedConstraint(name)
	chosen := -1
	for i := range candidates {
		if constraintAllows(allowed, candidates[i].version) {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		st.debug("no candidate satisfies constraints",
			"package", name.Value(),
			"constraint", constraintString(allowed),
		)
		return st.noCandidateConflict(name, allowed), nil
	}

	version := candidates[chosen].version
	edge := name.Value() + "@" + version.String()
	if !st.registered[edge] {
		st.registered[edge] = true
		for _, raw := range releaseRequirements(info, candidates[chosen].key, version) {
			req, err := ParseRequirement(raw)
			if err != nil {
				var short *ShortCompatibleReleaseError
				if !errors.As(err, &short) {
					return noIncomp, &DependencyError{Package: name, Version: version, Err: err}
				}
				st.debug("compatible release specifier too short to bound",
					"package", name.Value(),
					"requirement", raw,
					"detail", err.Error(),
				)
			}
			if !EvaluateMarker(req.Marker, st.options.Environment) {
				st.debug("dependency skipped by environment marker",
					"package", name.Value(),
					"requirement", raw,
				)
				continue
			}
			dep := NewTerm(req.Name, req.Constraint)
			st.addIncompatibility(newDependencyIncompatibility(name, version, dep))
		}
	}

	st.debug("decision",
		"package", name.Value(),
		"version", version.String(),
	)
	st.partial.addDecision(name, version)
	st.enqueue(name)
	return noIncomp, nil
}

// noCandidateConflict builds the incompatibility explaining an empty
// candidate set. It starts from "no version of name satisfies the
// accumulated constraint" and resolves it against the cause of every
// derivation that narrowed the candidate set. The final clause mentions
// only the packages whose decisions forced the dead end, so it keeps
// excluding that combination after backtracking.
//
// Each resolution step carries a residual term about the pivot: the
// versions not yet ruled out by the causes folded so far. One cause alone
// rarely explains the dead end, and dropping the pivot early would turn
// an intermediate clause into an over-strong claim. Once every cause is
// folded the residual covers all versions and the pivot term disappears.
func (st *solverState) noCandidateConflict(name Name, allowed Constraint) IncompID {
	if allowed == nil {
		allowed = AnyConstraint{}
	}
	conflict := st.addIncompatibility(newNoVersionIncompatibility(NewTerm(name, allowed)))

	var folds []assignment
	for _, deriv := range st.partial.derivationsFor(name) {
		if deriv.cause != noIncomp {
			folds = append(folds, deriv)
		}
	}

	residual := allowed
	for i, deriv := range folds {
		if deriv.term.Positive {
			residual = NewUnion(residual, NotConstraint{Inner: deriv.term.Constraint})
		} else {
			residual = NewUnion(residual, deriv.term.Constraint)
		}

		var merged []Term
		for _, term := range st.incs[conflict].Terms {
			if term.Name != name {
				merged = append(merged, term)
			}
		}
		for _, term := range st.incs[deriv.cause].Terms {
			if term.Name != name {
				merged = append(merged, term)
			}
		}
		if i < len(folds)-1 {
			merged = append(merged, NewTerm(name, residual))
		}

		conflict = st.addIncompatibility(newConflictIncompatibility(merged, conflict, deriv.cause))
		st.debug("learned incompatibility",
			"pivot", name.Value(),
			"incompatibility", st.incs[conflict].String(),
		)
	}
	return conflict
}

// releaseRequirements returns the dependency strings for one release,
// preferring release-level metadata. The package-level requires list
// describes the latest release only, so it fills in solely for that
// release; an older release without file metadata is dependency-free,
// not a copy of the newest one.
func releaseRequirements(info *PackageInfo, versionKey string, version *Version) []string {
	for _, release := range info.Versions[versionKey] {
		if len(release.RequiresDist) > 0 {
			return release.RequiresDist
		}
	}
	if info.LatestVersion != nil && version.Equal(info.LatestVersion) {
		return info.RequiresDist
	}
	return nil
}
