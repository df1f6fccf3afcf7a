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
)

// InvalidVersionError reports input that does not match the version grammar.
type InvalidVersionError struct {
	Input string
}

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q", e.Input)
}

// InvalidRequirementError reports a requirement string that could not be
// parsed, with the offending portion in Reason.
type InvalidRequirementError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidRequirementError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid requirement %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid requirement %q", e.Input)
}

// ShortCompatibleReleaseError reports a "~=" specifier whose version has
// fewer than two release segments and therefore no computable upper
// bound. It is advisory: the constraint it accompanies is a usable
// match-anything fallback, and callers that want to warn about the
// downgrade can detect it with errors.As.
type ShortCompatibleReleaseError struct {
	Version *Version
}

// Error implements the error interface.
func (e *ShortCompatibleReleaseError) Error() string {
	return fmt.Sprintf("compatible release specifier ~=%s has no upper bound; matching any version", e.Version)
}

// PackageNotFoundError indicates that a package is absent from the
// metadata provider.
type PackageNotFoundError struct {
	Package Name
}

// Error implements the error interface.
func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %s not found", e.Package.Value())
}

// DependencyError wraps a failure while processing the dependencies
// declared by a specific package version.
type DependencyError struct {
	Package Name
	Version *Version
	Err     error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("failed to get dependencies for %s %s: %v", e.Package.Value(), e.Version, e.Err)
}

// Unwrap returns the underlying error.
func (e *DependencyError) Unwrap() error {
	return e.Err
}

// UnsolvableConflictError is returned when no assignment of versions can
// satisfy every requirement. It carries the terminal incompatibility and
// a snapshot of the arena it refers into, so the full derivation chain
// remains reachable for reporting.
type UnsolvableConflictError struct {
	incompatibilities []Incompatibility
	conflict          IncompID

	// Reporter formats the error message (defaults to DefaultReporter).
	Reporter Reporter
}

func newUnsolvableConflictError(arena []Incompatibility, conflict IncompID) *UnsolvableConflictError {
	snapshot := make([]Incompatibility, len(arena))
	copy(snapshot, arena)
	return &UnsolvableConflictError{
		incompatibilities: snapshot,
		conflict:          conflict,
		Reporter:          &DefaultReporter{},
	}
}

// Incompatibility returns the terminal incompatibility of the conflict.
func (e *UnsolvableConflictError) Incompatibility() *Incompatibility {
	if e.conflict == noIncomp || int(e.conflict) >= len(e.incompatibilities) {
		return nil
	}
	return &e.incompatibilities[e.conflict]
}

// Resolve maps an incompatibility handle to its entry in the snapshot,
// which is how reporters walk conflict causes.
func (e *UnsolvableConflictError) Resolve(id IncompID) *Incompatibility {
	if id == noIncomp || int(id) >= len(e.incompatibilities) {
		return nil
	}
	return &e.incompatibilities[id]
}

// WithReporter returns a copy of the error using a custom reporter.
func (e *UnsolvableConflictError) WithReporter(reporter Reporter) *UnsolvableConflictError {
	return &UnsolvableConflictError{
		incompatibilities: e.incompatibilities,
		conflict:          e.conflict,
		Reporter:          reporter,
	}
}

// Error implements the error interface.
func (e *UnsolvableConflictError) Error() string {
	terminal := e.Incompatibility()
	if terminal == nil {
		return "no solution found"
	}

	reporter := e.Reporter
	if reporter == nil {
		reporter = &DefaultReporter{}
	}
	return reporter.Report(e, terminal)
}

// ErrIterationLimit is returned when the solver exceeds its maximum
// iteration count. Configure with WithMaxSteps(0) to disable the limit
// (not recommended for untrusted inputs).
type ErrIterationLimit struct {
	Steps int
}

// Error implements the error interface.
func (e ErrIterationLimit) Error() string {
	if e.Steps <= 0 {
		return "solver exceeded iteration limit"
	}
	return fmt.Sprintf("solver exceeded iteration limit after %d steps", e.Steps)
}

var (
	_ error = (*InvalidVersionError)(nil)
	_ error = (*InvalidRequirementError)(nil)
	_ error = (*ShortCompatibleReleaseError)(nil)
	_ error = (*PackageNotFoundError)(nil)
	_ error = (*DependencyError)(nil)
	_ error = (*UnsolvableConflictError)(nil)
	_ error = ErrIterationLimit{}
)
