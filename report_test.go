package pipgrub

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func conflictForReporting(t *testing.T) *UnsolvableConflictError {
	t.Helper()

	provider := NewInMemoryProvider()
	provider.AddPackage("A", "1.0", []string{"C==1.0"})
	provider.AddPackage("B", "1.0", []string{"C==2.0"})
	provider.AddPackage("C", "1.0", nil)
	provider.AddPackage("C", "2.0", nil)

	reqA, _ := ParseRequirement("A")
	reqB, _ := ParseRequirement("B")

	solver := NewSolver(provider)
	_, err := solver.Solve(context.Background(), "myapp", MustParseVersion("1.0"),
		[]Requirement{reqA, reqB})

	var conflict *UnsolvableConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *UnsolvableConflictError, got %T: %v", err, err)
	}
	return conflict
}

func TestDefaultReporterDerivation(t *testing.T) {
	conflict := conflictForReporting(t)
	message := conflict.Error()

	// The derivation must surface the dependency edges behind the
	// conflict, not just the terminal statement.
	for _, want := range []string{
		"Because",
		"A 1.0 depends on C ==1.0",
		"B 1.0 depends on C ==2.0",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("expected message to contain %q:\n%s", want, message)
		}
	}
}

func TestCollapsedReporter(t *testing.T) {
	conflict := conflictForReporting(t)
	message := conflict.WithReporter(&CollapsedReporter{}).Error()

	if !strings.Contains(message, "And because") {
		t.Errorf("expected collapsed format:\n%s", message)
	}
	if !strings.Contains(message, "A 1.0 depends on C ==1.0") {
		t.Errorf("expected dependency edge in message:\n%s", message)
	}
}

func TestReporterNilTerminal(t *testing.T) {
	var def DefaultReporter
	if got := def.Report(nil, nil); got != "no solution found" {
		t.Errorf("unexpected message: %q", got)
	}

	var collapsed CollapsedReporter
	if got := collapsed.Report(nil, nil); got != "no solution found" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestIncompatibilityString(t *testing.T) {
	dep := newDependencyIncompatibility(MakeName("A"), MustParseVersion("1.0"),
		NewTerm(MakeName("B"), ExactConstraint{Version: MustParseVersion("2.0")}))
	if got := dep.String(); got != "A 1.0 depends on B ==2.0" {
		t.Errorf("unexpected dependency string: %q", got)
	}

	root := newRootIncompatibility(MakeName("myapp"), MustParseVersion("1.0"),
		NewTerm(MakeName("A"), AnyConstraint{}))
	if got := root.String(); got != "myapp requires A" {
		t.Errorf("unexpected root string: %q", got)
	}

	noVersion := newNoVersionIncompatibility(
		NewTerm(MakeName("C"), ExactConstraint{Version: MustParseVersion("3.0")}))
	if got := noVersion.String(); got != "C ==3.0 is forbidden" {
		t.Errorf("unexpected no-version string: %q", got)
	}
}
