package pipgrub

import "testing"

func TestPartialSolutionBacktrack(t *testing.T) {
	ps := newPartialSolution()
	root := MakeName("root")
	a := MakeName("a")
	b := MakeName("b")

	ps.seedRoot(root, MustParseVersion("1.0"))
	ps.addDerivation(NewTerm(a, AnyConstraint{}), 0)

	ps.addDecision(a, MustParseVersion("1.0"))
	derivedB := NewTerm(b, ExactConstraint{Version: MustParseVersion("2.0")})
	ps.addDerivation(derivedB, 1)

	ps.addDecision(b, MustParseVersion("2.0"))
	if ps.decisionCount != 2 {
		t.Fatalf("expected decision count 2, got %d", ps.decisionCount)
	}

	ps.backtrack(1)

	if ps.decisionCount != 1 {
		t.Errorf("expected decision count 1 after backtrack, got %d", ps.decisionCount)
	}
	if _, ok := ps.decision(b); ok {
		t.Error("expected b's decision to be removed")
	}
	if _, ok := ps.decision(a); !ok {
		t.Error("expected a's decision to survive")
	}
	if !ps.hasDerivation(derivedB) {
		t.Error("expected level-1 derivation to survive backtrack to level 1")
	}

	ps.backtrack(0)
	if ps.hasDerivation(derivedB) {
		t.Error("expected level-1 derivation to be removed by backtrack to level 0")
	}
	if _, ok := ps.decision(root); !ok {
		t.Error("expected root decision to survive any backtrack")
	}
}

func TestPartialSolutionNextDecisionCandidate(t *testing.T) {
	ps := newPartialSolution()
	root := MakeName("root")
	ps.seedRoot(root, MustParseVersion("1.0"))

	if _, ok := ps.nextDecisionCandidate(); ok {
		t.Fatal("expected no candidate with no derivations")
	}

	a := MakeName("a")
	b := MakeName("b")
	ps.addDerivation(NewTerm(a, AnyConstraint{}), 0)
	ps.addDerivation(NewTerm(b, AnyConstraint{}), 0)
	// Negative derivations never nominate a package.
	ps.addDerivation(NewNegativeTerm(MakeName("c"), AnyConstraint{}), 0)

	name, ok := ps.nextDecisionCandidate()
	if !ok || name != a {
		t.Fatalf("expected first positive derivation (a) to be nominated, got %v", name.Value())
	}

	ps.addDecision(a, MustParseVersion("1.0"))
	name, ok = ps.nextDecisionCandidate()
	if !ok || name != b {
		t.Fatalf("expected b after a was decided, got %v", name.Value())
	}

	ps.addDecision(b, MustParseVersion("1.0"))
	if _, ok := ps.nextDecisionCandidate(); ok {
		t.Fatal("expected no candidate once everything is decided")
	}
}

func TestPartialSolutionAllowedConstraint(t *testing.T) {
	ps := newPartialSolution()
	ps.seedRoot(MakeName("root"), MustParseVersion("1.0"))

	c := MakeName("c")
	ps.addDerivation(NewTerm(c, RangeConstraint{
		Min: MustParseVersion("1.0"),
		Max: MustParseVersion("3.0"),
	}), 0)
	ps.addDerivation(NewNegativeTerm(c, ExactConstraint{Version: MustParseVersion("2.0")}), 0)

	allowed := ps.allowedConstraint(c)
	if !allowed.Allows(MustParseVersion("1.5")) {
		t.Error("expected 1.5 to be allowed")
	}
	if allowed.Allows(MustParseVersion("2.0")) {
		t.Error("expected excluded version 2.0 to be rejected")
	}
	if allowed.Allows(MustParseVersion("3.0")) {
		t.Error("expected out-of-range 3.0 to be rejected")
	}

	if ps.allowedConstraint(MakeName("unknown")) != nil {
		t.Error("expected nil constraint for a package with no derivations")
	}
}

func TestPartialSolutionSolutionExcludesRoot(t *testing.T) {
	ps := newPartialSolution()
	root := MakeName("root")
	ps.seedRoot(root, MustParseVersion("1.0"))
	ps.addDecision(MakeName("a"), MustParseVersion("2.0"))

	solution := ps.solution()
	if len(solution) != 1 {
		t.Fatalf("expected one package, got %d", len(solution))
	}
	if _, ok := solution.Version(root); ok {
		t.Error("root must not appear in the solution")
	}
}
