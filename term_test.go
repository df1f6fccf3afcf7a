package pipgrub

import "testing"

func TestMergeTermsSamePolarity(t *testing.T) {
	name := MakeName("A")
	ge1 := NewTerm(name, RangeConstraint{Min: MustParseVersion("1.0"), Max: maxSentinel()})
	lt2 := NewTerm(name, RangeConstraint{Min: minSentinel(), Max: MustParseVersion("2.0")})

	merged, ok := mergeTerms(ge1, lt2)
	if !ok {
		t.Fatal("expected positive terms for the same package to merge")
	}
	if !merged.Positive {
		t.Error("expected merged positive terms to stay positive")
	}
	if !merged.SatisfiedBy(MustParseVersion("1.5")) || merged.SatisfiedBy(MustParseVersion("2.0")) {
		t.Errorf("merged term %s does not behave as the conjunction", merged)
	}

	not1 := NewNegativeTerm(name, ExactConstraint{Version: MustParseVersion("1.0")})
	not2 := NewNegativeTerm(name, ExactConstraint{Version: MustParseVersion("2.0")})
	merged, ok = mergeTerms(not1, not2)
	if !ok || merged.Positive {
		t.Fatalf("expected negative terms to merge into a negative term, got %s", merged)
	}
	if merged.SatisfiedBy(MustParseVersion("1.0")) || merged.SatisfiedBy(MustParseVersion("2.0")) {
		t.Errorf("merged negative term %s admits an excluded version", merged)
	}
	if !merged.SatisfiedBy(MustParseVersion("3.0")) {
		t.Errorf("merged negative term %s rejects an allowed version", merged)
	}
}

func TestMergeTermsMixedPolarity(t *testing.T) {
	name := MakeName("A")
	inRange := NewTerm(name, RangeConstraint{Min: MustParseVersion("1.0"), Max: MustParseVersion("3.0")})
	not2 := NewNegativeTerm(name, ExactConstraint{Version: MustParseVersion("2.0")})

	// Both statements hold exactly for versions in the range other than
	// 2.0; the merge must preserve that, never drop a side.
	merged, ok := mergeTerms(inRange, not2)
	if !ok {
		t.Fatal("expected mixed-polarity terms for the same package to merge")
	}
	if !merged.Positive {
		t.Errorf("expected mixed-polarity merge to be positive, got %s", merged)
	}
	if !merged.SatisfiedBy(MustParseVersion("1.5")) {
		t.Errorf("merged term %s rejects 1.5, which satisfies both inputs", merged)
	}
	if merged.SatisfiedBy(MustParseVersion("2.0")) {
		t.Errorf("merged term %s admits 2.0, which the negative input excludes", merged)
	}
	if merged.SatisfiedBy(MustParseVersion("3.0")) {
		t.Errorf("merged term %s admits 3.0, which the positive input excludes", merged)
	}

	// Argument order must not matter.
	swapped, ok := mergeTerms(not2, inRange)
	if !ok {
		t.Fatal("expected swapped mixed-polarity terms to merge")
	}
	if swapped.SatisfiedBy(MustParseVersion("2.0")) || !swapped.SatisfiedBy(MustParseVersion("1.5")) {
		t.Errorf("swapped merge %s disagrees with %s", swapped, merged)
	}
}

func TestMergeTermsDifferentPackages(t *testing.T) {
	a := NewTerm(MakeName("A"), AnyConstraint{})
	b := NewTerm(MakeName("B"), AnyConstraint{})
	if _, ok := mergeTerms(a, b); ok {
		t.Fatal("expected terms for different packages not to merge")
	}
}

func TestConflictIncompatibilityKeepsMixedPolarityTerms(t *testing.T) {
	name := MakeName("A")
	other := NewTerm(MakeName("B"), ExactConstraint{Version: MustParseVersion("1.0")})
	positive := NewTerm(name, ExactConstraint{Version: MustParseVersion("2.0")})
	negative := NewNegativeTerm(name, ExactConstraint{Version: MustParseVersion("3.0")})

	inc := newConflictIncompatibility([]Term{other, positive, negative}, noIncomp, noIncomp)
	if len(inc.Terms) != 2 {
		t.Fatalf("expected 2 terms after merging, got %d: %s", len(inc.Terms), inc.String())
	}

	var merged *Term
	for i := range inc.Terms {
		if inc.Terms[i].Name == name {
			merged = &inc.Terms[i]
		}
	}
	if merged == nil {
		t.Fatalf("merged clause lost the A terms entirely: %s", inc.String())
	}
	if !merged.SatisfiedBy(MustParseVersion("2.0")) {
		t.Errorf("merged term %s rejects 2.0, which both inputs admit", merged)
	}
	if merged.SatisfiedBy(MustParseVersion("3.0")) {
		t.Errorf("merged term %s admits 3.0, which the negative input excludes", merged)
	}
}
