package sym

import (
	"strings"
	"testing"
)

func TestOperatorNamesAndInverseAreBidirectional(t *testing.T) {
	for glyph, name := range OperatorNames {
		got, ok := NameToOperator[name]
		if !ok {
			t.Errorf("OperatorNames has %q → %q, but NameToOperator has no entry for %q", glyph, name, name)
			continue
		}
		if got != glyph {
			t.Errorf("bidirectional mismatch: OperatorNames[%q] = %q, but NameToOperator[%q] = %q", glyph, name, name, got)
		}
	}
	if len(OperatorNames) != len(NameToOperator) {
		t.Errorf("map sizes differ: OperatorNames=%d NameToOperator=%d", len(OperatorNames), len(NameToOperator))
	}
}

func TestRelationOperatorsMatchGreedily(t *testing.T) {
	// Every glyph that is a prefix of another must appear after it, so a
	// left-to-right scanner trying operators in order never matches short.
	for i, shorter := range RelationOperators {
		for j := i + 1; j < len(RelationOperators); j++ {
			longer := RelationOperators[j]
			if strings.HasPrefix(longer, shorter) {
				t.Errorf("operator %q listed before %q which it prefixes; greedy matching would break", shorter, longer)
			}
		}
	}
}

func TestRelationOperatorsCoverOperatorNames(t *testing.T) {
	if len(RelationOperators) != len(OperatorNames) {
		t.Fatalf("RelationOperators has %d entries, OperatorNames has %d", len(RelationOperators), len(OperatorNames))
	}
	for _, glyph := range RelationOperators {
		if !IsRelationOperator(glyph) {
			t.Errorf("glyph %q in RelationOperators but not recognized by IsRelationOperator", glyph)
		}
	}
}

func TestPartitionRelIsNotARelationOperator(t *testing.T) {
	if IsRelationOperator(OpPartitionRel) {
		t.Errorf("%q relates partitions, not entities; it must not be a relationship operator", OpPartitionRel)
	}
}
