package types

import (
	"strings"

	"github.com/knotlang/knot/sym"
)

// RelOp is a relationship operator.
type RelOp string

const (
	RelDirected      RelOp = "directed"      // ->
	RelReverse       RelOp = "reverse"       // <-
	RelBidirectional RelOp = "bidirectional" // <->
	RelUndirected    RelOp = "undirected"    // --
	RelCausal        RelOp = "causal"        // ==>
	RelProbabilistic RelOp = "probabilistic" // ~>
)

// Glyph returns the surface-syntax operator.
func (op RelOp) Glyph() string {
	if g, ok := sym.NameToOperator[string(op)]; ok {
		return g
	}
	return string(op)
}

// RelOpFromGlyph maps an operator glyph to its RelOp; ok is false for
// unrecognized glyphs.
func RelOpFromGlyph(glyph string) (RelOp, bool) {
	name, ok := sym.OperatorNames[glyph]
	if !ok {
		return "", false
	}
	return RelOp(name), true
}

// Relationship connects source entities to target entities. Relationships
// own no entities; both sides are lists of entity ids.
type Relationship struct {
	Sources  []string   `json:"sources"`
	Op       RelOp      `json:"op"`
	Targets  []string   `json:"targets"`
	Props    Properties `json:"properties,omitempty"`
	Contexts []string   `json:"contexts,omitempty"` // names of contexts this relationship is scoped to
}

// Touches reports whether the relationship references the entity id on
// either side.
func (r *Relationship) Touches(id string) bool {
	for _, s := range r.Sources {
		if s == id {
			return true
		}
	}
	for _, t := range r.Targets {
		if t == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r *Relationship) Clone() *Relationship {
	out := *r
	out.Sources = append([]string(nil), r.Sources...)
	out.Targets = append([]string(nil), r.Targets...)
	out.Props = r.Props.Clone()
	out.Contexts = append([]string(nil), r.Contexts...)
	return &out
}

func (r *Relationship) String() string {
	var b strings.Builder
	writeSide := func(ids []string) {
		if len(ids) == 1 {
			b.WriteString("#" + ids[0])
			return
		}
		b.WriteString("(")
		for i, id := range ids {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("#" + id)
		}
		b.WriteString(")")
	}
	writeSide(r.Sources)
	b.WriteString(r.Op.Glyph())
	writeSide(r.Targets)
	return b.String()
}
