// Package sym defines the canonical sigils of the KNOT notation.
// These are stable across the tokenizer, generator, CLI, and documentation;
// everything that prints or matches a piece of surface syntax goes through
// this package rather than repeating string literals.
package sym

// Structural sigils — each opens one construct class.
const (
	Entity    = "@" // entity declaration: @type{id}
	Reference = "#" // reference: #id
	Inherit   = "^" // inheritance: ^parent+parent2\exception
	Directive = "$" // directive: $word{...}
	Template  = "%" // template definition/use: %name(...)
	Quantum   = "q" // quantum partition: q:kind{label}[...]
)

// Block sigils — suffixes attached to an entity.
const (
	PropertyBlock = ":p" // :p{key:value,...}
	TagBlock      = ":t" // :t{a,b}
)

// Relationship operator glyphs.
const (
	OpDirected      = "->"
	OpReverse       = "<-"
	OpBidirectional = "<->"
	OpUndirected    = "--"
	OpCausal        = "==>"
	OpProbabilistic = "~>"
	OpPartitionRel  = "><" // relation between two quantum partitions
)

// Directive names recognized by the bootstrap loader and generator.
const (
	DirectiveBootstrap = "knot"     // $knot{v1,mode:...,recovery:...}
	DirectiveExpand    = "expand"   // $expand{stage|names}
	DirectiveDict      = "dict"     // $dict{abbr=full,...}
	DirectiveChecksum  = "checksum" // $checksum{fnv1a:hex}
	DirectiveCompress  = "compress" // $compress{...} author hint
	DirectivePreserve  = "preserve" // $preserve{id,...} exempt from rewrites
)

// RelationOperators lists every relationship operator glyph, longest first so
// scanners can match greedily without backtracking ("<->" before "<-", "==>"
// before "--").
var RelationOperators = []string{
	OpBidirectional,
	OpCausal,
	OpDirected,
	OpReverse,
	OpProbabilistic,
	OpUndirected,
}

// OperatorNames maps each relationship glyph to its canonical name.
var OperatorNames = map[string]string{
	OpDirected:      "directed",
	OpReverse:       "reverse",
	OpBidirectional: "bidirectional",
	OpUndirected:    "undirected",
	OpCausal:        "causal",
	OpProbabilistic: "probabilistic",
}

// NameToOperator is the inverse of OperatorNames.
var NameToOperator = func() map[string]string {
	m := make(map[string]string, len(OperatorNames))
	for glyph, name := range OperatorNames {
		m[name] = glyph
	}
	return m
}()

// IsRelationOperator reports whether s is exactly a relationship glyph.
func IsRelationOperator(s string) bool {
	_, ok := OperatorNames[s]
	return ok
}
