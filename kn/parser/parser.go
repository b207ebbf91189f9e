package parser

import "github.com/knotlang/knot/kn/types"

// Parse runs lexical scanning and structural analysis over a source string.
// Lexical diagnostics are merged ahead of structural ones so they read in
// source order.
func Parse(src string) *Result {
	tokens, lexDiags := Scan(src)
	res := Analyze(tokens)
	res.Diags = append(lexDiags, res.Diags...)
	return res
}

// ParseFragment parses a graph fragment without the linking pass. Template
// bodies legitimately reference entities and templates declared outside the
// fragment, so resolution is the caller's business after merging.
func ParseFragment(src string) *Result {
	tokens, lexDiags := Scan(src)
	a := &analyzer{doc: types.NewDocument()}
	a.collect(tokens, "")
	return &Result{Doc: a.doc, Diags: append(lexDiags, a.diags...)}
}
