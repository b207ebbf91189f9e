package parser

import (
	"sort"
	"strings"

	"github.com/knotlang/knot/kn/types"
)

// link is the second analysis pass. Every declaration is registered by now,
// so forward references resolve here. Unresolved references, inheritance
// problems, and template arity mismatches each produce one diagnostic.
func (a *analyzer) link() {
	known := make(map[string]bool, len(a.doc.Entities))
	for id := range a.doc.Entities {
		known[id] = true
	}

	for _, rel := range a.doc.Relationships {
		for _, id := range rel.Sources {
			a.checkRef(known, id, "relationship source")
		}
		for _, id := range rel.Targets {
			a.checkRef(known, id, "relationship target")
		}
		for _, p := range rel.Props {
			if p.Val.Kind == types.ValueRef {
				a.checkRef(known, p.Val.Str, "property value")
			}
		}
	}

	for _, e := range a.doc.Entities {
		for _, p := range e.Props {
			if p.Val.Kind == types.ValueRef {
				a.checkRef(known, p.Val.Str, "property value")
			}
		}
		for _, parent := range e.Parents {
			if !known[parent] {
				a.unresolved(known, parent, "parent of @"+e.Type+"{"+e.ID+"}")
			}
		}
	}

	for _, c := range a.doc.Contexts {
		for _, m := range c.Members {
			a.checkRef(known, m, "member of ["+c.Name+"]")
		}
	}

	labels := make(map[string]bool, len(a.doc.Partitions))
	for _, p := range a.doc.Partitions {
		labels[p.Label] = true
		for _, m := range p.Members {
			a.checkRef(known, m, "member of q{"+p.Label+"}")
		}
	}
	for _, pr := range a.doc.PartitionRels {
		for _, label := range []string{pr.A, pr.B} {
			if !labels[label] {
				a.diags = append(a.diags, NewDiagnostic(KindStructural,
					"partition relation names undeclared partition q{%s}", label))
			}
		}
	}

	for _, use := range a.doc.Uses {
		tpl, ok := a.doc.Templates[use.Name]
		if !ok {
			d := NewDiagnostic(KindStructural, "use of undefined template %%%s", use.Name)
			if near := nearest(use.Name, templateNames(a.doc)); near != "" {
				d.WithSuggestion("did you mean %%%s?", near)
			}
			a.diags = append(a.diags, d)
			continue
		}
		if len(use.Args) != tpl.Arity() {
			a.diags = append(a.diags, NewDiagnostic(KindStructural,
				"template %%%s expects %d arguments, got %d",
				use.Name, tpl.Arity(), len(use.Args)).
				WithSuggestion("declared as %%%s(%s)", tpl.Name, strings.Join(tpl.Params, ",")))
		}
	}

	a.checkInheritanceCycles()
}

func (a *analyzer) checkRef(known map[string]bool, id, where string) {
	if !known[id] {
		a.unresolved(known, id, where)
	}
}

func (a *analyzer) unresolved(known map[string]bool, id, where string) {
	d := NewDiagnostic(KindStructural, "unresolved reference #%s (%s)", id, where)
	ids := make([]string, 0, len(known))
	for k := range known {
		ids = append(ids, k)
	}
	if near := nearest(id, ids); near != "" {
		d.WithSuggestion("did you mean #%s?", near)
	}
	a.diags = append(a.diags, d)
}

func templateNames(doc *types.Document) []string {
	names := make([]string, 0, len(doc.Templates))
	for name := range doc.Templates {
		names = append(names, name)
	}
	return names
}

// nearest returns the candidate closest to want within edit distance 2, or
// "" when nothing is close enough. Ties break lexicographically so
// suggestions are stable across runs.
func nearest(want string, candidates []string) string {
	sort.Strings(candidates)
	best := ""
	bestDist := 3
	for _, c := range candidates {
		if c == want {
			continue
		}
		if d := levenshtein(want, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
