package validate

import (
	"encoding/hex"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/knotlang/knot/kn/generate"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

// Check runs the structural invariants over a document: every reference
// resolves, inheritance forms a DAG, and template instantiations match
// declared arity. It returns one diagnostic per violation.
func Check(doc *types.Document) parser.Diagnostics {
	var diags parser.Diagnostics
	diags = append(diags, checkReferences(doc)...)
	diags = append(diags, checkInheritance(doc)...)
	diags = append(diags, checkArity(doc)...)
	return diags
}

func checkReferences(doc *types.Document) parser.Diagnostics {
	var diags parser.Diagnostics
	report := func(id, where string) {
		if _, ok := doc.Entities[id]; !ok {
			diags = append(diags, parser.NewDiagnostic(parser.KindStructural,
				"unresolved reference #%s (%s)", id, where))
		}
	}
	for _, rel := range doc.Relationships {
		for _, id := range rel.Sources {
			report(id, "relationship source")
		}
		for _, id := range rel.Targets {
			report(id, "relationship target")
		}
	}
	for _, id := range doc.Order {
		e := doc.Entities[id]
		for _, parent := range e.Parents {
			report(parent, "parent of @"+e.Type+"{"+e.ID+"}")
		}
		for _, p := range e.Props {
			if p.Val.Kind == types.ValueRef {
				report(p.Val.Str, "property value")
			}
		}
	}
	for _, c := range doc.Contexts {
		for _, m := range c.Members {
			report(m, "member of ["+c.Name+"]")
		}
	}
	for _, p := range doc.Partitions {
		for _, m := range p.Members {
			report(m, "member of q{"+p.Label+"}")
		}
	}
	return diags
}

func checkInheritance(doc *types.Document) parser.Diagnostics {
	var diags parser.Diagnostics
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(doc.Entities))
	var stack []string
	var visit func(id string)
	visit = func(id string) {
		state[id] = inStack
		stack = append(stack, id)
		if e, ok := doc.Entities[id]; ok {
			for _, parent := range e.Parents {
				switch state[parent] {
				case unvisited:
					if _, exists := doc.Entities[parent]; exists {
						visit(parent)
					}
				case inStack:
					start := 0
					for i, sid := range stack {
						if sid == parent {
							start = i
							break
						}
					}
					cycle := append(append([]string{}, stack[start:]...), parent)
					diags = append(diags, parser.NewDiagnostic(parser.KindStructural,
						"inheritance cycle: %s", strings.Join(cycle, " ^ ")))
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}
	for _, id := range doc.SortedEntityIDs() {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return diags
}

func checkArity(doc *types.Document) parser.Diagnostics {
	var diags parser.Diagnostics
	for _, use := range doc.Uses {
		tpl, ok := doc.Templates[use.Name]
		if !ok {
			diags = append(diags, parser.NewDiagnostic(parser.KindStructural,
				"use of undefined template %%%s", use.Name))
			continue
		}
		if len(use.Args) != tpl.Arity() {
			diags = append(diags, parser.NewDiagnostic(parser.KindStructural,
				"template %%%s expects %d arguments, got %d",
				use.Name, tpl.Arity(), len(use.Args)))
		}
	}
	return diags
}

// Canonicalize returns a copy of the document in canonical form: metadata
// stripped, anonymous ids renumbered by content, entities and every
// unordered collection sorted. Two semantically equal documents canonicalize
// to byte-identical renderings regardless of declaration order.
func Canonicalize(doc *types.Document) *types.Document {
	out := doc.Clone()
	out.Bootstrap = nil
	out.Dict = nil
	out.ExpandPlan = nil
	out.Checksum = ""
	sort.Strings(out.Preserve)

	renumberAnonymous(out)

	sort.Strings(out.Order)
	for _, e := range out.Entities {
		sort.SliceStable(e.Props, func(i, j int) bool { return e.Props[i].Key < e.Props[j].Key })
		sort.Strings(e.Parents)
		sort.Strings(e.Exceptions)
	}
	for _, r := range out.Relationships {
		sort.Strings(r.Sources)
		sort.Strings(r.Targets)
		sort.SliceStable(r.Props, func(i, j int) bool { return r.Props[i].Key < r.Props[j].Key })
		sort.Strings(r.Contexts)
	}
	sort.SliceStable(out.Relationships, func(i, j int) bool {
		return generate.RelationshipNotation(out.Relationships[i]) < generate.RelationshipNotation(out.Relationships[j])
	})
	for _, c := range out.Contexts {
		sort.Strings(c.Members)
	}
	sort.SliceStable(out.Contexts, func(i, j int) bool { return out.Contexts[i].Name < out.Contexts[j].Name })
	for _, p := range out.Partitions {
		sort.Strings(p.Members)
	}
	sort.SliceStable(out.Partitions, func(i, j int) bool { return out.Partitions[i].Label < out.Partitions[j].Label })
	sort.SliceStable(out.PartitionRels, func(i, j int) bool {
		a, b := out.PartitionRels[i], out.PartitionRels[j]
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})
	sort.Strings(out.TemplateOrder)
	sort.SliceStable(out.Uses, func(i, j int) bool {
		a, b := out.Uses[i], out.Uses[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return strings.Join(a.Args, ",") < strings.Join(b.Args, ",")
	})
	return out
}

// renumberAnonymous reassigns synthetic ids in content order so documents
// parsed at different times compare equal. Ids are only cosmetic for
// anonymous entities; nothing can reference them by hand.
func renumberAnonymous(doc *types.Document) {
	var anons []string
	for _, id := range doc.Order {
		if doc.Entities[id].Anonymous {
			anons = append(anons, id)
		}
	}
	if len(anons) == 0 {
		return
	}
	body := func(id string) string {
		e := doc.Entities[id].Clone()
		e.ID = ""
		sort.SliceStable(e.Props, func(i, j int) bool { return e.Props[i].Key < e.Props[j].Key })
		return generate.EntityNotation(e)
	}
	sort.SliceStable(anons, func(i, j int) bool { return body(anons[i]) < body(anons[j]) })
	for i, id := range anons {
		doc.RenameEntity(id, "\x00anon-"+strconv.Itoa(i))
	}
	for i := range anons {
		doc.RenameEntity("\x00anon-"+strconv.Itoa(i), types.SyntheticIDPrefix+strconv.Itoa(i+1))
	}
}

// Fingerprint returns the hex FNV-1a hash of the canonical rendering. This
// is the value embedded by $checksum and compared after decompression.
func Fingerprint(doc *types.Document) string {
	h := fnv.New64a()
	h.Write([]byte(generate.Render(Canonicalize(doc))))
	return hex.EncodeToString(h.Sum(nil))
}

// Equal reports canonical equality of two documents: same entities with
// equal properties, same relationships, same context and partition
// membership, ordering ignored.
func Equal(a, b *types.Document) bool {
	return Fingerprint(a) == Fingerprint(b)
}
