package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/sym"
)

// Render serializes a document to notation text. Rendering is deterministic:
// the same document always produces byte-identical output. Order is
// bootstrap header, expansion plan, dictionary, checksum, preserve list,
// template definitions, entities in stable topological inheritance order,
// template uses, relationships, contexts, partitions.
//
// Rendering adds and removes nothing; a document that carries compression
// metadata renders in compressed form, an expanded document renders fully
// spelled out.
func Render(doc *types.Document) string {
	var b strings.Builder
	r := renderer{doc: doc, b: &b}
	r.header()
	r.templates()
	r.entities()
	r.uses()
	r.relationships()
	r.contexts()
	r.partitions()
	return b.String()
}

type renderer struct {
	doc *types.Document
	b   *strings.Builder
}

func (r *renderer) line(format string, args ...interface{}) {
	fmt.Fprintf(r.b, format, args...)
	r.b.WriteByte('\n')
}

func (r *renderer) header() {
	d := r.doc
	if d.Bootstrap != nil {
		recovery := "false"
		if d.Bootstrap.Recovery {
			recovery = "true"
		}
		r.line("$%s{%s,mode:%s,recovery:%s}",
			sym.DirectiveBootstrap, d.Bootstrap.Version, d.Bootstrap.Mode, recovery)
	}
	for _, step := range d.ExpandPlan {
		if len(step.Names) == 0 {
			r.line("$%s{%s}", sym.DirectiveExpand, step.Stage)
		} else {
			r.line("$%s{%s|%s}", sym.DirectiveExpand, step.Stage, strings.Join(step.Names, ","))
		}
	}
	if d.Dict != nil && d.Dict.Len() > 0 {
		pairs := make([]string, 0, d.Dict.Len())
		for _, e := range d.Dict.Entries() {
			pairs = append(pairs, e.Abbr+"="+e.Full)
		}
		r.line("$%s{v%d|%s}", sym.DirectiveDict, d.Dict.Version(), strings.Join(pairs, ","))
	}
	if d.Checksum != "" {
		r.line("$%s{fnv1a:%s}", sym.DirectiveChecksum, d.Checksum)
	}
	if len(d.Preserve) > 0 {
		refs := make([]string, len(d.Preserve))
		for i, id := range d.Preserve {
			refs[i] = "#" + id
		}
		r.line("$%s{%s}", sym.DirectivePreserve, strings.Join(refs, ","))
	}
}

func (r *renderer) templates() {
	for _, name := range r.doc.TemplateOrder {
		t := r.doc.Templates[name]
		r.line("%%%s(%s){%s}", t.Name, strings.Join(t.Params, ","), t.Body)
	}
}

func (r *renderer) entities() {
	for _, id := range topoOrder(r.doc) {
		r.line("%s", EntityNotation(r.doc.Entities[id]))
	}
}

func (r *renderer) uses() {
	for _, u := range r.doc.Uses {
		if u.Context != "" {
			continue // rendered inside its context block
		}
		r.line("%%%s(%s)", u.Name, strings.Join(u.Args, ","))
	}
}

func (r *renderer) relationships() {
	for _, rel := range r.doc.Relationships {
		if len(rel.Contexts) > 0 {
			continue // rendered inside its context block
		}
		r.line("%s", RelationshipNotation(rel))
	}
}

// contexts renders top-level contexts with their children nested, restoring
// the [parent]{... [child]{...}} shape.
func (r *renderer) contexts() {
	children := make(map[string][]*types.Context)
	for _, c := range r.doc.Contexts {
		children[c.Parent] = append(children[c.Parent], c)
	}
	for _, c := range children[""] {
		r.line("%s", r.contextNotation(c, children))
	}
}

func (r *renderer) contextNotation(c *types.Context, children map[string][]*types.Context) string {
	var parts []string
	for _, m := range c.Members {
		if r.memberDeclaredInChild(c, m, children) {
			continue
		}
		parts = append(parts, "#"+m)
	}
	for _, rel := range r.doc.Relationships {
		if len(rel.Contexts) > 0 && rel.Contexts[0] == c.Name {
			parts = append(parts, RelationshipNotation(rel))
		}
	}
	for _, u := range r.doc.Uses {
		if u.Context == c.Name {
			parts = append(parts, "%"+u.Name+"("+strings.Join(u.Args, ",")+")")
		}
	}
	for _, child := range children[c.Name] {
		parts = append(parts, r.contextNotation(child, children))
	}
	return "[" + c.Name + "]{" + strings.Join(parts, " ") + "}"
}

// memberDeclaredInChild suppresses a parent-level #ref when a nested child
// context already names the member, so re-parsing does not widen membership.
// Parsing [p]{[c]{#x}} adds x to both p and c, which matches the stored
// membership, so the parent ref would be redundant.
func (r *renderer) memberDeclaredInChild(c *types.Context, id string, children map[string][]*types.Context) bool {
	for _, child := range children[c.Name] {
		if child.HasMember(id) || r.memberDeclaredInChild(child, id, children) {
			return true
		}
	}
	return false
}

func (r *renderer) partitions() {
	for _, p := range r.doc.Partitions {
		var b strings.Builder
		b.WriteString("q")
		if p.Kind != types.BoundaryCoherence {
			b.WriteString(":")
			b.WriteString(string(p.Kind))
		}
		b.WriteString("{" + p.Label + "}")
		if p.Weight != nil {
			fmt.Fprintf(&b, "(%g)", *p.Weight)
		}
		if len(p.Members) > 0 {
			refs := make([]string, len(p.Members))
			for i, m := range p.Members {
				refs[i] = "#" + m
			}
			b.WriteString("[" + strings.Join(refs, ",") + "]")
		}
		r.line("%s", b.String())
	}
	for _, pr := range r.doc.PartitionRels {
		r.line("q{%s} %s q{%s}", pr.A, sym.OpPartitionRel, pr.B)
	}
}

// EntityNotation renders one entity declaration with its property, tag, and
// inheritance suffixes.
func EntityNotation(e *types.Entity) string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(e.Type)
	if !e.Anonymous {
		b.WriteString("{" + e.ID + "}")
	}
	b.WriteString(PropsNotation(e.Props))
	if len(e.Tags) > 0 {
		b.WriteString(":t{" + strings.Join(e.Tags, ",") + "}")
	}
	if len(e.Parents) > 0 {
		b.WriteString("^" + strings.Join(e.Parents, "+"))
		for _, x := range e.Exceptions {
			b.WriteString("\\" + x)
		}
	}
	return b.String()
}

// PropsNotation renders a :p{...} suffix, or "" for an empty property list.
func PropsNotation(props types.Properties) string {
	if len(props) == 0 {
		return ""
	}
	pairs := make([]string, len(props))
	for i, p := range props {
		pairs[i] = p.Key + ":" + p.Val.Notation()
	}
	return ":p{" + strings.Join(pairs, ",") + "}"
}

// RelationshipNotation renders one relationship statement.
func RelationshipNotation(rel *types.Relationship) string {
	var b strings.Builder
	b.WriteString(refsNotation(rel.Sources))
	b.WriteString(" " + rel.Op.Glyph() + " ")
	b.WriteString(refsNotation(rel.Targets))
	if len(rel.Props) > 0 {
		b.WriteString(" " + PropsNotation(rel.Props))
	}
	return b.String()
}

func refsNotation(ids []string) string {
	if len(ids) == 1 {
		return "#" + ids[0]
	}
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = "#" + id
	}
	return "(" + strings.Join(refs, ",") + ")"
}

// topoOrder returns entity ids with parents before children, stable with
// respect to declaration order. Ids left over by an inheritance cycle are
// appended in declaration order so rendering still covers every entity.
func topoOrder(doc *types.Document) []string {
	indeg := make(map[string]int, len(doc.Entities))
	dependents := make(map[string][]string, len(doc.Entities))
	for _, id := range doc.Order {
		e := doc.Entities[id]
		for _, parent := range e.Parents {
			if _, ok := doc.Entities[parent]; ok {
				indeg[id]++
				dependents[parent] = append(dependents[parent], id)
			}
		}
	}

	pos := make(map[string]int, len(doc.Order))
	for i, id := range doc.Order {
		pos[id] = i
	}

	var ready []string
	for _, id := range doc.Order {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(doc.Order))
	emitted := make(map[string]bool, len(doc.Order))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return pos[ready[i]] < pos[ready[j]] })
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		emitted[id] = true
		for _, dep := range dependents[id] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	for _, id := range doc.Order {
		if !emitted[id] {
			out = append(out, id)
		}
	}
	return out
}
