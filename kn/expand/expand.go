package expand

import (
	"strconv"
	"strings"

	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/generate"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

// DefaultMaxDepth bounds template instantiation so self-referential
// templates terminate with an error instead of hanging.
const DefaultMaxDepth = 32

// Expander reverses compression transforms one stage at a time. Each stage
// mutates the document in place; callers clone first when they need the
// compressed form afterwards.
type Expander struct {
	MaxDepth int
}

// New returns an expander with the default depth bound.
func New() *Expander {
	return &Expander{MaxDepth: DefaultMaxDepth}
}

// Stage runs one expansion step.
func (x *Expander) Stage(doc *types.Document, step types.ExpandStep) error {
	switch step.Stage {
	case types.StageDictionary:
		return x.Dictionary(doc)
	case types.StageTemplates:
		return x.Templates(doc, step.Names)
	case types.StageInheritance:
		x.Inheritance(doc, step.Names)
	case types.StageContexts:
		x.Contexts(doc, step.Names)
	case types.StagePartitions:
		x.Partitions(doc, step.Names)
	default:
		return errors.NewInvalidInputError("unknown expansion stage %q", string(step.Stage))
	}
	return nil
}

// All runs every expansion stage in fixed order, following the document's
// embedded plan when present. On success the document carries no
// compression metadata besides its checksum, which the caller verifies.
func (x *Expander) All(doc *types.Document) error {
	names := make(map[types.ExpandStage][]string, len(doc.ExpandPlan))
	for _, step := range doc.ExpandPlan {
		names[step.Stage] = append(names[step.Stage], step.Names...)
	}
	for _, stage := range types.StageOrder {
		if err := x.Stage(doc, types.ExpandStep{Stage: stage, Names: names[stage]}); err != nil {
			return err
		}
	}
	doc.Bootstrap = nil
	doc.ExpandPlan = nil
	return nil
}

// Dictionary substitutes every abbreviation back to its full term: entity
// types and ids, property keys and values, tags, and the bodies and use
// arguments of synthesized templates. The embedded table is dropped
// afterwards.
func (x *Expander) Dictionary(doc *types.Document) error {
	dict := doc.Dict
	if dict == nil {
		return nil
	}
	expandTerms(doc, dict)

	// Synthesized templates were hoisted from entities that had already been
	// abbreviated, so their bodies and use arguments carry abbreviations too.
	// Author templates never do; their text stays literal. After a reparse
	// the in-memory flag is gone and the expansion plan is the record of
	// which templates the compressor synthesized.
	synthesized := make(map[string]bool)
	for _, step := range doc.ExpandPlan {
		if step.Stage == types.StageTemplates {
			for _, n := range step.Names {
				synthesized[n] = true
			}
		}
	}
	for _, name := range doc.TemplateOrder {
		t := doc.Templates[name]
		if t.Synthesized || synthesized[name] {
			t.Body = expandBodyTerms(t.Body, dict)
		}
	}
	for _, u := range doc.Uses {
		t, ok := doc.Templates[u.Name]
		if !ok || !(t.Synthesized || synthesized[u.Name]) {
			continue
		}
		for i, arg := range u.Args {
			u.Args[i] = expandArgTerm(arg, dict)
		}
	}
	doc.Dict = nil
	return nil
}

// expandTerms rewrites abbreviations across a document's entities and
// relationships. Safe on template fragments; their preserve list is empty.
func expandTerms(doc *types.Document, dict *types.Dictionary) {
	expandProps := func(props types.Properties) {
		for i, p := range props {
			if full, ok := dict.Expand(p.Key); ok {
				props[i].Key = full
			}
			v := p.Val
			if (v.Kind == types.ValueIdent || v.Kind == types.ValueString) && v.Str != "" {
				if full, ok := dict.Expand(v.Str); ok {
					props[i].Val.Str = full
				}
			}
		}
	}
	for _, id := range doc.SortedEntityIDs() {
		e := doc.Entities[id]
		if doc.IsPreserved(id) {
			// Preserved entities were never abbreviated.
			continue
		}
		if full, ok := dict.Expand(e.Type); ok {
			e.Type = full
		}
		expandProps(e.Props)
		for _, tag := range append([]string(nil), e.Tags...) {
			if full, ok := dict.Expand(tag); ok {
				e.RemoveTag(tag)
				e.AddTag(full)
			}
		}
	}
	for _, r := range doc.Relationships {
		expandProps(r.Props)
	}
	// Id renames run last so reference rewriting sees the final shapes. The
	// rename goes through temporary ids because a full term may itself be
	// another entity's current abbreviated id.
	var renames [][2]string
	for i, id := range doc.SortedEntityIDs() {
		if doc.IsPreserved(id) {
			continue
		}
		if full, ok := dict.Expand(id); ok {
			tmp := "\x00rename-" + strconv.Itoa(i)
			doc.RenameEntity(id, tmp)
			renames = append(renames, [2]string{tmp, full})
		}
	}
	for _, r := range renames {
		doc.RenameEntity(r[0], r[1])
	}
}

// expandBodyTerms re-parses a synthesized template body and expands every
// dictionary term inside it. Parameter names cannot collide with the table:
// synthesized parameters start with an underscore and abbreviations never
// contain one.
func expandBodyTerms(body string, dict *types.Dictionary) string {
	res := parser.ParseFragment(body)
	if res.Diags.HasErrors() {
		return body
	}
	frag := res.Doc
	expandTerms(frag, dict)
	parts := make([]string, 0, len(frag.Order)+len(frag.Relationships))
	for _, id := range frag.Order {
		parts = append(parts, generate.EntityNotation(frag.Entities[id]))
	}
	for _, r := range frag.Relationships {
		parts = append(parts, generate.RelationshipNotation(r))
	}
	return strings.Join(parts, "\n")
}

// expandArgTerm expands a single use argument. Arguments are value
// notation, so idents, quoted strings, and references can carry
// abbreviations; numbers and booleans cannot.
func expandArgTerm(arg string, dict *types.Dictionary) string {
	v := types.ParseValue(arg)
	switch v.Kind {
	case types.ValueIdent, types.ValueString, types.ValueRef:
		if full, ok := dict.Expand(v.Str); ok {
			v.Str = full
			return v.Notation()
		}
	}
	return arg
}

// Templates instantiates every pending template use: the body is parsed as
// a fragment, arguments are bound structurally, and the result is merged
// into the host document. Nested uses inside bodies are queued for the next
// round; more than MaxDepth rounds is a fatal error.
// Synthesized template definitions named in the plan are removed once no
// uses remain.
func (x *Expander) Templates(doc *types.Document, names []string) error {
	depth := 0
	for len(doc.Uses) > 0 {
		depth++
		if depth > x.MaxDepth {
			return errors.Wrapf(errors.ErrExpansionDepthExceeded,
				"template expansion did not settle after %d rounds", x.MaxDepth)
		}
		uses := doc.Uses
		doc.Uses = nil
		for _, use := range uses {
			if err := x.instantiate(doc, use); err != nil {
				return err
			}
		}
	}
	for _, name := range names {
		doc.RemoveTemplate(name)
	}
	for _, name := range append([]string(nil), doc.TemplateOrder...) {
		if t, ok := doc.Templates[name]; ok && t.Synthesized {
			doc.RemoveTemplate(name)
		}
	}
	return nil
}

func (x *Expander) instantiate(doc *types.Document, use *types.TemplateUse) error {
	tpl, ok := doc.Templates[use.Name]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "template %%%s is used but never defined", use.Name)
	}
	if len(use.Args) != tpl.Arity() {
		return errors.NewInvalidInputError(
			"template %%%s expects %d arguments, got %d", use.Name, tpl.Arity(), len(use.Args))
	}
	// Fragments are parsed without the linking pass: their references
	// resolve against the host document after merging, and nested uses are
	// checked when their own instantiation round comes up.
	res := parser.ParseFragment(tpl.Body)
	if res.Diags.HasErrors() {
		return errors.NewInvalidInputError(
			"template %%%s body failed to parse: %s",
			use.Name, strings.Join(res.Diags.Messages(), "; "))
	}
	frag := res.Doc
	for i, param := range tpl.Params {
		bindParam(frag, param, use.Args[i])
	}
	merge(doc, frag, use.Context)
	return nil
}

// bindParam substitutes one parameter across the fragment's argument
// positions: entity ids and types, property values, tags, inheritance
// parents, reference endpoints, grouping members, and nested use arguments.
// Property keys and body idents that merely spell the same word stay
// literal.
func bindParam(frag *types.Document, param, arg string) {
	if param == "" || param == arg {
		return
	}
	val := types.ParseValue(arg)
	ident := val.Text()

	for _, id := range append([]string(nil), frag.Order...) {
		e := frag.Entities[id]
		if e.Type == param {
			e.Type = ident
		}
		for i, p := range e.Props {
			if p.Val.Kind == types.ValueIdent && p.Val.Str == param {
				e.Props[i].Val = val
			}
		}
		for _, tag := range append([]string(nil), e.Tags...) {
			if tag == param {
				e.RemoveTag(tag)
				e.AddTag(ident)
			}
		}
	}
	for _, r := range frag.Relationships {
		for i, p := range r.Props {
			if p.Val.Kind == types.ValueIdent && p.Val.Str == param {
				r.Props[i].Val = val
			}
		}
	}
	for _, u := range frag.Uses {
		for i, a := range u.Args {
			if a == param {
				u.Args[i] = arg
			}
		}
	}

	if _, declared := frag.Entities[param]; declared {
		// The rename rewrites endpoints, parents, members, and
		// reference-valued properties along with the id.
		frag.RenameEntity(param, ident)
		return
	}
	// The parameter may still appear as a reference to an entity the host
	// document declares.
	rename := func(ids []string) {
		for i, id := range ids {
			if id == param {
				ids[i] = ident
			}
		}
	}
	renameRefProps := func(props types.Properties) {
		for i, p := range props {
			if p.Val.Kind == types.ValueRef && p.Val.Str == param {
				props[i].Val.Str = ident
			}
		}
	}
	for _, e := range frag.Entities {
		rename(e.Parents)
		renameRefProps(e.Props)
	}
	for _, r := range frag.Relationships {
		rename(r.Sources)
		rename(r.Targets)
		renameRefProps(r.Props)
	}
	for _, c := range frag.Contexts {
		rename(c.Members)
	}
	for _, p := range frag.Partitions {
		rename(p.Members)
	}
}

// merge folds an instantiated fragment into the host document. Duplicate
// entity ids keep the host's copy; the fragment's version is discarded.
func merge(doc, frag *types.Document, ctxName string) {
	for _, id := range frag.Order {
		e := frag.Entities[id]
		if !doc.AddEntity(e) && e.Anonymous {
			// Each fragment numbers its anonymous entities from one, so a
			// collision with the host only needs a fresh synthetic id.
			e.ID = freeSyntheticID(doc)
			doc.AddEntity(e)
		}
		if _, ok := doc.Entities[e.ID]; ok && ctxName != "" {
			addContextMember(doc, ctxName, e.ID)
		}
	}
	for _, r := range frag.Relationships {
		if ctxName != "" && len(r.Contexts) == 0 {
			r.Contexts = []string{ctxName}
		}
		doc.Relationships = append(doc.Relationships, r)
	}
	for _, c := range frag.Contexts {
		doc.Contexts = append(doc.Contexts, c)
	}
	for _, p := range frag.Partitions {
		doc.Partitions = append(doc.Partitions, p)
	}
	doc.PartitionRels = append(doc.PartitionRels, frag.PartitionRels...)
	for _, name := range frag.TemplateOrder {
		doc.AddTemplate(frag.Templates[name])
	}
	for _, u := range frag.Uses {
		if u.Context == "" {
			u.Context = ctxName
		}
		doc.Uses = append(doc.Uses, u)
	}
}

func freeSyntheticID(doc *types.Document) string {
	for n := 1; ; n++ {
		id := types.SyntheticIDPrefix + strconv.Itoa(n)
		if _, taken := doc.Entities[id]; !taken {
			return id
		}
	}
}

func addContextMember(doc *types.Document, ctxName, id string) {
	for _, c := range doc.Contexts {
		if c.Name == ctxName {
			c.AddMember(id)
			return
		}
	}
}

// Inheritance merges the properties of each synthesized parent back onto
// its children, child properties winning on key collision and exception
// keys skipped, then removes the parent entirely. Author-declared
// inheritance is untouched.
func (x *Expander) Inheritance(doc *types.Document, names []string) {
	for _, base := range names {
		parent, ok := doc.Entities[base]
		if !ok {
			continue
		}
		for _, id := range doc.Order {
			child := doc.Entities[id]
			if !child.InheritsFrom(base) {
				continue
			}
			for _, p := range parent.Props {
				if child.Props.Has(p.Key) || child.IsException(p.Key) {
					continue
				}
				child.Props.Set(p.Key, p.Val)
			}
			for i, pid := range child.Parents {
				if pid == base {
					child.Parents = append(child.Parents[:i], child.Parents[i+1:]...)
					break
				}
			}
		}
		doc.RemoveEntity(base)
	}
}

// Contexts dissolves synthesized grouping contexts. Members keep existing;
// only the label goes away.
func (x *Expander) Contexts(doc *types.Document, names []string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := doc.Contexts[:0]
	for _, c := range doc.Contexts {
		if drop[c.Name] || c.Synthesized {
			continue
		}
		kept = append(kept, c)
	}
	doc.Contexts = kept
	for _, r := range doc.Relationships {
		keptCtx := r.Contexts[:0]
		for _, name := range r.Contexts {
			if !drop[name] {
				keptCtx = append(keptCtx, name)
			}
		}
		r.Contexts = keptCtx
	}
}

// Partitions dissolves synthesized coherence partitions and any partition
// relations that named them.
func (x *Expander) Partitions(doc *types.Document, names []string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := doc.Partitions[:0]
	for _, p := range doc.Partitions {
		if drop[p.Label] || p.Synthesized {
			continue
		}
		kept = append(kept, p)
	}
	doc.Partitions = kept
	keptRels := doc.PartitionRels[:0]
	for _, pr := range doc.PartitionRels {
		if !drop[pr.A] && !drop[pr.B] {
			keptRels = append(keptRels, pr)
		}
	}
	doc.PartitionRels = keptRels
}
