package compress

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/knotlang/knot/kn/types"
)

// templateStrategy hoists repeated entity shapes into parameterized
// templates. Shape equality is structural up to argument substitution:
// same type, same property keys in order, same tags. Property values equal
// across every occurrence stay literal in the body; varying values become
// positional parameters in first-occurrence order, after the id.
type templateStrategy struct{}

func (templateStrategy) Stage() types.ExpandStage { return types.StageTemplates }

func (templateStrategy) Apply(doc *types.Document, opts Options) ([]string, bool) {
	groups := make(map[uint64][]*types.Entity)
	var order []uint64
	for _, id := range doc.Order {
		e := doc.Entities[id]
		if e.Anonymous || doc.IsPreserved(e.ID) {
			continue
		}
		// Entities with inheritance or untyped values complicate the body;
		// leave them to the other strategies.
		if len(e.Parents) > 0 || len(e.Props) == 0 {
			continue
		}
		h := shapeHash(e)
		if _, seen := groups[h]; !seen {
			order = append(order, h)
		}
		groups[h] = append(groups[h], e)
	}

	var names []string
	for _, h := range order {
		group := groups[h]
		if len(group) < opts.MinPatternUses {
			continue
		}
		name := hoist(doc, group)
		names = append(names, name)
	}
	return names, len(names) > 0
}

// shapeHash is the canonical FNV-1a fragment hash: type, ordered property
// keys with value kinds, and tags.
func shapeHash(e *types.Entity) uint64 {
	h := fnv.New64a()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(e.Type)
	for _, p := range e.Props {
		write(p.Key)
		write(strconv.Itoa(int(p.Val.Kind)))
	}
	for _, t := range e.Tags {
		write(t)
	}
	return h.Sum64()
}

// hoist replaces every group member with a template use. The body keeps
// constant values literal; varying positions read from parameters named
// _id, _v1, _v2, ... which cannot collide with notation identifiers the
// strategy itself emits.
func hoist(doc *types.Document, group []*types.Entity) string {
	first := group[0]
	params := []string{"_id"}
	varying := make([]bool, len(first.Props))
	for i, p := range first.Props {
		for _, e := range group[1:] {
			v, _ := e.Props.Get(p.Key)
			if !v.Equal(p.Val) {
				varying[i] = true
				break
			}
		}
		if varying[i] {
			params = append(params, "_v"+strconv.Itoa(i+1))
		}
	}

	var b strings.Builder
	b.WriteString("@" + first.Type + "{_id}")
	b.WriteString(":p{")
	pairs := make([]string, len(first.Props))
	for i, p := range first.Props {
		if varying[i] {
			pairs[i] = p.Key + ":_v" + strconv.Itoa(i+1)
		} else {
			pairs[i] = p.Key + ":" + p.Val.Notation()
		}
	}
	b.WriteString(strings.Join(pairs, ","))
	b.WriteString("}")
	if len(first.Tags) > 0 {
		b.WriteString(":t{" + strings.Join(first.Tags, ",") + "}")
	}

	name := freeTemplateName(doc, "tpl_"+first.Type)
	doc.AddTemplate(&types.Template{
		Name:        name,
		Params:      params,
		Body:        b.String(),
		Synthesized: true,
	})
	for _, e := range group {
		args := []string{e.ID}
		for i, p := range first.Props {
			if !varying[i] {
				continue
			}
			v, _ := e.Props.Get(p.Key)
			args = append(args, v.Notation())
		}
		doc.Uses = append(doc.Uses, &types.TemplateUse{Name: name, Args: args})
		doc.RemoveEntity(e.ID)
	}
	return name
}

func freeTemplateName(doc *types.Document, want string) string {
	if _, taken := doc.Templates[want]; !taken {
		return want
	}
	for n := 2; ; n++ {
		name := want + "_" + strconv.Itoa(n)
		if _, taken := doc.Templates[name]; !taken {
			return name
		}
	}
}
