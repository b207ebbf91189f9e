package compress

import (
	"sort"
	"strconv"

	"github.com/knotlang/knot/kn/types"
)

// ancestorStrategy is inheritance flattening in the compression direction:
// when every entity of a type shares enough identical property pairs, the
// shared pairs move to a synthesized parent and the children inherit from
// it. The transform only runs when it reduces total property count, and a
// freshly created parent with no parents of its own can never close a
// cycle.
type ancestorStrategy struct{}

func (ancestorStrategy) Stage() types.ExpandStage { return types.StageInheritance }

func (ancestorStrategy) Apply(doc *types.Document, opts Options) ([]string, bool) {
	byType := make(map[string][]*types.Entity)
	for _, id := range doc.Order {
		e := doc.Entities[id]
		if e.Anonymous || doc.IsPreserved(e.ID) {
			continue
		}
		byType[e.Type] = append(byType[e.Type], e)
	}
	typeTags := make([]string, 0, len(byType))
	for t := range byType {
		typeTags = append(typeTags, t)
	}
	sort.Strings(typeTags)

	var names []string
	for _, typeTag := range typeTags {
		group := byType[typeTag]
		if len(group) < 2 {
			continue
		}
		shared := sharedProps(group, opts.MinSharedProps)
		if shared == nil {
			continue
		}
		base := types.NewEntity(typeTag, freeID(doc, "base_"+typeTag))
		base.Props = shared
		doc.AddEntity(base)
		for _, e := range group {
			for _, p := range shared {
				e.Props.Delete(p.Key)
			}
			e.Parents = append(e.Parents, base.ID)
		}
		names = append(names, base.ID)
	}
	return names, len(names) > 0
}

// sharedProps returns the property pairs carried identically by every group
// member, in the first member's order, or nil when fewer than min pairs
// qualify. Pairs any member excludes by exception stay put.
func sharedProps(group []*types.Entity, min int) types.Properties {
	var shared types.Properties
	for _, p := range group[0].Props {
		identical := true
		for _, e := range group {
			if e.IsException(p.Key) {
				identical = false
				break
			}
			v, ok := e.Props.Get(p.Key)
			if !ok || !v.Equal(p.Val) {
				identical = false
				break
			}
		}
		if identical {
			shared = append(shared, p)
		}
	}
	if len(shared) < min {
		return nil
	}
	return shared
}

func freeID(doc *types.Document, want string) string {
	if _, taken := doc.Entities[want]; !taken {
		return want
	}
	for n := 2; ; n++ {
		id := want + "_" + strconv.Itoa(n)
		if _, taken := doc.Entities[id]; !taken {
			return id
		}
	}
}
