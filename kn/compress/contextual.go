package compress

import (
	"strconv"

	"github.com/knotlang/knot/kn/types"
)

// contextualStrategy wraps entities whose property-key sets overlap above
// the similarity threshold into a synthesized context, so related entities
// travel together as one labeled group. Clustering is greedy over seeds in
// declaration order; each entity joins at most one synthesized group.
type contextualStrategy struct{}

func (contextualStrategy) Stage() types.ExpandStage { return types.StageContexts }

func (contextualStrategy) Apply(doc *types.Document, opts Options) ([]string, bool) {
	grouped := make(map[string]bool)
	for _, c := range doc.Contexts {
		if c.Synthesized {
			for _, m := range c.Members {
				grouped[m] = true
			}
		}
	}

	var candidates []string
	keysets := make(map[string]map[string]bool)
	for _, id := range doc.Order {
		e := doc.Entities[id]
		if e.Anonymous || doc.IsPreserved(id) || grouped[id] || len(e.Props) == 0 {
			continue
		}
		set := make(map[string]bool, len(e.Props))
		for _, p := range e.Props {
			set[p.Key] = true
		}
		candidates = append(candidates, id)
		keysets[id] = set
	}

	var names []string
	used := make(map[string]bool)
	for i, seed := range candidates {
		if used[seed] {
			continue
		}
		cluster := []string{seed}
		for _, other := range candidates[i+1:] {
			if !used[other] && jaccard(keysets[seed], keysets[other]) >= opts.Similarity {
				cluster = append(cluster, other)
			}
		}
		if len(cluster) < opts.MinClusterSize {
			continue
		}
		for _, id := range cluster {
			used[id] = true
		}
		name := freeContextName(doc, "grp_"+seed)
		doc.Contexts = append(doc.Contexts, &types.Context{
			Name:        name,
			Members:     cluster,
			Synthesized: true,
		})
		names = append(names, name)
	}
	return names, len(names) > 0
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func freeContextName(doc *types.Document, want string) string {
	taken := func(name string) bool {
		for _, c := range doc.Contexts {
			if c.Name == name {
				return true
			}
		}
		return false
	}
	if !taken(want) {
		return want
	}
	for n := 2; ; n++ {
		name := want + "_" + strconv.Itoa(n)
		if !taken(name) {
			return name
		}
	}
}
