package graph

import (
	"sort"
	"time"

	"github.com/knotlang/knot/kn/types"
)

// FromDocument converts a resolved document into the intermediate
// representation. Nodes keep declaration order; links, contexts, and
// partitions keep document order, so the export is deterministic.
func FromDocument(doc *types.Document) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(doc.Order)),
		Links: make([]Link, 0, len(doc.Relationships)),
		Meta: Meta{
			GeneratedAt: time.Now(),
		},
	}

	for _, id := range doc.Order {
		e := doc.Entities[id]
		g.Nodes = append(g.Nodes, Node{
			ID:         e.ID,
			Type:       e.Type,
			Label:      e.ID,
			Anonymous:  e.Anonymous,
			Properties: propsToJSON(e.Props),
			Tags:       append([]string(nil), e.Tags...),
			Parents:    append([]string(nil), e.Parents...),
			Exceptions: append([]string(nil), e.Exceptions...),
			Preserved:  doc.IsPreserved(e.ID),
		})
	}

	for _, r := range doc.Relationships {
		g.Links = append(g.Links, Link{
			Sources:    append([]string(nil), r.Sources...),
			Op:         string(r.Op),
			Targets:    append([]string(nil), r.Targets...),
			Properties: propsToJSON(r.Props),
			Contexts:   append([]string(nil), r.Contexts...),
		})
	}

	for _, c := range doc.Contexts {
		g.Contexts = append(g.Contexts, ContextInfo{
			Name:        c.Name,
			Parent:      c.Parent,
			Members:     append([]string(nil), c.Members...),
			Synthesized: c.Synthesized,
		})
	}

	for _, p := range doc.Partitions {
		info := PartitionInfo{
			Kind:        string(p.Kind),
			Label:       p.Label,
			Members:     append([]string(nil), p.Members...),
			Synthesized: p.Synthesized,
		}
		if p.Weight != nil {
			w := *p.Weight
			info.Weight = &w
		}
		g.Partitions = append(g.Partitions, info)
	}

	for _, pr := range doc.PartitionRels {
		g.PartitionLinks = append(g.PartitionLinks, PartitionLink{A: pr.A, B: pr.B})
	}

	g.Meta.Stats = Stats{
		TotalNodes:      len(g.Nodes),
		TotalLinks:      len(g.Links),
		TotalContexts:   len(g.Contexts),
		TotalPartitions: len(g.Partitions),
	}
	g.Meta.NodeTypes = collectNodeTypeInfo(g.Nodes)
	g.Meta.RelationshipTypes = collectRelationshipTypeInfo(g.Links)

	return g
}

// collectNodeTypeInfo summarizes node types present in the graph, sorted by
// type name for deterministic output.
func collectNodeTypeInfo(nodes []Node) []NodeTypeInfo {
	counts := make(map[string]int)
	for _, n := range nodes {
		counts[n.Type]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]NodeTypeInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, NodeTypeInfo{Type: name, Count: counts[name]})
	}
	return infos
}

// collectRelationshipTypeInfo summarizes relationship operators present in
// the graph, sorted by operator name.
func collectRelationshipTypeInfo(links []Link) []RelationshipTypeInfo {
	counts := make(map[string]int)
	for _, l := range links {
		counts[l.Op]++
	}

	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	infos := make([]RelationshipTypeInfo, 0, len(ops))
	for _, op := range ops {
		infos = append(infos, RelationshipTypeInfo{Op: op, Count: counts[op]})
	}
	return infos
}

// propsToJSON converts a property list into a JSON-friendly map. Numbers and
// booleans map to native JSON values; idents, strings, and references keep
// their notation form so the import side can tell them apart.
func propsToJSON(props types.Properties) map[string]interface{} {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for _, p := range props {
		switch p.Val.Kind {
		case types.ValueNumber:
			out[p.Key] = p.Val.Num
		case types.ValueBool:
			out[p.Key] = p.Val.Bool
		default:
			out[p.Key] = p.Val.Notation()
		}
	}
	return out
}
