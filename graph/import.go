package graph

import (
	"fmt"
	"sort"

	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/sym"
)

// ToDocument converts the intermediate representation back into a document.
// Every link endpoint, context member, and partition member must name a node
// present in the graph; a dangling id is an error.
func (g *Graph) ToDocument() (*types.Document, error) {
	doc := types.NewDocument()

	for _, n := range g.Nodes {
		e := types.NewEntity(n.Type, n.ID)
		e.Anonymous = n.Anonymous
		e.Props = propsFromJSON(n.Properties)
		e.Tags = append([]string(nil), n.Tags...)
		e.Parents = append([]string(nil), n.Parents...)
		e.Exceptions = append([]string(nil), n.Exceptions...)
		if !doc.AddEntity(e) {
			return nil, errors.NewInvalidInputError("duplicate node id %q", n.ID)
		}
		if n.Preserved {
			doc.Preserve = append(doc.Preserve, n.ID)
		}
	}

	checkMembers := func(where string, ids []string) error {
		for _, id := range ids {
			if _, ok := doc.Entity(id); !ok {
				return errors.Wrapf(errors.ErrUnresolvedReference, "%s names unknown node %q", where, id)
			}
		}
		return nil
	}

	for i, l := range g.Links {
		op := types.RelOp(l.Op)
		if _, ok := sym.NameToOperator[l.Op]; !ok {
			return nil, errors.NewInvalidInputError("link %d has unknown operator %q", i, l.Op)
		}
		if err := checkMembers(fmt.Sprintf("link %d", i), l.Sources); err != nil {
			return nil, err
		}
		if err := checkMembers(fmt.Sprintf("link %d", i), l.Targets); err != nil {
			return nil, err
		}
		doc.Relationships = append(doc.Relationships, &types.Relationship{
			Sources:  append([]string(nil), l.Sources...),
			Op:       op,
			Targets:  append([]string(nil), l.Targets...),
			Props:    propsFromJSON(l.Properties),
			Contexts: append([]string(nil), l.Contexts...),
		})
	}

	for _, c := range g.Contexts {
		if err := checkMembers(fmt.Sprintf("context %q", c.Name), c.Members); err != nil {
			return nil, err
		}
		doc.Contexts = append(doc.Contexts, &types.Context{
			Name:        c.Name,
			Parent:      c.Parent,
			Members:     append([]string(nil), c.Members...),
			Synthesized: c.Synthesized,
		})
	}

	labels := make(map[string]bool)
	for _, p := range g.Partitions {
		kind, ok := types.ParseBoundaryKind(p.Kind)
		if !ok {
			return nil, errors.NewInvalidInputError("partition %q has unknown kind %q", p.Label, p.Kind)
		}
		if err := checkMembers(fmt.Sprintf("partition %q", p.Label), p.Members); err != nil {
			return nil, err
		}
		part := &types.QuantumPartition{
			Kind:        kind,
			Label:       p.Label,
			Members:     append([]string(nil), p.Members...),
			Synthesized: p.Synthesized,
		}
		if p.Weight != nil {
			w := *p.Weight
			part.Weight = &w
		}
		doc.Partitions = append(doc.Partitions, part)
		labels[p.Label] = true
	}

	for _, pl := range g.PartitionLinks {
		if !labels[pl.A] || !labels[pl.B] {
			return nil, errors.NewInvalidInputError(
				"partition link %s >< %s names an undeclared partition", pl.A, pl.B)
		}
		doc.PartitionRels = append(doc.PartitionRels, types.PartitionRelation{A: pl.A, B: pl.B})
	}

	return doc, nil
}

// propsFromJSON rebuilds a property list from the JSON map. Keys are sorted
// so the import is deterministic; property order is not semantically
// significant.
func propsFromJSON(raw map[string]interface{}) types.Properties {
	if len(raw) == 0 {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := make(types.Properties, 0, len(raw))
	for _, k := range keys {
		props = append(props, types.Property{Key: k, Val: valueFromJSON(raw[k])})
	}
	return props
}

// valueFromJSON maps one JSON value onto a property value. Strings carry
// their notation form (quoted string, #reference, or bare ident) and are
// re-parsed; numbers and booleans map directly.
func valueFromJSON(raw interface{}) types.Value {
	switch x := raw.(type) {
	case float64:
		return types.Num(x)
	case int:
		return types.Num(float64(x))
	case bool:
		return types.Boolean(x)
	case string:
		return types.ParseValue(x)
	}
	return types.Ident(fmt.Sprintf("%v", raw))
}
