package types

// Context is a named scope narrowing the applicability of its members.
// Contexts may nest and may overlap: an entity may belong to any number of
// contexts at once, so this is a labeling, not a tree.
type Context struct {
	Name        string   `json:"name"`
	Parent      string   `json:"parent,omitempty"` // enclosing context name, empty at top level
	Members     []string `json:"members"`          // entity ids
	Synthesized bool     `json:"synthesized,omitempty"`
}

// HasMember reports whether the entity id is a member.
func (c *Context) HasMember(id string) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// AddMember appends id unless already present.
func (c *Context) AddMember(id string) {
	if !c.HasMember(id) {
		c.Members = append(c.Members, id)
	}
}

// Clone returns a deep copy.
func (c *Context) Clone() *Context {
	out := *c
	out.Members = append([]string(nil), c.Members...)
	return &out
}

// BoundaryKind classifies the dimension along which a quantum partition
// groups nodes.
type BoundaryKind string

const (
	BoundaryCoherence   BoundaryKind = "coherence"
	BoundaryComplexity  BoundaryKind = "complexity"
	BoundaryPurpose     BoundaryKind = "purpose"
	BoundaryContext     BoundaryKind = "context"
	BoundaryPerspective BoundaryKind = "perspective"
	BoundaryTemporal    BoundaryKind = "temporal"
)

// ParseBoundaryKind maps a kind token to its BoundaryKind. The empty string
// defaults to coherence; ok is false for unrecognized kinds.
func ParseBoundaryKind(s string) (BoundaryKind, bool) {
	switch BoundaryKind(s) {
	case "":
		return BoundaryCoherence, true
	case BoundaryCoherence, BoundaryComplexity, BoundaryPurpose,
		BoundaryContext, BoundaryPerspective, BoundaryTemporal:
		return BoundaryKind(s), true
	}
	return "", false
}

// QuantumPartition is a labeled, non-exclusive grouping of graph nodes.
// Membership does not imply ownership: an entity may belong to zero or more
// partitions.
type QuantumPartition struct {
	Kind        BoundaryKind `json:"kind"`
	Label       string       `json:"label"`
	Weight      *float64     `json:"weight,omitempty"`
	Members     []string     `json:"members"` // entity ids
	Synthesized bool         `json:"synthesized,omitempty"`
}

// HasMember reports whether the entity id is a member.
func (p *QuantumPartition) HasMember(id string) bool {
	for _, m := range p.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p *QuantumPartition) Clone() *QuantumPartition {
	out := *p
	if p.Weight != nil {
		w := *p.Weight
		out.Weight = &w
	}
	out.Members = append([]string(nil), p.Members...)
	return &out
}

// PartitionRelation links two partitions by label (the `p1 >< p2` form).
type PartitionRelation struct {
	A string `json:"a"`
	B string `json:"b"`
}
