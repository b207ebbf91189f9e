package types

import "sort"

// ExpandStage names one structure class the decompressor restores. Stages
// appear in the compressed stream as `$expand{stage|name,...}` directives,
// in the order they must run.
type ExpandStage string

const (
	StageDictionary  ExpandStage = "dictionary"
	StageTemplates   ExpandStage = "templates"
	StageInheritance ExpandStage = "inheritance"
	StageContexts    ExpandStage = "contexts"
	StagePartitions  ExpandStage = "partitions"
)

// StageOrder is the fixed execution order of expansion stages.
var StageOrder = []ExpandStage{
	StageDictionary,
	StageTemplates,
	StageInheritance,
	StageContexts,
	StagePartitions,
}

// ExpandStep is one staged-expansion directive. Names list structures the
// compressor synthesized (base entities, grouped contexts, partitions) that
// the expander dissolves after restoring their members.
type ExpandStep struct {
	Stage ExpandStage `json:"stage"`
	Names []string    `json:"names,omitempty"`
}

// Bootstrap is the leading self-description marker of a compressed stream.
type Bootstrap struct {
	Version  string `json:"version"` // e.g. "v1"
	Mode     Level  `json:"mode"`    // compression level the stream was produced at
	Recovery bool   `json:"recovery"`
}

// Document is the top-level container for one parsed notation document.
// A Document is built by the structural analyzer, rewritten by compression
// strategies (each strategy clones before mutating), and restored by the
// expander. It is never shared mutably across goroutines.
type Document struct {
	Bootstrap  *Bootstrap   `json:"bootstrap,omitempty"`
	Dict       *Dictionary  `json:"-"`
	ExpandPlan []ExpandStep `json:"expand_plan,omitempty"`
	Checksum   string       `json:"checksum,omitempty"` // hex FNV-1a from $checksum, empty if absent
	Preserve   []string     `json:"preserve,omitempty"` // ids exempt from rewrites ($preserve)

	Entities      map[string]*Entity  `json:"entities"`
	Order         []string            `json:"order"` // entity declaration order
	Relationships []*Relationship     `json:"relationships,omitempty"`
	Contexts      []*Context          `json:"contexts,omitempty"`
	Partitions    []*QuantumPartition `json:"partitions,omitempty"`
	PartitionRels []PartitionRelation `json:"partition_relations,omitempty"`

	Templates     map[string]*Template `json:"templates,omitempty"`
	TemplateOrder []string             `json:"template_order,omitempty"`
	Uses          []*TemplateUse       `json:"uses,omitempty"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Entities:  make(map[string]*Entity),
		Templates: make(map[string]*Template),
	}
}

// AddEntity registers an entity, preserving declaration order. It reports
// false when an entity with the same id already exists; the caller decides
// whether that is a merge or a diagnostic.
func (d *Document) AddEntity(e *Entity) bool {
	if _, exists := d.Entities[e.ID]; exists {
		return false
	}
	d.Entities[e.ID] = e
	d.Order = append(d.Order, e.ID)
	return true
}

// RemoveEntity deletes an entity and its declaration-order slot.
func (d *Document) RemoveEntity(id string) {
	if _, ok := d.Entities[id]; !ok {
		return
	}
	delete(d.Entities, id)
	for i, oid := range d.Order {
		if oid == id {
			d.Order = append(d.Order[:i], d.Order[i+1:]...)
			break
		}
	}
}

// Entity returns the entity with the given id.
func (d *Document) Entity(id string) (*Entity, bool) {
	e, ok := d.Entities[id]
	return e, ok
}

// AddTemplate registers a template, preserving declaration order. Reports
// false on a duplicate name.
func (d *Document) AddTemplate(t *Template) bool {
	if _, exists := d.Templates[t.Name]; exists {
		return false
	}
	d.Templates[t.Name] = t
	d.TemplateOrder = append(d.TemplateOrder, t.Name)
	return true
}

// RemoveTemplate deletes a template and its declaration-order slot.
func (d *Document) RemoveTemplate(name string) {
	if _, ok := d.Templates[name]; !ok {
		return
	}
	delete(d.Templates, name)
	for i, n := range d.TemplateOrder {
		if n == name {
			d.TemplateOrder = append(d.TemplateOrder[:i], d.TemplateOrder[i+1:]...)
			break
		}
	}
}

// RenameEntity changes an entity id and rewrites every reference to it:
// relationship endpoints, inheritance parents, context and partition
// members, reference-valued properties, and the preserve list. A no-op when
// the id is absent or the new id is already taken.
func (d *Document) RenameEntity(oldID, newID string) {
	if oldID == newID {
		return
	}
	e, ok := d.Entities[oldID]
	if !ok {
		return
	}
	if _, taken := d.Entities[newID]; taken {
		return
	}
	delete(d.Entities, oldID)
	e.ID = newID
	d.Entities[newID] = e
	renameAll := func(ids []string) {
		for i, id := range ids {
			if id == oldID {
				ids[i] = newID
			}
		}
	}
	renameAll(d.Order)
	renameAll(d.Preserve)
	renameProps := func(props Properties) {
		for i, p := range props {
			if p.Val.Kind == ValueRef && p.Val.Str == oldID {
				props[i].Val.Str = newID
			}
		}
	}
	for _, other := range d.Entities {
		renameAll(other.Parents)
		renameProps(other.Props)
	}
	for _, r := range d.Relationships {
		renameAll(r.Sources)
		renameAll(r.Targets)
		renameProps(r.Props)
	}
	for _, c := range d.Contexts {
		renameAll(c.Members)
	}
	for _, p := range d.Partitions {
		renameAll(p.Members)
	}
}

// IsPreserved reports whether id is exempt from compression rewrites.
func (d *Document) IsPreserved(id string) bool {
	for _, p := range d.Preserve {
		if p == id {
			return true
		}
	}
	return false
}

// SortedEntityIDs returns all entity ids in lexicographic order. Used
// wherever a deterministic iteration over the entity map is required.
func (d *Document) SortedEntityIDs() []string {
	ids := make([]string, 0, len(d.Entities))
	for id := range d.Entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy. Dictionary values are immutable and shared.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d.Bootstrap != nil {
		b := *d.Bootstrap
		out.Bootstrap = &b
	}
	out.Dict = d.Dict
	out.ExpandPlan = make([]ExpandStep, len(d.ExpandPlan))
	for i, step := range d.ExpandPlan {
		out.ExpandPlan[i] = ExpandStep{Stage: step.Stage, Names: append([]string(nil), step.Names...)}
	}
	if len(out.ExpandPlan) == 0 {
		out.ExpandPlan = nil
	}
	out.Checksum = d.Checksum
	out.Preserve = append([]string(nil), d.Preserve...)

	for _, id := range d.Order {
		out.AddEntity(d.Entities[id].Clone())
	}
	for _, r := range d.Relationships {
		out.Relationships = append(out.Relationships, r.Clone())
	}
	for _, c := range d.Contexts {
		out.Contexts = append(out.Contexts, c.Clone())
	}
	for _, p := range d.Partitions {
		out.Partitions = append(out.Partitions, p.Clone())
	}
	out.PartitionRels = append([]PartitionRelation(nil), d.PartitionRels...)

	for _, name := range d.TemplateOrder {
		out.AddTemplate(d.Templates[name].Clone())
	}
	for _, u := range d.Uses {
		out.Uses = append(out.Uses, u.Clone())
	}
	return out
}

// Stats summarizes document size for logging and CLI output.
type Stats struct {
	Entities      int `json:"entities"`
	Relationships int `json:"relationships"`
	Properties    int `json:"properties"`
	Contexts      int `json:"contexts"`
	Partitions    int `json:"partitions"`
	Templates     int `json:"templates"`
}

// Stats computes current document statistics.
func (d *Document) Stats() Stats {
	s := Stats{
		Entities:      len(d.Entities),
		Relationships: len(d.Relationships),
		Contexts:      len(d.Contexts),
		Partitions:    len(d.Partitions),
		Templates:     len(d.Templates),
	}
	for _, e := range d.Entities {
		s.Properties += len(e.Props)
	}
	for _, r := range d.Relationships {
		s.Properties += len(r.Props)
	}
	return s
}
