package types

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Entity is a typed, identified node in the knowledge graph.
// Identity is the (Type, ID) pair; anonymous entities receive a synthetic id
// so every entity is addressable by reference.
type Entity struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Anonymous  bool       `json:"anonymous,omitempty"`
	Props      Properties `json:"properties,omitempty"`
	Tags       []string   `json:"tags,omitempty"`       // kept sorted, set semantics
	Parents    []string   `json:"parents,omitempty"`    // inheritance, declaration order
	Exceptions []string   `json:"exceptions,omitempty"` // property keys excluded from inheritance
}

// SyntheticIDPrefix marks ids generated for anonymous entities.
const SyntheticIDPrefix = "anon-"

// NewEntity creates an entity with an explicit id.
func NewEntity(typeTag, id string) *Entity {
	return &Entity{Type: typeTag, ID: id}
}

// NewAnonymousEntity creates an entity with a synthetic id.
func NewAnonymousEntity(typeTag string) *Entity {
	return &Entity{
		Type:      typeTag,
		ID:        SyntheticIDPrefix + uuid.NewString()[:8],
		Anonymous: true,
	}
}

// Key returns the document-level identity of the entity.
func (e *Entity) Key() string {
	return e.Type + "/" + e.ID
}

// HasTag reports whether the entity carries tag.
func (e *Entity) HasTag(tag string) bool {
	i := sort.SearchStrings(e.Tags, tag)
	return i < len(e.Tags) && e.Tags[i] == tag
}

// AddTag inserts tag, preserving sorted set semantics.
func (e *Entity) AddTag(tag string) {
	i := sort.SearchStrings(e.Tags, tag)
	if i < len(e.Tags) && e.Tags[i] == tag {
		return
	}
	e.Tags = append(e.Tags, "")
	copy(e.Tags[i+1:], e.Tags[i:])
	e.Tags[i] = tag
}

// RemoveTag deletes tag if present.
func (e *Entity) RemoveTag(tag string) {
	i := sort.SearchStrings(e.Tags, tag)
	if i < len(e.Tags) && e.Tags[i] == tag {
		e.Tags = append(e.Tags[:i], e.Tags[i+1:]...)
	}
}

// InheritsFrom reports whether parent appears in the direct parent list.
func (e *Entity) InheritsFrom(parent string) bool {
	for _, p := range e.Parents {
		if p == parent {
			return true
		}
	}
	return false
}

// IsException reports whether key is excluded from inheritance.
func (e *Entity) IsException(key string) bool {
	for _, x := range e.Exceptions {
		if x == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	out := *e
	out.Props = e.Props.Clone()
	out.Tags = append([]string(nil), e.Tags...)
	out.Parents = append([]string(nil), e.Parents...)
	out.Exceptions = append([]string(nil), e.Exceptions...)
	return &out
}

func (e *Entity) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(e.Type)
	if !e.Anonymous {
		b.WriteString("{")
		b.WriteString(e.ID)
		b.WriteString("}")
	}
	return b.String()
}
