package graph

import (
	"time"
)

// Graph is the stable intermediate representation of a resolved document.
// External converters (Markdown, Mermaid, visualization frontends) read this
// structure and never touch notation text directly. Compression metadata
// (bootstrap marker, dictionary, expansion plan) is not represented; callers
// export after expansion.
type Graph struct {
	Nodes          []Node          `json:"nodes"`
	Links          []Link          `json:"links"`
	Contexts       []ContextInfo   `json:"contexts,omitempty"`
	Partitions     []PartitionInfo `json:"partitions,omitempty"`
	PartitionLinks []PartitionLink `json:"partition_links,omitempty"`
	Meta           Meta            `json:"meta"`
}

// Node represents an entity in the graph
type Node struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Label      string                 `json:"label"` // Display label
	Anonymous  bool                   `json:"anonymous,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Tags       []string               `json:"tags,omitempty"`
	Parents    []string               `json:"parents,omitempty"`
	Exceptions []string               `json:"exceptions,omitempty"`
	Preserved  bool                   `json:"preserved,omitempty"`
}

// Link represents a relationship between nodes. Both sides are node id
// lists: a reference-list relationship stays one link.
type Link struct {
	Sources    []string               `json:"sources"`
	Op         string                 `json:"op"` // directed, reverse, bidirectional, undirected, causal, probabilistic
	Targets    []string               `json:"targets"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Contexts   []string               `json:"contexts,omitempty"` // names of contexts the link is scoped to
}

// ContextInfo represents a named scope and its membership
type ContextInfo struct {
	Name        string   `json:"name"`
	Parent      string   `json:"parent,omitempty"`
	Members     []string `json:"members"`
	Synthesized bool     `json:"synthesized,omitempty"`
}

// PartitionInfo represents a quantum partition
type PartitionInfo struct {
	Kind        string   `json:"kind"`
	Label       string   `json:"label"`
	Weight      *float64 `json:"weight,omitempty"`
	Members     []string `json:"members"`
	Synthesized bool     `json:"synthesized,omitempty"`
}

// PartitionLink links two partitions by label (the `p1 >< p2` form)
type PartitionLink struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Meta contains metadata about the graph
type Meta struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	Stats             Stats                  `json:"stats"`
	NodeTypes         []NodeTypeInfo         `json:"node_types,omitempty"`         // Node types present in this graph
	RelationshipTypes []RelationshipTypeInfo `json:"relationship_types,omitempty"` // Relationship operators present
}

// NodeTypeInfo summarizes one node type present in the graph
type NodeTypeInfo struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// RelationshipTypeInfo summarizes one relationship operator present in the graph
type RelationshipTypeInfo struct {
	Op    string `json:"op"`
	Count int    `json:"count"`
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes      int `json:"total_nodes"`
	TotalLinks      int `json:"total_links"`
	TotalContexts   int `json:"total_contexts,omitempty"`
	TotalPartitions int `json:"total_partitions,omitempty"`
}
