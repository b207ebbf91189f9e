package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/kn/validate"
)

const corpus = `
$preserve{#auth}
@service{auth}:p{stateless:true,port:877,region:"eu-west",db:#users_db}:t{critical,edge}
@service{billing}:p{stateless:false}
@database{users_db}:p{engine:postgres}
@concept{resilience}^auth\port
#auth -> #users_db :p{pool:10}
(#auth,#billing) ==> #users_db
[prod]{#auth #billing}
q:temporal{q3}(0.8)[#billing]
q{core}[#auth,#users_db]
q{q3} >< q{core}
`

func parseDoc(t *testing.T, src string) *types.Document {
	t.Helper()
	res := parser.Parse(src)
	require.False(t, res.Diags.HasErrors(), "diags: %v", res.Diags.Messages())
	return res.Doc
}

func TestExportShape(t *testing.T) {
	doc := parseDoc(t, corpus)
	g := FromDocument(doc)

	require.Len(t, g.Nodes, 4)
	assert.Equal(t, "auth", g.Nodes[0].ID)
	assert.Equal(t, "service", g.Nodes[0].Type)
	assert.True(t, g.Nodes[0].Preserved)
	assert.Equal(t, []string{"critical", "edge"}, g.Nodes[0].Tags)
	assert.Equal(t, []string{"auth"}, g.Nodes[3].Parents)
	assert.Equal(t, []string{"port"}, g.Nodes[3].Exceptions)

	// Numbers and booleans export natively, references keep their # form.
	props := g.Nodes[0].Properties
	assert.Equal(t, true, props["stateless"])
	assert.Equal(t, 877.0, props["port"])
	assert.Equal(t, `"eu-west"`, props["region"])
	assert.Equal(t, "#users_db", props["db"])

	require.Len(t, g.Links, 2)
	assert.Equal(t, []string{"auth"}, g.Links[0].Sources)
	assert.Equal(t, "directed", g.Links[0].Op)
	assert.Equal(t, []string{"auth", "billing"}, g.Links[1].Sources)
	assert.Equal(t, "causal", g.Links[1].Op)

	require.Len(t, g.Contexts, 1)
	assert.Equal(t, "prod", g.Contexts[0].Name)
	assert.ElementsMatch(t, []string{"auth", "billing"}, g.Contexts[0].Members)

	require.Len(t, g.Partitions, 2)
	assert.Equal(t, "temporal", g.Partitions[0].Kind)
	require.NotNil(t, g.Partitions[0].Weight)
	assert.Equal(t, 0.8, *g.Partitions[0].Weight)
	assert.Equal(t, "coherence", g.Partitions[1].Kind)

	require.Len(t, g.PartitionLinks, 1)
	assert.Equal(t, PartitionLink{A: "q3", B: "core"}, g.PartitionLinks[0])
}

func TestExportMeta(t *testing.T) {
	doc := parseDoc(t, corpus)
	g := FromDocument(doc)

	assert.Equal(t, 4, g.Meta.Stats.TotalNodes)
	assert.Equal(t, 2, g.Meta.Stats.TotalLinks)
	assert.Equal(t, 1, g.Meta.Stats.TotalContexts)
	assert.Equal(t, 2, g.Meta.Stats.TotalPartitions)

	assert.Equal(t, []NodeTypeInfo{
		{Type: "concept", Count: 1},
		{Type: "database", Count: 1},
		{Type: "service", Count: 2},
	}, g.Meta.NodeTypes)

	assert.Equal(t, []RelationshipTypeInfo{
		{Op: "causal", Count: 1},
		{Op: "directed", Count: 1},
	}, g.Meta.RelationshipTypes)
}

func TestRoundTrip(t *testing.T) {
	doc := parseDoc(t, corpus)
	restored, err := FromDocument(doc).ToDocument()
	require.NoError(t, err)
	assert.True(t, validate.Equal(doc, restored), "IR round trip diverged")
}

func TestRoundTripThroughJSON(t *testing.T) {
	doc := parseDoc(t, corpus)
	data, err := json.Marshal(FromDocument(doc))
	require.NoError(t, err)

	var g Graph
	require.NoError(t, json.Unmarshal(data, &g))
	restored, err := g.ToDocument()
	require.NoError(t, err)
	assert.True(t, validate.Equal(doc, restored), "JSON round trip diverged")
}

func TestImportValidation(t *testing.T) {
	base := func() *Graph {
		return FromDocument(parseDoc(t, "@s{a}\n@s{b}\n#a -> #b"))
	}

	t.Run("dangling link endpoint", func(t *testing.T) {
		g := base()
		g.Links[0].Targets = []string{"ghost"}
		_, err := g.ToDocument()
		require.Error(t, err)
	})

	t.Run("unknown operator", func(t *testing.T) {
		g := base()
		g.Links[0].Op = "teleports"
		_, err := g.ToDocument()
		require.Error(t, err)
	})

	t.Run("duplicate node id", func(t *testing.T) {
		g := base()
		g.Nodes = append(g.Nodes, Node{ID: "a", Type: "s"})
		_, err := g.ToDocument()
		require.Error(t, err)
	})

	t.Run("unknown partition kind", func(t *testing.T) {
		g := base()
		g.Partitions = append(g.Partitions, PartitionInfo{Kind: "spatial", Label: "x", Members: []string{"a"}})
		_, err := g.ToDocument()
		require.Error(t, err)
	})

	t.Run("partition link to undeclared partition", func(t *testing.T) {
		g := base()
		g.PartitionLinks = append(g.PartitionLinks, PartitionLink{A: "x", B: "y"})
		_, err := g.ToDocument()
		require.Error(t, err)
	})
}

func TestExportDeterminism(t *testing.T) {
	doc := parseDoc(t, corpus)
	a, err := json.Marshal(FromDocument(doc).Nodes)
	require.NoError(t, err)
	b, err := json.Marshal(FromDocument(doc).Nodes)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
