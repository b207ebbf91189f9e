package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

func parseDoc(t *testing.T, src string) *types.Document {
	t.Helper()
	res := parser.Parse(src)
	require.False(t, res.Diags.HasErrors(), "diags: %v", res.Diags.Messages())
	return res.Doc
}

func TestCheckCleanDocument(t *testing.T) {
	doc := parseDoc(t, "@s{a} @s{b}\n#a -> #b\n[ctx]{#a}\nq{p}[#b]")
	assert.Empty(t, Check(doc))
}

func TestCheckDanglingReference(t *testing.T) {
	doc := parseDoc(t, "@s{a}")
	doc.Relationships = append(doc.Relationships, &types.Relationship{
		Sources: []string{"a"}, Op: types.RelDirected, Targets: []string{"ghost"},
	})
	diags := Check(doc)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unresolved reference #ghost")
}

func TestCheckCycle(t *testing.T) {
	doc := parseDoc(t, "@t{a} @t{b}")
	doc.Entities["a"].Parents = []string{"b"}
	doc.Entities["b"].Parents = []string{"a"}
	diags := Check(doc)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "inheritance cycle")
}

func TestCheckArity(t *testing.T) {
	doc := parseDoc(t, "%svc(a,b){@s{a}}")
	doc.Uses = append(doc.Uses, &types.TemplateUse{Name: "svc", Args: []string{"only"}})
	diags := Check(doc)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "expects 2 arguments, got 1")
}

func TestEqualIgnoresDeclarationOrder(t *testing.T) {
	a := parseDoc(t, "@s{x}:p{k:1,j:2} @s{y}\n#x -> #y")
	b := parseDoc(t, "@s{y} @s{x}:p{j:2,k:1}\n#x -> #y")
	assert.True(t, Equal(a, b))
}

func TestEqualDetectsDifferences(t *testing.T) {
	a := parseDoc(t, "@s{x}:p{k:1}")
	b := parseDoc(t, "@s{x}:p{k:2}")
	assert.False(t, Equal(a, b))
}

func TestEqualIgnoresCompressionMetadata(t *testing.T) {
	a := parseDoc(t, "@s{x}")
	b := parseDoc(t, "@s{x}")
	b.Bootstrap = &types.Bootstrap{Version: "v1", Mode: types.LevelMaximum}
	b.Checksum = "deadbeef"
	assert.True(t, Equal(a, b))
}

func TestEqualRenumbersAnonymousEntities(t *testing.T) {
	a := parseDoc(t, "@note:p{k:1} @note:p{k:2}")
	b := parseDoc(t, "@note:p{k:2} @note:p{k:1}")
	assert.True(t, Equal(a, b))
}

func TestFingerprintStable(t *testing.T) {
	doc := parseDoc(t, "@s{a} @s{b}\n#a <-> #b :p{w:2}")
	fp := Fingerprint(doc)
	assert.NotEmpty(t, fp)
	for i := 0; i < 3; i++ {
		assert.Equal(t, fp, Fingerprint(doc))
	}
	assert.Equal(t, fp, Fingerprint(doc.Clone()))
}
