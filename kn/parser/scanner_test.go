package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestScanEntity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
		wantID   string
		wantAnon bool
	}{
		{"typed with id", "@server{api_gateway}", "server", "api_gateway", false},
		{"anonymous", "@note", "note", "", true},
		{"anonymous empty braces", "@note{}", "note", "", true},
		{"id with hyphen", "@svc{auth-v2}", "svc", "auth-v2", false},
		{"id with dots", "@host{db.internal}", "host", "db.internal", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := Scan(tt.input)
			require.False(t, diags.HasErrors(), "diags: %v", diags.Messages())
			require.Len(t, tokens, 1)
			assert.Equal(t, TokenEntity, tokens[0].Kind)
			assert.Equal(t, tt.wantType, tokens[0].Name)
			assert.Equal(t, tt.wantID, tokens[0].ID)
			assert.Equal(t, tt.wantAnon, tokens[0].Anonymous)
		})
	}
}

func TestScanRelationOperators(t *testing.T) {
	tests := []struct {
		input string
		op    string
	}{
		{"#a -> #b", "->"},
		{"#a <- #b", "<-"},
		{"#a <-> #b", "<->"},
		{"#a -- #b", "--"},
		{"#a ==> #b", "==>"},
		{"#a ~> #b", "~>"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			tokens, diags := Scan(tt.input)
			require.False(t, diags.HasErrors())
			require.Equal(t, []TokenKind{TokenReference, TokenRelOp, TokenReference}, kinds(tokens))
			assert.Equal(t, tt.op, tokens[1].Name)
		})
	}
}

func TestScanOperatorWithoutSpaces(t *testing.T) {
	tokens, diags := Scan("#api-gw->#db")
	require.False(t, diags.HasErrors())
	require.Equal(t, []TokenKind{TokenReference, TokenRelOp, TokenReference}, kinds(tokens))
	assert.Equal(t, "api-gw", tokens[0].ID)
	assert.Equal(t, "db", tokens[2].ID)
}

func TestScanSuffixBlocks(t *testing.T) {
	tokens, diags := Scan(`@user{u1}:p{name:"Ada Lovelace",age:36}:t{admin,active}^person\age`)
	require.False(t, diags.HasErrors())
	require.Equal(t, []TokenKind{TokenEntity, TokenPropertyBlock, TokenTagBlock, TokenInherit}, kinds(tokens))
	assert.Equal(t, `name:"Ada Lovelace",age:36`, tokens[1].Body)
	assert.Equal(t, "admin,active", tokens[2].Body)
	assert.Equal(t, []string{"person"}, tokens[3].Args)
	assert.Equal(t, []string{"age"}, tokens[3].Exceptions)
}

func TestScanMultipleInheritance(t *testing.T) {
	tokens, diags := Scan(`@svc{gw}^service+endpoint\retries`)
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 2)
	assert.Equal(t, []string{"service", "endpoint"}, tokens[1].Args)
	assert.Equal(t, []string{"retries"}, tokens[1].Exceptions)
}

func TestScanContextBlock(t *testing.T) {
	tokens, diags := Scan("[deployment]{#a -> #b\n@svc{c}}")
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenContext, tokens[0].Kind)
	assert.Equal(t, "deployment", tokens[0].Name)
	assert.Equal(t, "#a -> #b\n@svc{c}", tokens[0].Body)
}

func TestScanNestedContextBody(t *testing.T) {
	tokens, diags := Scan("[outer]{[inner]{#a}}")
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 1)
	assert.Equal(t, "[inner]{#a}", tokens[0].Body)
}

func TestScanQuantum(t *testing.T) {
	tokens, diags := Scan("q:purpose{storage_layer}(0.8)[#db,#cache]")
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 1)
	tok := tokens[0]
	assert.Equal(t, TokenQuantum, tok.Kind)
	assert.Equal(t, "purpose", tok.QuantKind)
	assert.Equal(t, "storage_layer", tok.Name)
	require.NotNil(t, tok.Weight)
	assert.InDelta(t, 0.8, *tok.Weight, 1e-9)
	assert.Equal(t, []string{"db", "cache"}, tok.Members)
}

func TestScanPartitionRelation(t *testing.T) {
	tokens, diags := Scan("q{frontend} >< q{backend}")
	require.False(t, diags.HasErrors())
	require.Equal(t, []TokenKind{TokenQuantum, TokenPartitionRel, TokenQuantum}, kinds(tokens))
}

func TestScanDirectives(t *testing.T) {
	tokens, diags := Scan("$knot{v1,mode:standard,recovery:true} $dict{cfg=configuration}")
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 2)
	assert.Equal(t, "knot", tokens[0].Name)
	assert.Equal(t, "v1,mode:standard,recovery:true", tokens[0].Body)
	assert.Equal(t, "dict", tokens[1].Name)
}

func TestScanTemplateDefVsUse(t *testing.T) {
	tokens, diags := Scan("%service(name,port){@svc{name}:p{port:port}} %service(gw,8080)")
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenTemplateDef, tokens[0].Kind)
	assert.Equal(t, []string{"name", "port"}, tokens[0].Args)
	assert.Equal(t, "@svc{name}:p{port:port}", tokens[0].Body)
	assert.Equal(t, TokenTemplateUse, tokens[1].Kind)
	assert.Equal(t, []string{"gw", "8080"}, tokens[1].Args)
}

func TestScanRefList(t *testing.T) {
	tokens, diags := Scan("(#a,#b,#c) -> #d")
	require.False(t, diags.HasErrors())
	require.Equal(t, []TokenKind{TokenRefList, TokenRelOp, TokenReference}, kinds(tokens))
	assert.Equal(t, []string{"a", "b", "c"}, tokens[0].Args)
}

func TestScanQuotedStringsProtectDelimiters(t *testing.T) {
	tokens, diags := Scan(`@doc{d1}:p{title:"a, b -> c}"}`)
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 2)
	assert.Equal(t, `title:"a, b -> c}"`, tokens[1].Body)
}

func TestScanUnterminatedBlock(t *testing.T) {
	tokens, diags := Scan("@svc{gateway")
	require.True(t, diags.HasErrors())
	require.Len(t, tokens, 1)
	// Partial body survives so a truncated stream can still be recovered.
	assert.Equal(t, "gateway", tokens[0].ID)
}

func TestScanRecoversAfterGarbage(t *testing.T) {
	tokens, diags := Scan("@a{x} !!?? @b{y}")
	assert.True(t, diags.HasErrors())
	require.Len(t, tokens, 2)
	assert.Equal(t, "x", tokens[0].ID)
	assert.Equal(t, "y", tokens[1].ID)
}

func TestScanPositions(t *testing.T) {
	tokens, diags := Scan("@a{x}\n#x")
	require.False(t, diags.HasErrors())
	require.Len(t, tokens, 2)
	assert.Equal(t, 1, tokens[0].Range.Start.Line)
	assert.Equal(t, 2, tokens[1].Range.Start.Line)
	assert.Equal(t, 0, tokens[1].Range.Start.Character)
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"nested braces", "a,{b,c},d", []string{"a", "{b,c}", "d"}},
		{"quoted", `a,"b,c",d`, []string{"a", `"b,c"`, "d"}},
		{"empty parts kept", "a,,b", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitTopLevel(tt.input, ','))
		})
	}
}
