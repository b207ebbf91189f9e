package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/generate"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/kn/validate"
)

func parseDoc(t *testing.T, src string) *types.Document {
	t.Helper()
	res := parser.Parse(src)
	require.False(t, res.Diags.HasErrors(), "diags: %v", res.Diags.Messages())
	return res.Doc
}

func expandAll(t *testing.T, doc *types.Document) *types.Document {
	t.Helper()
	out := doc.Clone()
	require.NoError(t, expand.New().All(out))
	return out
}

// Repeated terms clear the occurrence threshold: concept and domain appear
// three times each, knowledge_representation once as an id and twice as a
// property value.
const dictionaryCorpus = `
@concept{knowledge_representation}:p{domain:"ai"}
@concept{knowledge_graphs}:p{domain:"ai",about:knowledge_representation}
@concept{knowledge_bases}:p{domain:"ai",about:knowledge_representation}
`

func TestDictionarySubstitutionScenario(t *testing.T) {
	doc := parseDoc(t, dictionaryCorpus)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelMinimal)
	require.NoError(t, err)

	require.NotNil(t, out.Dict)
	abbr, ok := out.Dict.Abbreviate("domain")
	require.True(t, ok)
	assert.Equal(t, "d", abbr)
	abbr, ok = out.Dict.Abbreviate("concept")
	require.True(t, ok)
	assert.Equal(t, "c", abbr)

	rendered := generate.Render(out)
	assert.Contains(t, rendered, `@c{kr}:p{d:"ai"}`)
	assert.True(t, strings.HasPrefix(rendered, "$knot{v1,mode:minimal,recovery:true}"))
}

func TestDictionaryReversibility(t *testing.T) {
	doc := parseDoc(t, dictionaryCorpus)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelMinimal)
	require.NoError(t, err)
	restored := expandAll(t, out)
	assert.True(t, validate.Equal(doc, restored))
}

func TestAncestorExtractionScenario(t *testing.T) {
	src := strings.Join([]string{
		"@service{auth}:p{stateless:true,secure:true}",
		"@service{authz}:p{stateless:true,secure:true}",
	}, "\n")
	doc := parseDoc(t, src)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelStandard)
	require.NoError(t, err)

	base, ok := out.Entity("base_service")
	require.True(t, ok, "synthesized parent missing")
	assert.True(t, base.Props.Has("stateless"))
	assert.True(t, base.Props.Has("secure"))
	for _, id := range []string{"auth", "authz"} {
		child, ok := out.Entity(id)
		require.True(t, ok)
		assert.Empty(t, child.Props)
		assert.Equal(t, []string{"base_service"}, child.Parents)
	}

	restored := expandAll(t, out)
	assert.True(t, validate.Equal(doc, restored), "properties lost on expansion")
}

func TestTemplateExtraction(t *testing.T) {
	src := strings.Join([]string{
		"@endpoint{users}:p{method:get,path:\"/users\"}",
		"@endpoint{orders}:p{method:get,path:\"/orders\"}",
	}, "\n")
	doc := parseDoc(t, src)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelStandard)
	require.NoError(t, err)

	require.Contains(t, out.Templates, "tpl_endpoint")
	tpl := out.Templates["tpl_endpoint"]
	assert.True(t, tpl.Synthesized)
	// method is constant across occurrences and stays literal; id and path vary.
	assert.Equal(t, []string{"_id", "_v2"}, tpl.Params)
	require.Len(t, out.Uses, 2)
	_, usersGone := out.Entity("users")
	assert.False(t, usersGone)

	restored := expandAll(t, out)
	assert.True(t, validate.Equal(doc, restored))
}

func TestContextualGrouping(t *testing.T) {
	src := strings.Join([]string{
		"@svc{a}:p{region:eu,tier:1,owner:core}",
		"@svc{b}:p{tier:2,region:us,owner:edge}",
		"@svc{c}:p{owner:data,region:ap,tier:3}",
		"@doc{manual}:p{pages:10}",
	}, "\n")
	doc := parseDoc(t, src)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelMaximum)
	require.NoError(t, err)

	var grp *types.Context
	for _, c := range out.Contexts {
		if c.Synthesized {
			grp = c
		}
	}
	require.NotNil(t, grp, "expected a synthesized grouping context")
	assert.Equal(t, "grp_a", grp.Name)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, grp.Members)

	restored := expandAll(t, out)
	assert.True(t, validate.Equal(doc, restored))
}

func TestQuantumPartitioning(t *testing.T) {
	// Two triangles joined by a single bridge edge.
	src := strings.Join([]string{
		"@n{a1} @n{a2} @n{a3} @n{b1} @n{b2} @n{b3}",
		"#a1 -- #a2", "#a2 -- #a3", "#a3 -- #a1",
		"#b1 -- #b2", "#b2 -- #b3", "#b3 -- #b1",
		"#a1 -- #b1",
	}, "\n")
	doc := parseDoc(t, src)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelExtreme)
	require.NoError(t, err)

	var labels []string
	for _, p := range out.Partitions {
		require.True(t, p.Synthesized)
		assert.Equal(t, types.BoundaryCoherence, p.Kind)
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"part_a1", "part_b1"}, labels)

	restored := expandAll(t, out)
	assert.True(t, validate.Equal(doc, restored))
}

func TestPreserveExemptsEntities(t *testing.T) {
	src := "$preserve{#auth}\n" + strings.Join([]string{
		"@service{auth}:p{stateless:true,secure:true}",
		"@service{authz}:p{stateless:true,secure:true}",
		"@service{gw}:p{stateless:true,secure:true}",
	}, "\n")
	doc := parseDoc(t, src)
	out, err := New(DefaultOptions()).Compress(doc, types.LevelStandard)
	require.NoError(t, err)

	auth, ok := out.Entity("auth")
	require.True(t, ok)
	assert.True(t, auth.Props.Has("stateless"), "preserved entity must keep its properties")
	assert.Empty(t, auth.Parents)
}

func TestRoundTripAllLevels(t *testing.T) {
	src := strings.Join([]string{
		"@service{auth}:p{stateless:true,secure:true,owner:platform}",
		"@service{authz}:p{stateless:true,secure:true,owner:platform}",
		"@service{billing}:p{stateless:true,secure:true,owner:payments}",
		"@database{users_db}:p{engine:postgres}",
		"#auth -> #users_db :p{pool:10}",
		"#authz -> #users_db",
		"#auth <-> #authz",
		"[prod]{#auth #authz}",
		"q:temporal{q3}[#billing]",
	}, "\n")
	doc := parseDoc(t, src)

	for _, level := range types.Levels {
		t.Run(string(level), func(t *testing.T) {
			out, err := New(DefaultOptions()).Compress(doc, level)
			require.NoError(t, err)
			restored := expandAll(t, out)
			assert.True(t, validate.Equal(doc, restored),
				"round trip at level %s diverged", level)
		})
	}
}

func TestCompressionDeterminism(t *testing.T) {
	doc := parseDoc(t, dictionaryCorpus)
	for _, level := range types.Levels {
		a, err := New(DefaultOptions()).Compress(doc, level)
		require.NoError(t, err)
		b, err := New(DefaultOptions()).Compress(doc, level)
		require.NoError(t, err)
		assert.Equal(t, generate.Render(a), generate.Render(b), "level %s", level)
	}
}

func TestCompressionIdempotence(t *testing.T) {
	doc := parseDoc(t, strings.Join([]string{
		dictionaryCorpus,
		"@service{auth}:p{stateless:true,secure:true}",
		"@service{authz}:p{stateless:true,secure:true}",
	}, "\n"))
	for _, level := range types.Levels {
		once, err := New(DefaultOptions()).Compress(doc, level)
		require.NoError(t, err)
		twice, err := New(DefaultOptions()).Compress(once, level)
		require.NoError(t, err)
		assert.Equal(t, generate.Render(once), generate.Render(twice), "level %s", level)
	}
}

func TestChecksumEmbedded(t *testing.T) {
	doc := parseDoc(t, "@s{a}:p{k:1}")
	out, err := New(DefaultOptions()).Compress(doc, types.LevelNone)
	require.NoError(t, err)
	assert.Equal(t, validate.Fingerprint(doc), out.Checksum)
	assert.Equal(t, types.LevelNone, out.Bootstrap.Mode)
}
