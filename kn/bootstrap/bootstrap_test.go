package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/compress"
	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/generate"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/kn/validate"
)

const pipelineCorpus = `
@service{authentication}:p{stateless:true,secure:true,owner:platform}
@service{authorization}:p{stateless:true,secure:true,owner:platform}
@service{billing}:p{stateless:true,secure:true,owner:payments}
@database{users_db}:p{engine:postgres}
#authentication -> #users_db :p{pool:10}
#authorization -> #users_db
#authentication <-> #authorization
[prod]{#authentication #authorization}
`

func parseDoc(t *testing.T, src string) *types.Document {
	t.Helper()
	res := parser.Parse(src)
	require.False(t, res.Diags.HasErrors(), "diags: %v", res.Diags.Messages())
	return res.Doc
}

func TestDecompressRoundTripAllLevels(t *testing.T) {
	doc := parseDoc(t, pipelineCorpus)
	reference := doc.Clone()
	require.NoError(t, expand.New().All(reference))

	for _, level := range types.Levels {
		t.Run(string(level), func(t *testing.T) {
			compressed, err := compress.New(compress.DefaultOptions()).Compress(doc, level)
			require.NoError(t, err)
			stream := generate.Render(compressed)

			res, err := New().Decompress(stream)
			require.NoError(t, err)
			assert.Equal(t, StateComplete, res.State)
			assert.False(t, res.Partial)
			assert.False(t, res.Unverified, "diags: %v", res.Diags.Messages())
			assert.True(t, validate.Equal(reference, res.Doc),
				"level %s did not restore the original document", level)
		})
	}
}

func TestDecompressTemplateHoistedReferences(t *testing.T) {
	// Relationships reference entities that only template instantiation
	// restores; resolution is judged after staged expansion, not before.
	src := strings.Join([]string{
		`@service{alpha}:p{port:8080,region:"eu"}`,
		`@service{beta}:p{port:9090,region:"us"}`,
		"#alpha -> #beta",
	}, "\n")
	doc := parseDoc(t, src)
	compressed, err := compress.New(compress.DefaultOptions()).Compress(doc, types.LevelStandard)
	require.NoError(t, err)
	require.NotEmpty(t, compressed.Uses, "the repeated shape should be hoisted")

	res, err := New().Decompress(generate.Render(compressed))
	require.NoError(t, err)
	assert.Equal(t, StateComplete, res.State)
	assert.False(t, res.Partial, "diags: %v", res.Diags.Messages())
	assert.False(t, res.Diags.HasErrors())
	assert.True(t, validate.Equal(doc, res.Doc))
}

func TestDecompressRestoresAbbreviatedTemplates(t *testing.T) {
	// Template extraction runs after dictionary substitution, so synthesized
	// bodies and use arguments carry abbreviations that expansion must undo
	// before instantiating.
	src := strings.Join([]string{
		`@service{alpha_service}:p{region:"eu",owner:platform_team}`,
		`@service{beta_service}:p{region:"us",owner:platform_team}`,
		`@service{gamma_service}:p{region:"ap",owner:platform_team}`,
		"#alpha_service -> #beta_service",
	}, "\n")
	doc := parseDoc(t, src)
	compressed, err := compress.New(compress.DefaultOptions()).Compress(doc, types.LevelStandard)
	require.NoError(t, err)
	require.NotNil(t, compressed.Dict)
	require.NotEmpty(t, compressed.Uses)

	res, err := New().Decompress(generate.Render(compressed))
	require.NoError(t, err)
	assert.Equal(t, StateComplete, res.State)
	assert.False(t, res.Partial, "diags: %v", res.Diags.Messages())
	assert.False(t, res.Unverified, "the embedded checksum must verify after expansion")
	assert.True(t, validate.Equal(doc, res.Doc))

	for _, e := range res.Doc.Entities {
		assert.Equal(t, "service", e.Type)
		assert.True(t, e.Props.Has("region"))
		assert.True(t, e.Props.Has("owner"))
	}
}

func TestMissingBootstrapMarker(t *testing.T) {
	src := strings.Join([]string{
		"@service{auth}:p{stateless:true}",
		"#auth -> #auth",
	}, "\n")
	res, err := New().Decompress(src)
	require.NoError(t, err)
	assert.Equal(t, StateEmergency, res.State)
	assert.True(t, res.Partial)

	// Literal structures survive the fallback.
	e, ok := res.Doc.Entity("auth")
	require.True(t, ok)
	assert.Equal(t, "service", e.Type)
	require.NotEmpty(t, res.Diags)
	assert.Equal(t, parser.KindBootstrap, res.Diags[0].Kind)
}

func TestEmergencyDictionaryRecovery(t *testing.T) {
	// A dictionary survives in the stream even though the marker is gone.
	src := strings.Join([]string{
		"$dict{v1|s=service,a=auth}",
		"@s{a}:p{stateless:true}",
	}, "\n")
	res, err := New().Decompress(src)
	require.NoError(t, err)
	assert.Equal(t, StateEmergency, res.State)
	assert.True(t, res.Partial)

	e, ok := res.Doc.Entity("auth")
	require.True(t, ok, "dictionary reversal should restore the full id")
	assert.Equal(t, "service", e.Type)
	assert.Nil(t, res.Doc.Bootstrap)
	assert.Nil(t, res.Doc.ExpandPlan)
	assert.Empty(t, res.Doc.Checksum)
}

func TestUnsupportedNotationVersion(t *testing.T) {
	src := strings.Join([]string{
		"$knot{v2,mode:standard,recovery:true}",
		"@service{auth}",
	}, "\n")
	res, err := New().Decompress(src)
	require.NoError(t, err)
	assert.Equal(t, StateEmergency, res.State)
	assert.True(t, res.Partial)
	_, ok := res.Doc.Entity("auth")
	assert.True(t, ok)
}

func TestChecksumMismatchFlagsUnverified(t *testing.T) {
	doc := parseDoc(t, "@service{auth}:p{stateless:true}")
	compressed, err := compress.New(compress.DefaultOptions()).Compress(doc, types.LevelNone)
	require.NoError(t, err)
	require.NotEmpty(t, compressed.Checksum)

	stream := strings.Replace(generate.Render(compressed),
		compressed.Checksum, "ffffffffffffffff", 1)
	res, err := New().Decompress(stream)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, res.State)
	assert.True(t, res.Unverified)
	assert.False(t, res.Partial, "a failed verification alone is a warning, not an error")
	assert.Empty(t, res.Doc.Checksum)

	var kinds []parser.DiagKind
	for _, d := range res.Diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, parser.KindChecksum)
}

func TestMissingDictionaryMetadata(t *testing.T) {
	src := strings.Join([]string{
		"$knot{v1,mode:minimal,recovery:true}",
		"$expand{dictionary}",
		"@s{a}:p{k:1}",
	}, "\n")
	res, err := New().Decompress(src)
	require.NoError(t, err)
	assert.Equal(t, StateEmergency, res.State)
	assert.True(t, res.Partial)
	_, ok := res.Doc.Entity("a")
	assert.True(t, ok)
}

func TestMissingTemplateMetadata(t *testing.T) {
	src := strings.Join([]string{
		"$knot{v1,mode:standard,recovery:true}",
		"$expand{templates|svc}",
		"@s{a}:p{k:1}",
	}, "\n")
	res, err := New().Decompress(src)
	require.NoError(t, err)
	assert.Equal(t, StateEmergency, res.State)
	assert.True(t, res.Partial)
}

func TestExpansionDepthOverflowIsFatal(t *testing.T) {
	src := strings.Join([]string{
		"$knot{v1,mode:standard,recovery:true}",
		"$expand{templates|loop}",
		"%loop(x){%loop(x)}",
		"%loop(1)",
	}, "\n")
	res, err := New().Decompress(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExpansionDepthExceeded))
	assert.Nil(t, res)
}

func TestStructuralErrorsYieldPartialResult(t *testing.T) {
	src := strings.Join([]string{
		"$knot{v1,mode:none,recovery:true}",
		"@service{auth}",
		"#auth -> #missing",
	}, "\n")
	res, err := New().Decompress(src)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, res.State)
	assert.True(t, res.Partial)
	assert.True(t, res.Diags.HasErrors())
}
