package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

func parseDoc(t *testing.T, src string) *types.Document {
	t.Helper()
	res := parser.Parse(src)
	require.False(t, res.Diags.HasErrors(), "diags: %v", res.Diags.Messages())
	return res.Doc
}

func TestDictionaryExpansion(t *testing.T) {
	doc := parseDoc(t, "$dict{c=concept,kr=knowledge_representation,d=domain}\n"+`@c{kr}:p{d:"ai"}`)
	require.NoError(t, New().Dictionary(doc))
	e, ok := doc.Entity("knowledge_representation")
	require.True(t, ok)
	assert.Equal(t, "concept", e.Type)
	v, ok := e.Props.Get("domain")
	require.True(t, ok)
	assert.Equal(t, "ai", v.Str)
	assert.Nil(t, doc.Dict)
}

func TestDictionaryExpansionRewritesReferences(t *testing.T) {
	doc := parseDoc(t, "$dict{a=alpha,b=beta}\n@svc{a} @svc{b}\n#a -> #b\n[ctx]{#a}")
	require.NoError(t, New().Dictionary(doc))
	assert.Equal(t, []string{"alpha"}, doc.Relationships[0].Sources)
	assert.Equal(t, []string{"beta"}, doc.Relationships[0].Targets)
	assert.Equal(t, []string{"alpha"}, doc.Contexts[0].Members)
}

func TestDictionaryChainedRename(t *testing.T) {
	// "b" expands to "c" while an entity currently named "c" expands to
	// "cd"; the two-phase rename keeps them from colliding.
	doc := parseDoc(t, "$dict{b=c,c=cd}\n@x{b} @x{c}")
	require.NoError(t, New().Dictionary(doc))
	_, hasC := doc.Entity("c")
	_, hasCD := doc.Entity("cd")
	assert.True(t, hasC)
	assert.True(t, hasCD)
}

func TestDictionaryExpansionReachesSynthesizedTemplates(t *testing.T) {
	doc := parseDoc(t, "$dict{s=service,r=region,as=auth_service}")
	doc.AddTemplate(&types.Template{
		Name:        "tpl_s",
		Params:      []string{"_id", "_v1"},
		Body:        "@s{_id}:p{r:_v1}",
		Synthesized: true,
	})
	doc.Uses = append(doc.Uses, &types.TemplateUse{Name: "tpl_s", Args: []string{"as", `"eu"`}})

	x := New()
	require.NoError(t, x.Dictionary(doc))
	assert.Equal(t, "@service{_id}:p{region:_v1}", doc.Templates["tpl_s"].Body)
	assert.Equal(t, []string{"auth_service", `"eu"`}, doc.Uses[0].Args)

	require.NoError(t, x.Templates(doc, []string{"tpl_s"}))
	e, ok := doc.Entity("auth_service")
	require.True(t, ok)
	assert.Equal(t, "service", e.Type)
	v, ok := e.Props.Get("region")
	require.True(t, ok)
	assert.Equal(t, "eu", v.Str)
}

func TestDictionaryExpansionLeavesAuthorTemplatesAlone(t *testing.T) {
	// An author body may spell a word that happens to be an abbreviation.
	doc := parseDoc(t, "$dict{s=service}\n%mk(id){@box{id}:p{mode:s}}\n%mk(a)")
	x := New()
	require.NoError(t, x.Dictionary(doc))
	require.NoError(t, x.Templates(doc, nil))
	e, ok := doc.Entity("a")
	require.True(t, ok)
	v, ok := e.Props.Get("mode")
	require.True(t, ok)
	assert.Equal(t, "s", v.Str)
}

func TestTemplateExpansion(t *testing.T) {
	doc := parseDoc(t, "%svc(name,port){@service{name}:p{port:port}}\n%svc(auth,8080)\n%svc(gw,9090)")
	require.NoError(t, New().Templates(doc, nil))
	require.Len(t, doc.Entities, 2)
	auth, ok := doc.Entity("auth")
	require.True(t, ok)
	port, ok := auth.Props.Get("port")
	require.True(t, ok)
	assert.Equal(t, 8080.0, port.Num)
	gw, ok := doc.Entity("gw")
	require.True(t, ok)
	port, ok = gw.Props.Get("port")
	require.True(t, ok)
	assert.Equal(t, 9090.0, port.Num)
	assert.Empty(t, doc.Uses)
}

func TestTemplateExpansionDepthCeiling(t *testing.T) {
	doc := parseDoc(t, "%loop(x){%loop(x)}\n%loop(go)")
	err := New().Templates(doc, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExpansionDepthExceeded))
}

func TestTemplateExpansionMissingTemplate(t *testing.T) {
	doc := parser.Parse("%ghost(a)").Doc
	err := New().Templates(doc, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestTemplateSubstitutionIsStructural(t *testing.T) {
	// A parameter named like a property key binds only in value position;
	// the key and the unrelated id "portal" stay literal.
	doc := parseDoc(t, "%p(port){@svc{portal}:p{port:port}}\n%p(8080)")
	require.NoError(t, New().Templates(doc, nil))
	portal, ok := doc.Entity("portal")
	require.True(t, ok)
	require.Equal(t, []string{"port"}, portal.Props.Keys())
	v, ok := portal.Props.Get("port")
	require.True(t, ok)
	assert.Equal(t, 8080.0, v.Num)
}

func TestTemplateParameterBindsReferences(t *testing.T) {
	doc := parseDoc(t, "@db{users}\n%conn(svc,store){@service{svc}\n#svc -> #store}\n%conn(auth,users)")
	require.NoError(t, New().Templates(doc, nil))
	_, ok := doc.Entity("auth")
	require.True(t, ok)
	require.Len(t, doc.Relationships, 1)
	assert.Equal(t, []string{"auth"}, doc.Relationships[0].Sources)
	assert.Equal(t, []string{"users"}, doc.Relationships[0].Targets)
}

func TestInheritanceExpansion(t *testing.T) {
	doc := parseDoc(t, strings.Join([]string{
		"@service{base_service}:p{stateless:true,secure:true}",
		"@service{auth}^base_service",
		"@service{authz}:p{secure:false}^base_service",
	}, "\n"))
	New().Inheritance(doc, []string{"base_service"})

	_, baseGone := doc.Entity("base_service")
	assert.False(t, baseGone)

	auth, ok := doc.Entity("auth")
	require.True(t, ok)
	v, ok := auth.Props.Get("stateless")
	require.True(t, ok)
	assert.True(t, v.Bool)
	assert.Empty(t, auth.Parents)

	// Child value wins on collision.
	authz, ok := doc.Entity("authz")
	require.True(t, ok)
	v, ok = authz.Props.Get("secure")
	require.True(t, ok)
	assert.False(t, v.Bool)
}

func TestInheritanceExpansionHonorsExceptions(t *testing.T) {
	doc := parseDoc(t, "@t{base}:p{a:1,b:2}\n@t{child}^base\\b")
	New().Inheritance(doc, []string{"base"})
	child, ok := doc.Entity("child")
	require.True(t, ok)
	assert.True(t, child.Props.Has("a"))
	assert.False(t, child.Props.Has("b"))
}

func TestInheritanceLeavesAuthoredParentsAlone(t *testing.T) {
	doc := parseDoc(t, "@t{parent}:p{a:1}\n@t{child}^parent")
	New().Inheritance(doc, nil)
	child, ok := doc.Entity("child")
	require.True(t, ok)
	assert.Equal(t, []string{"parent"}, child.Parents)
	assert.False(t, child.Props.Has("a"))
}

func TestContextAndPartitionDissolution(t *testing.T) {
	doc := parseDoc(t, "@s{a} @s{b}\n[keep]{#a}\nq{keep_p}[#a]")
	doc.Contexts = append(doc.Contexts, &types.Context{Name: "grp_a", Members: []string{"a", "b"}, Synthesized: true})
	doc.Partitions = append(doc.Partitions, &types.QuantumPartition{
		Kind: types.BoundaryCoherence, Label: "part_a", Members: []string{"a", "b"}, Synthesized: true,
	})
	doc.PartitionRels = append(doc.PartitionRels, types.PartitionRelation{A: "part_a", B: "keep_p"})

	x := New()
	x.Contexts(doc, []string{"grp_a"})
	x.Partitions(doc, []string{"part_a"})

	require.Len(t, doc.Contexts, 1)
	assert.Equal(t, "keep", doc.Contexts[0].Name)
	require.Len(t, doc.Partitions, 1)
	assert.Equal(t, "keep_p", doc.Partitions[0].Label)
	assert.Empty(t, doc.PartitionRels)
}

func TestAllFollowsEmbeddedPlan(t *testing.T) {
	src := strings.Join([]string{
		"$knot{v1,mode:standard,recovery:true}",
		"$expand{dictionary}",
		"$expand{inheritance|base_service}",
		"$dict{s=service,sl=stateless}",
		"@s{base_service}:p{sl:true}",
		"@s{auth}^base_service",
	}, "\n")
	doc := parseDoc(t, src)
	require.NoError(t, New().All(doc))

	auth, ok := doc.Entity("auth")
	require.True(t, ok)
	assert.Equal(t, "service", auth.Type)
	assert.True(t, auth.Props.Has("stateless"))
	assert.Nil(t, doc.Bootstrap)
	assert.Nil(t, doc.ExpandPlan)
	assert.Nil(t, doc.Dict)
	_, baseThere := doc.Entity("base_service")
	assert.False(t, baseThere)
}
