package parser

import (
	"strconv"
	"strings"

	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/sym"
)

// Result is the outcome of structural analysis: the best-effort document
// plus every accumulated diagnostic. Analysis never stops at the first
// error; callers check Diags.HasErrors() to decide whether the document is
// fully valid.
type Result struct {
	Doc   *types.Document
	Diags Diagnostics
}

// Valid reports whether analysis produced no error-severity diagnostics.
func (r *Result) Valid() bool {
	return !r.Diags.HasErrors()
}

type analyzer struct {
	doc   *types.Document
	diags Diagnostics
	anon  int // sequence for synthetic anonymous ids, deterministic per document
}

// Analyze builds a Document from a token stream in two sub-passes: a
// collection pass registering every declaration (forward references
// allowed), then a linking pass resolving references, inheritance, and
// template instantiations.
func Analyze(tokens []Token) *Result {
	a := &analyzer{doc: types.NewDocument()}
	a.collect(tokens, "")
	a.link()
	return &Result{Doc: a.doc, Diags: a.diags}
}

// node is a pending relationship operand during collection.
type node struct {
	ids []string
	tok Token
}

func (a *analyzer) collect(tokens []Token, ctxName string) {
	var pending *node

	flushPending := func() {
		// A lone reference inside a context body declares membership and
		// nothing else; a lone reference at top level is a no-op mention.
		pending = nil
	}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.Kind {
		case TokenEntity:
			flushPending()
			var consumed int
			e := a.collectEntity(tokens[i:], &consumed)
			i += consumed
			a.addToScope(ctxName, e.ID)
			pending = &node{ids: []string{e.ID}, tok: tok}
			continue

		case TokenReference:
			flushPending()
			a.addToScope(ctxName, tok.ID)
			pending = &node{ids: []string{tok.ID}, tok: tok}

		case TokenRefList:
			flushPending()
			for _, id := range tok.Args {
				a.addToScope(ctxName, id)
			}
			pending = &node{ids: tok.Args, tok: tok}

		case TokenRelOp:
			if pending == nil {
				a.structural(tok, "relationship operator %q without a left-hand side", tok.Name).
					WithSuggestion("write #source %s #target", tok.Name)
				i++
				continue
			}
			var consumed int
			a.collectRelationship(pending, tokens[i:], ctxName, &consumed)
			pending = nil
			i += consumed
			continue

		case TokenContext:
			flushPending()
			a.collectContext(tok, ctxName)

		case TokenQuantum:
			flushPending()
			// `q{a} >< q{b}` relates two partitions by label.
			if i+2 < len(tokens) && tokens[i+1].Kind == TokenPartitionRel && tokens[i+2].Kind == TokenQuantum {
				a.collectQuantum(tok)
				a.collectQuantum(tokens[i+2])
				a.doc.PartitionRels = append(a.doc.PartitionRels, types.PartitionRelation{
					A: tok.Name, B: tokens[i+2].Name,
				})
				i += 3
				continue
			}
			a.collectQuantum(tok)

		case TokenPartitionRel:
			a.structural(tok, "partition relation %q must connect two q{...} labels", sym.OpPartitionRel).
				WithSuggestion("write q{first} >< q{second}")

		case TokenDirective:
			flushPending()
			a.collectDirective(tok)

		case TokenTemplateDef:
			flushPending()
			t := &types.Template{Name: tok.Name, Params: tok.Args, Body: tok.Body}
			if !a.doc.AddTemplate(t) {
				a.structural(tok, "duplicate template %%%s", tok.Name).
					WithSuggestion("rename one of the definitions")
			}

		case TokenTemplateUse:
			flushPending()
			a.doc.Uses = append(a.doc.Uses, &types.TemplateUse{
				Name: tok.Name, Args: tok.Args, Context: ctxName,
			})

		case TokenPropertyBlock, TokenTagBlock, TokenInherit:
			a.structural(tok, "%s without a preceding entity", tok.Kind).
				WithSuggestion("attach it directly after @type{id}")
		}
		i++
	}
}

// collectEntity consumes an entity token and its suffix tokens (property
// blocks, tag blocks, inheritance markers) and registers the entity.
func (a *analyzer) collectEntity(tokens []Token, consumed *int) *types.Entity {
	tok := tokens[0]
	e := types.NewEntity(tok.Name, tok.ID)
	if tok.Anonymous {
		a.anon++
		e.Anonymous = true
		e.ID = types.SyntheticIDPrefix + strconv.Itoa(a.anon)
	}
	n := 1
	for n < len(tokens) {
		switch tokens[n].Kind {
		case TokenPropertyBlock:
			e.Props = append(e.Props, a.parseProps(tokens[n])...)
		case TokenTagBlock:
			for _, t := range splitTopLevel(tokens[n].Body, ',') {
				if t = strings.TrimSpace(t); t != "" {
					e.AddTag(t)
				}
			}
		case TokenInherit:
			e.Parents = append(e.Parents, tokens[n].Args...)
			e.Exceptions = append(e.Exceptions, tokens[n].Exceptions...)
		default:
			*consumed = n
			a.registerEntity(tok, e)
			return e
		}
		n++
	}
	*consumed = n
	a.registerEntity(tok, e)
	return e
}

func (a *analyzer) registerEntity(tok Token, e *types.Entity) {
	if !a.doc.AddEntity(e) {
		a.structural(tok, "duplicate entity id %q", e.ID).
			WithSuggestion("entity ids must be unique within a document").
			WithSuggestion("first declaration wins; this one is ignored")
	}
}

// collectRelationship consumes the operator, the right-hand node, and an
// optional trailing property block. A property block directly after an
// inline rhs entity belongs to that entity; after a reference or reference
// list it belongs to the relationship.
func (a *analyzer) collectRelationship(lhs *node, tokens []Token, ctxName string, consumed *int) {
	opTok := tokens[0]
	op, _ := types.RelOpFromGlyph(opTok.Name)
	rel := &types.Relationship{Sources: lhs.ids, Op: op}
	if ctxName != "" {
		rel.Contexts = []string{ctxName}
	}

	n := 1
	if n >= len(tokens) {
		a.structural(opTok, "relationship operator %q without a right-hand side", opTok.Name).
			WithSuggestion("write #source %s #target", opTok.Name)
		*consumed = n
		return
	}
	rhs := tokens[n]
	switch rhs.Kind {
	case TokenReference:
		rel.Targets = []string{rhs.ID}
		a.addToScope(ctxName, rhs.ID)
		n++
		if n < len(tokens) && tokens[n].Kind == TokenPropertyBlock {
			rel.Props = a.parseProps(tokens[n])
			n++
		}
	case TokenRefList:
		rel.Targets = rhs.Args
		for _, id := range rhs.Args {
			a.addToScope(ctxName, id)
		}
		n++
		if n < len(tokens) && tokens[n].Kind == TokenPropertyBlock {
			rel.Props = a.parseProps(tokens[n])
			n++
		}
	case TokenEntity:
		var sub int
		e := a.collectEntity(tokens[n:], &sub)
		a.addToScope(ctxName, e.ID)
		rel.Targets = []string{e.ID}
		n += sub
	default:
		a.structural(rhs, "relationship operator %q followed by %s, expected a reference or entity", opTok.Name, rhs.Kind).
			WithSuggestion("write #source %s #target", opTok.Name)
		*consumed = n
		return
	}
	a.doc.Relationships = append(a.doc.Relationships, rel)
	*consumed = n
}

func (a *analyzer) collectContext(tok Token, parent string) {
	ctx := &types.Context{Name: tok.Name, Parent: parent}
	a.doc.Contexts = append(a.doc.Contexts, ctx)
	sub, lexDiags := Scan(tok.Body)
	a.diags = append(a.diags, lexDiags...)
	a.collect(sub, tok.Name)
}

func (a *analyzer) collectQuantum(tok Token) {
	kind, ok := types.ParseBoundaryKind(tok.QuantKind)
	if !ok {
		a.structural(tok, "unknown partition boundary kind %q", tok.QuantKind).
			WithSuggestion("valid kinds: coherence, complexity, purpose, context, perspective, temporal")
		kind = types.BoundaryCoherence
	}
	// A bare q{label} with no kind, weight, or members is only a label
	// mention (partition-relation operand), not a declaration.
	if tok.QuantKind == "" && tok.Weight == nil && len(tok.Members) == 0 {
		return
	}
	for _, p := range a.doc.Partitions {
		if p.Label == tok.Name && p.Kind == kind {
			for _, m := range tok.Members {
				if !p.HasMember(m) {
					p.Members = append(p.Members, m)
				}
			}
			return
		}
	}
	a.doc.Partitions = append(a.doc.Partitions, &types.QuantumPartition{
		Kind:    kind,
		Label:   tok.Name,
		Weight:  tok.Weight,
		Members: tok.Members,
	})
}

func (a *analyzer) collectDirective(tok Token) {
	switch tok.Name {
	case sym.DirectiveBootstrap:
		a.doc.Bootstrap = parseBootstrapBody(tok.Body)

	case sym.DirectiveExpand:
		stage, names := parseExpandBody(tok.Body)
		if !validStage(stage) {
			a.structural(tok, "unknown expansion stage %q", string(stage)).
				WithSuggestion("valid stages: dictionary, templates, inheritance, contexts, partitions")
			return
		}
		a.doc.ExpandPlan = append(a.doc.ExpandPlan, types.ExpandStep{Stage: stage, Names: names})

	case sym.DirectiveDict:
		dict, diag := parseDictBody(tok.Body)
		if diag != nil {
			a.diags = append(a.diags, diag.WithRange(tok.Range))
			return
		}
		a.doc.Dict = dict

	case sym.DirectiveChecksum:
		body := strings.TrimSpace(tok.Body)
		if h, ok := strings.CutPrefix(body, "fnv1a:"); ok {
			a.doc.Checksum = strings.TrimSpace(h)
		} else {
			a.structural(tok, "unsupported checksum algorithm in $checksum{%s}", body).
				WithSuggestion("only fnv1a is supported: $checksum{fnv1a:<hex>}")
		}

	case sym.DirectivePreserve:
		for _, id := range splitTopLevel(tok.Body, ',') {
			id = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(id), "#"))
			if id != "" {
				a.doc.Preserve = append(a.doc.Preserve, id)
			}
		}

	case sym.DirectiveCompress:
		// Author hint that the enclosed region is compressible; carries no
		// structural meaning for analysis.

	default:
		a.diags = append(a.diags, NewDiagnostic(KindStructural,
			"unknown directive $%s", tok.Name).
			WithSeverity(SeverityWarning).
			WithToken(tok.Text).
			WithRange(tok.Range).
			WithSuggestion("known directives: $knot, $expand, $dict, $checksum, $compress, $preserve"))
	}
}

func (a *analyzer) addToScope(ctxName, id string) {
	if ctxName == "" {
		return
	}
	for _, c := range a.doc.Contexts {
		if c.Name == ctxName {
			c.AddMember(id)
			return
		}
	}
}

func (a *analyzer) parseProps(tok Token) types.Properties {
	var props types.Properties
	for _, pair := range splitTopLevel(tok.Body, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, rawVal, ok := cutTopLevel(pair, ':')
		if !ok {
			a.structural(tok, "malformed property %q", pair).
				WithSuggestion("write key:value inside :p{...}")
			continue
		}
		props.Set(strings.TrimSpace(key), types.ParseValue(rawVal))
	}
	return props
}

func (a *analyzer) structural(tok Token, format string, args ...interface{}) *Diagnostic {
	d := NewDiagnostic(KindStructural, format, args...).
		WithToken(tok.Text).
		WithRange(tok.Range)
	a.diags = append(a.diags, d)
	return d
}

// cutTopLevel splits s at the first sep outside quotes and nesting.
func cutTopLevel(s string, sep byte) (string, string, bool) {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func validStage(s types.ExpandStage) bool {
	for _, known := range types.StageOrder {
		if s == known {
			return true
		}
	}
	return false
}

// parseBootstrapBody decodes "v1,mode:standard,recovery:true".
func parseBootstrapBody(body string) *types.Bootstrap {
	b := &types.Bootstrap{Version: "v1", Mode: types.LevelStandard}
	for i, part := range splitTopLevel(body, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := cutTopLevel(part, ':')
		if !ok {
			if i == 0 {
				b.Version = part
			}
			continue
		}
		switch strings.TrimSpace(key) {
		case "mode":
			if l, err := types.ParseLevel(val); err == nil {
				b.Mode = l
			}
		case "recovery":
			b.Recovery = strings.TrimSpace(val) == "true"
		}
	}
	return b
}

// parseExpandBody decodes "stage" or "stage|name1,name2".
func parseExpandBody(body string) (types.ExpandStage, []string) {
	stage, rest, found := strings.Cut(body, "|")
	var names []string
	if found {
		for _, n := range splitTopLevel(rest, ',') {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	return types.ExpandStage(strings.TrimSpace(stage)), names
}

// parseDictBody decodes "v1|abbr=full,abbr2=full2".
func parseDictBody(body string) (*types.Dictionary, *Diagnostic) {
	version := 1
	if v, rest, found := strings.Cut(body, "|"); found && strings.HasPrefix(strings.TrimSpace(v), "v") {
		if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(v), "v")); err == nil && n > 0 {
			version = n
			body = rest
		}
	}
	fullToAbbr := make(map[string]string)
	for _, entry := range splitTopLevel(body, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		abbr, full, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, NewDiagnostic(KindStructural,
				"malformed dictionary entry %q", entry).
				WithSuggestion("write $dict{abbr=full_term,...}")
		}
		fullToAbbr[strings.TrimSpace(full)] = strings.TrimSpace(abbr)
	}
	return types.NewDictionary(version, fullToAbbr), nil
}
