package bootstrap

import (
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/kn/validate"
	"github.com/knotlang/knot/logger"
	"github.com/knotlang/knot/sym"
	"github.com/knotlang/knot/version"
)

// State is the decompression state machine position. The machine only moves
// forward: SeekBootstrap → MinimalSyntaxLoad → StagedExpansion → Complete,
// with Emergency as the terminal state of any recoverable failure.
type State int

const (
	StateSeekBootstrap State = iota
	StateMinimalSyntaxLoad
	StateStagedExpansion
	StateComplete
	StateEmergency
)

func (s State) String() string {
	switch s {
	case StateSeekBootstrap:
		return "seek_bootstrap"
	case StateMinimalSyntaxLoad:
		return "minimal_syntax_load"
	case StateStagedExpansion:
		return "staged_expansion"
	case StateComplete:
		return "complete"
	case StateEmergency:
		return "emergency"
	}
	return "unknown"
}

// Result is the outcome of decompression. Partial marks best-effort
// reconstructions (emergency fallback or surviving structural errors);
// Unverified marks an expansion whose embedded checksum did not match.
// Callers must treat a Partial result as untrusted input, not as a verified
// document.
type Result struct {
	Doc        *types.Document
	State      State
	Partial    bool
	Unverified bool
	Diags      parser.Diagnostics
}

// Engine decompresses self-describing streams.
type Engine struct {
	MaxDepth int
}

// New returns an engine with the default template expansion depth bound.
func New() *Engine {
	return &Engine{MaxDepth: expand.DefaultMaxDepth}
}

// Decompress restores a document from notation text. A missing or
// incompatible bootstrap marker, or missing staged-expansion metadata,
// degrades to the emergency path and still returns whatever parsed
// unambiguously. Only template expansion depth overflow is fatal.
func (e *Engine) Decompress(src string) (*Result, error) {
	log := logger.Named("kn.bootstrap")

	// SeekBootstrap: the marker must be the first token of the stream.
	boot, ok := leadingBootstrap(src)
	if !ok {
		log.Debugw("bootstrap marker missing, entering emergency recovery")
		return e.emergency(src, parser.NewDiagnostic(parser.KindBootstrap,
			"stream does not begin with a $%s marker", sym.DirectiveBootstrap).
			WithSuggestion("only literal structures can be recovered"))
	}
	if !version.SupportedNotation(boot.Version) {
		log.Warnw("unsupported notation version", "version", boot.Version)
		return e.emergency(src, parser.NewDiagnostic(parser.KindBootstrap,
			"notation version %s is not supported by this build (current %s)",
			boot.Version, version.NotationVersion))
	}

	// MinimalSyntaxLoad: one parse collects directives, templates, and
	// literal structures alike; structural errors accumulate instead of
	// aborting. The linking pass is skipped here: a compressed stream
	// legitimately references entities that only staged expansion restores,
	// so resolution is checked after expansion instead.
	res := parser.ParseFragment(src)
	doc := res.Doc
	diags := res.Diags

	// StagedExpansion, in plan order. A stage that references metadata the
	// stream does not carry is a bootstrap failure, not a structural one.
	if missing := missingMetadata(doc); missing != nil {
		return e.emergency(src, missing)
	}
	x := &expand.Expander{MaxDepth: e.MaxDepth}
	if err := x.All(doc); err != nil {
		if errors.Is(err, errors.ErrExpansionDepthExceeded) {
			return nil, err
		}
		log.Warnw("staged expansion failed, entering emergency recovery", "error", err)
		return e.emergency(src, parser.NewDiagnostic(parser.KindBootstrap,
			"staged expansion failed: %v", err))
	}

	out := &Result{Doc: doc, State: StateComplete, Diags: diags}

	if doc.Checksum != "" {
		if got := validate.Fingerprint(doc); got != doc.Checksum {
			out.Unverified = true
			out.Diags = append(out.Diags, parser.NewDiagnostic(parser.KindChecksum,
				"checksum mismatch: stream declares fnv1a:%s, expansion hashes to fnv1a:%s",
				doc.Checksum, got).
				WithSeverity(parser.SeverityWarning))
		}
		doc.Checksum = ""
	}

	out.Diags = append(out.Diags, validate.Check(doc)...)
	if out.Diags.HasErrors() {
		out.Partial = true
	}
	return out, nil
}

// emergency is the best-effort terminal state: parse what is literally in
// the stream, apply the dictionary if one survived, and flag the result.
func (e *Engine) emergency(src string, cause *parser.Diagnostic) (*Result, error) {
	res := parser.Parse(src)
	doc := res.Doc
	x := &expand.Expander{MaxDepth: e.MaxDepth}
	if doc.Dict != nil {
		// Dictionary reversal is safe even on a damaged stream; it only
		// renames terms the table actually declares.
		if err := x.Dictionary(doc); err != nil {
			res.Diags = append(res.Diags, parser.NewDiagnostic(parser.KindBootstrap,
				"dictionary recovery failed: %v", err).WithSeverity(parser.SeverityWarning))
		}
	}
	doc.Bootstrap = nil
	doc.ExpandPlan = nil
	doc.Checksum = ""
	diags := append(parser.Diagnostics{cause}, res.Diags...)
	return &Result{
		Doc:     doc,
		State:   StateEmergency,
		Partial: true,
		Diags:   diags,
	}, nil
}

// leadingBootstrap reports the bootstrap marker if it is the stream's first
// token.
func leadingBootstrap(src string) (*types.Bootstrap, bool) {
	tokens, _ := parser.Scan(src)
	if len(tokens) == 0 {
		return nil, false
	}
	first := tokens[0]
	if first.Kind != parser.TokenDirective || first.Name != sym.DirectiveBootstrap {
		return nil, false
	}
	res := parser.Analyze(tokens[:1])
	if res.Doc.Bootstrap == nil {
		return nil, false
	}
	return res.Doc.Bootstrap, true
}

// missingMetadata checks that every planned stage has the metadata it
// needs: a dictionary step requires the embedded table, a template step the
// named definitions.
func missingMetadata(doc *types.Document) *parser.Diagnostic {
	for _, step := range doc.ExpandPlan {
		switch step.Stage {
		case types.StageDictionary:
			if doc.Dict == nil {
				return parser.NewDiagnostic(parser.KindBootstrap,
					"expansion plan names the dictionary stage but the stream carries no $%s table",
					sym.DirectiveDict)
			}
		case types.StageTemplates:
			for _, name := range step.Names {
				if _, ok := doc.Templates[name]; ok {
					continue
				}
				return parser.NewDiagnostic(parser.KindBootstrap,
					"expansion plan names template %%%s but the stream does not define it", name)
			}
		}
	}
	return nil
}
