package compress

import (
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/kn/validate"
	"github.com/knotlang/knot/logger"
	"github.com/knotlang/knot/version"
)

// Options tune the individual strategies. Zero-value fields fall back to
// the defaults, so callers can override selectively.
type Options struct {
	MinOccurrences int     // dictionary admission threshold
	MinSharedProps int     // common-ancestor extraction minimum shared pairs
	MinPatternUses int     // template extraction minimum shape occurrences
	Similarity     float64 // contextual grouping Jaccard threshold
	DensityRatio   float64 // quantum partitioning intra/inter density ratio
	MinClusterSize int     // contextual and quantum minimum group size
}

// DefaultOptions returns the documented strategy defaults.
func DefaultOptions() Options {
	return Options{
		MinOccurrences: 3,
		MinSharedProps: 2,
		MinPatternUses: 2,
		Similarity:     0.8,
		DensityRatio:   2.0,
		MinClusterSize: 3,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MinOccurrences <= 0 {
		o.MinOccurrences = def.MinOccurrences
	}
	if o.MinSharedProps <= 0 {
		o.MinSharedProps = def.MinSharedProps
	}
	if o.MinPatternUses <= 0 {
		o.MinPatternUses = def.MinPatternUses
	}
	if o.Similarity <= 0 {
		o.Similarity = def.Similarity
	}
	if o.DensityRatio <= 0 {
		o.DensityRatio = def.DensityRatio
	}
	if o.MinClusterSize <= 0 {
		o.MinClusterSize = def.MinClusterSize
	}
	return o
}

// Strategy is one graph-rewrite pass. Apply mutates the document and
// returns the names of structures it synthesized, for the expansion plan.
// Every strategy is idempotent: re-applying it to its own output changes
// nothing.
type Strategy interface {
	Stage() types.ExpandStage
	Apply(doc *types.Document, opts Options) (names []string, changed bool)
}

// ForLevel returns the strategies a compression level runs, in the fixed
// pipeline order: dictionary substitution, common-ancestor extraction,
// template extraction, contextual grouping, quantum partitioning. Later
// strategies assume the graph shape earlier ones leave behind.
func ForLevel(level types.Level) []Strategy {
	var out []Strategy
	if level.AtLeast(types.LevelMinimal) {
		out = append(out, &dictionaryStrategy{})
	}
	if level.AtLeast(types.LevelStandard) {
		out = append(out, &ancestorStrategy{}, &templateStrategy{})
	}
	if level.AtLeast(types.LevelMaximum) {
		out = append(out, &contextualStrategy{})
	}
	if level.AtLeast(types.LevelExtreme) {
		out = append(out, &quantumStrategy{})
	}
	return out
}

// Engine runs the strategy pipeline for a compression level.
type Engine struct {
	opts Options
}

// New returns an engine with the given options.
func New(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Compress returns a compressed copy of the document: strategies applied in
// order, bootstrap marker and staged expansion plan attached, and a
// checksum of the fully expanded canonical form embedded for post-recovery
// verification. The input document is not modified.
func (e *Engine) Compress(doc *types.Document, level types.Level) (*types.Document, error) {
	log := logger.Named("kn.compress")

	reference := doc.Clone()
	if err := expand.New().All(reference); err != nil {
		return nil, errors.Wrap(err, "computing reference checksum")
	}
	checksum := validate.Fingerprint(reference)

	out := doc.Clone()
	planNames := make(map[types.ExpandStage][]string, len(types.StageOrder))
	for _, step := range out.ExpandPlan {
		planNames[step.Stage] = append(planNames[step.Stage], step.Names...)
	}
	ranStage := make(map[types.ExpandStage]bool, len(out.ExpandPlan))
	for _, step := range out.ExpandPlan {
		ranStage[step.Stage] = true
	}

	for _, s := range ForLevel(level) {
		names, changed := s.Apply(out, e.opts)
		if changed {
			log.Debugw("compression strategy applied",
				"stage", string(s.Stage()), "synthesized", len(names))
			ranStage[s.Stage()] = true
			planNames[s.Stage()] = append(planNames[s.Stage()], names...)
		}
	}

	out.ExpandPlan = nil
	for _, stage := range types.StageOrder {
		if ranStage[stage] {
			out.ExpandPlan = append(out.ExpandPlan, types.ExpandStep{
				Stage: stage, Names: planNames[stage],
			})
		}
	}
	out.Bootstrap = &types.Bootstrap{
		Version:  version.NotationVersion,
		Mode:     level,
		Recovery: true,
	}
	out.Checksum = checksum
	return out, nil
}
