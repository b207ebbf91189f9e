package config

import (
	"fmt"

	"github.com/knotlang/knot/kn/compress"
	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/types"
)

// Config represents the core knot configuration
type Config struct {
	Compress CompressConfig `mapstructure:"compress"`
	Expand   ExpandConfig   `mapstructure:"expand"`
	Output   OutputConfig   `mapstructure:"output"`
}

// CompressConfig configures the compression strategy thresholds
type CompressConfig struct {
	DefaultLevel string `mapstructure:"default_level"` // none, minimal, standard, maximum, extreme

	// Dictionary substitution
	MinOccurrences int `mapstructure:"min_occurrences"` // occurrences before a term earns an abbreviation (default: 3)

	// Common-ancestor extraction
	MinSharedProps int `mapstructure:"min_shared_props"` // identical property pairs before a parent is synthesized (default: 2)

	// Template extraction
	MinPatternUses int `mapstructure:"min_pattern_uses"` // matching shapes before a template is hoisted (default: 2)

	// Contextual grouping
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // Jaccard similarity over property-key sets (default: 0.8)

	// Quantum partitioning
	DensityRatio   float64 `mapstructure:"density_ratio"`    // intra/inter edge density required to emit a partition (default: 2.0)
	MinClusterSize int     `mapstructure:"min_cluster_size"` // members before a cluster becomes a partition (default: 3)
}

// ExpandConfig configures decompression and staged expansion
type ExpandConfig struct {
	MaxDepth int `mapstructure:"max_depth"` // template expansion depth bound, overflow is fatal (default: 32)
}

// OutputConfig configures CLI rendering
type OutputConfig struct {
	Pretty bool `mapstructure:"pretty"` // indent JSON output
	Color  bool `mapstructure:"color"`  // colored terminal diagnostics
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Options maps the configured thresholds onto the strategy engine's options.
// Zero values fall through to the engine defaults.
func (c *Config) Options() compress.Options {
	return compress.Options{
		MinOccurrences: c.Compress.MinOccurrences,
		MinSharedProps: c.Compress.MinSharedProps,
		MinPatternUses: c.Compress.MinPatternUses,
		Similarity:     c.Compress.SimilarityThreshold,
		DensityRatio:   c.Compress.DensityRatio,
		MinClusterSize: c.Compress.MinClusterSize,
	}
}

// Level returns the configured default compression level.
func (c *Config) Level() (types.Level, error) {
	if c.Compress.DefaultLevel == "" {
		return types.LevelStandard, nil
	}
	return types.ParseLevel(c.Compress.DefaultLevel)
}

// MaxDepth returns the expansion depth bound, falling back to the engine
// default when unset.
func (c *Config) MaxDepth() int {
	if c.Expand.MaxDepth <= 0 {
		return expand.DefaultMaxDepth
	}
	return c.Expand.MaxDepth
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Compress: {Level: %s, MinOccurrences: %d}, Expand: {MaxDepth: %d}}",
		c.Compress.DefaultLevel, c.Compress.MinOccurrences, c.Expand.MaxDepth)
}
