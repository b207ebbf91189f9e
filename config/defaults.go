package config

import (
	"github.com/spf13/viper"

	"github.com/knotlang/knot/kn/compress"
	"github.com/knotlang/knot/kn/expand"
	"github.com/knotlang/knot/kn/types"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	opts := compress.DefaultOptions()

	// Compression defaults
	v.SetDefault("compress.default_level", string(types.LevelStandard))
	v.SetDefault("compress.min_occurrences", opts.MinOccurrences)
	v.SetDefault("compress.min_shared_props", opts.MinSharedProps)
	v.SetDefault("compress.min_pattern_uses", opts.MinPatternUses)
	v.SetDefault("compress.similarity_threshold", opts.Similarity)
	v.SetDefault("compress.density_ratio", opts.DensityRatio)
	v.SetDefault("compress.min_cluster_size", opts.MinClusterSize)

	// Expansion defaults
	v.SetDefault("expand.max_depth", expand.DefaultMaxDepth)

	// Output defaults
	v.SetDefault("output.pretty", true)
	v.SetDefault("output.color", true)
}

// BindSensitiveEnvVars explicitly binds configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("compress.default_level", "KNOT_COMPRESS_LEVEL")
	v.BindEnv("expand.max_depth", "KNOT_EXPAND_MAX_DEPTH")
	v.BindEnv("output.color", "KNOT_OUTPUT_COLOR")
}
