package config

import (
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/types"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Compress.DefaultLevel != "" {
		if _, err := types.ParseLevel(c.Compress.DefaultLevel); err != nil {
			return errors.Wrap(err, "compress.default_level")
		}
	}

	// Thresholds: 0 = use engine default, negative = invalid
	if c.Compress.MinOccurrences < 0 {
		return errors.Newf("compress.min_occurrences must be >= 0, got %d", c.Compress.MinOccurrences)
	}
	if c.Compress.MinSharedProps < 0 {
		return errors.Newf("compress.min_shared_props must be >= 0, got %d", c.Compress.MinSharedProps)
	}
	if c.Compress.MinPatternUses < 0 {
		return errors.Newf("compress.min_pattern_uses must be >= 0, got %d", c.Compress.MinPatternUses)
	}
	if c.Compress.MinClusterSize < 0 {
		return errors.Newf("compress.min_cluster_size must be >= 0, got %d", c.Compress.MinClusterSize)
	}

	if c.Compress.SimilarityThreshold < 0 || c.Compress.SimilarityThreshold > 1 {
		return errors.Newf("compress.similarity_threshold must be within [0, 1], got %f",
			c.Compress.SimilarityThreshold)
	}
	if c.Compress.DensityRatio < 0 {
		return errors.Newf("compress.density_ratio must be >= 0, got %f", c.Compress.DensityRatio)
	}

	if c.Expand.MaxDepth < 0 {
		return errors.Newf("expand.max_depth must be >= 0, got %d", c.Expand.MaxDepth)
	}

	return nil
}
