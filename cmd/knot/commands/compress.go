package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knotlang/knot/config"
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/compress"
	"github.com/knotlang/knot/kn/generate"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

// CompressCmd represents the compress command
var CompressCmd = &cobra.Command{
	Use:   "compress [file]",
	Short: "Compress notation at a chosen level",
	Long: `Parse a notation document and rewrite it at the chosen compression level.

Levels select a fixed strategy pipeline:
  none     - no rewrites (bootstrap marker and checksum only)
  minimal  - dictionary substitution
  standard - + common-ancestor extraction, template extraction
  maximum  - + contextual grouping
  extreme  - + quantum partitioning

The output stream is self-describing: it begins with a $knot bootstrap
marker and carries everything needed to restore the original document.

Examples:
  knot compress doc.kn                       # Default level from config
  knot compress --level extreme doc.kn
  knot compress -o compact.kn doc.kn`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompress,
}

var (
	compressLevel  string
	compressOutput string
)

func init() {
	CompressCmd.Flags().StringVarP(&compressLevel, "level", "l", "", "Compression level: none, minimal, standard, maximum, extreme (default from config)")
	CompressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "Output file (default stdout)")
}

func runCompress(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	level, err := resolveLevel(cfg)
	if err != nil {
		return err
	}

	src, err := readInput(args)
	if err != nil {
		return err
	}

	res := parser.Parse(src)
	if res.Diags.HasErrors() {
		printDiagnostics(cmd, res.Diags)
		return errors.New("document has errors, not compressing")
	}

	out, err := compress.New(cfg.Options()).Compress(res.Doc, level)
	if err != nil {
		return errors.Wrap(err, "compression failed")
	}

	before := len(src)
	rendered := generate.Render(out)
	if err := writeOutput(compressOutput, rendered); err != nil {
		return err
	}
	if compressOutput != "" && compressOutput != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d -> %d bytes (level %s)\n",
			compressOutput, before, len(rendered), level)
	}
	return nil
}

func resolveLevel(cfg *config.Config) (types.Level, error) {
	if compressLevel != "" {
		return types.ParseLevel(compressLevel)
	}
	return cfg.Level()
}
