package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knotlang/knot/config"
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/bootstrap"
	"github.com/knotlang/knot/kn/generate"
)

// DecompressCmd represents the decompress command
var DecompressCmd = &cobra.Command{
	Use:   "decompress [file]",
	Short: "Restore a compressed stream to expanded notation",
	Long: `Restore a self-describing compressed stream to fully expanded notation.

The stream's $knot bootstrap marker drives a staged expansion (dictionary,
templates, inheritance, contexts, partitions). Streams without a readable
marker degrade to emergency recovery: every unambiguous structure is kept
and the result is flagged partial. A checksum mismatch is reported but the
expansion is still returned.

Examples:
  knot decompress compact.kn
  knot decompress -o restored.kn compact.kn
  knot decompress --force damaged.kn     # Exit 0 even on a partial result`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecompress,
}

var (
	decompressOutput string
	decompressForce  bool
)

func init() {
	DecompressCmd.Flags().StringVarP(&decompressOutput, "output", "o", "", "Output file (default stdout)")
	DecompressCmd.Flags().BoolVar(&decompressForce, "force", false, "Exit 0 even when the result is partial or unverified")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	src, err := readInput(args)
	if err != nil {
		return err
	}

	engine := &bootstrap.Engine{MaxDepth: cfg.MaxDepth()}
	res, err := engine.Decompress(src)
	if err != nil {
		return errors.Wrap(err, "decompression failed")
	}

	printDiagnostics(cmd, res.Diags)
	if res.State == bootstrap.StateEmergency {
		fmt.Fprintln(cmd.ErrOrStderr(), "emergency recovery: result is partial")
	}
	if res.Unverified {
		fmt.Fprintln(cmd.ErrOrStderr(), "checksum mismatch: result is unverified")
	}

	if err := writeOutput(decompressOutput, generate.Render(res.Doc)); err != nil {
		return err
	}

	if res.Partial && !decompressForce {
		return errors.New("decompression produced a partial result")
	}
	return nil
}
