package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knotlang/knot/cmd/knot/commands"
	"github.com/knotlang/knot/logger"
)

var rootCmd = &cobra.Command{
	Use:   "knot",
	Short: "knot - Compact knowledge notation toolchain",
	Long: `knot - Compact knowledge notation toolchain.

knot parses, compresses, and restores knowledge notation documents, and
converts them to and from the stable graph representation consumed by
external renderers.

Available commands:
  parse      - Parse notation and report diagnostics
  compress   - Compress notation at a chosen level
  decompress - Restore a compressed stream to expanded notation
  convert    - Convert between notation and the graph representation
  config     - Manage knot configuration
  version    - Show version information

Examples:
  knot parse doc.kn                     # Check a document
  knot compress --level extreme doc.kn  # Compress with every strategy
  knot decompress compact.kn            # Restore the original
  knot convert --to json doc.kn         # Export the graph representation
  knot config show                      # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(false, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output machine-readable JSON")

	rootCmd.AddCommand(commands.ParseCmd)
	rootCmd.AddCommand(commands.CompressCmd)
	rootCmd.AddCommand(commands.DecompressCmd)
	rootCmd.AddCommand(commands.ConvertCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
