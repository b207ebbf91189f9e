package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knotlang/knot/display"
	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/parser"
	"github.com/knotlang/knot/kn/types"
)

// ParseCmd represents the parse command
var ParseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse notation and report diagnostics",
	Long: `Parse a notation document and report every diagnostic found.

Lexical and structural errors accumulate: the whole document is checked in
one pass and the full diagnostic list is reported. The exit status is
non-zero when any diagnostic has error severity.

Reads from stdin when no file is given.

Examples:
  knot parse doc.kn
  knot parse --json doc.kn      # Machine-readable result
  cat doc.kn | knot parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	ParseCmd.Flags().BoolP("json", "j", false, "Output result as JSON")
}

// parseResult is the machine-readable parse report.
type parseResult struct {
	Valid       bool        `json:"valid"`
	Stats       types.Stats `json:"stats"`
	Diagnostics []string    `json:"diagnostics,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	src, err := readInput(args)
	if err != nil {
		return err
	}

	res := parser.Parse(src)

	if display.ShouldOutputJSON(cmd) {
		out := parseResult{
			Valid:       res.Valid(),
			Stats:       res.Doc.Stats(),
			Diagnostics: res.Diags.Messages(),
		}
		if err := display.OutputJSON(out, true); err != nil {
			return err
		}
	} else {
		printDiagnostics(cmd, res.Diags)
		stats := res.Doc.Stats()
		fmt.Printf("%d entities, %d relationships, %d contexts, %d partitions\n",
			stats.Entities, stats.Relationships, stats.Contexts, stats.Partitions)
	}

	if res.Diags.HasErrors() {
		n := 0
		for _, d := range res.Diags {
			if d.Severity == parser.SeverityError {
				n++
			}
		}
		return errors.Newf("document has %d error(s)", n)
	}
	return nil
}
