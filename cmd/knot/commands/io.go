package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/parser"
)

// readInput returns the notation text from the first positional argument, or
// from stdin when the argument is absent or "-".
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", args[0])
	}
	return string(data), nil
}

// writeOutput writes text to path, or to stdout when path is empty or "-".
func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// printDiagnostics renders the diagnostic list on stderr, with terminal
// colors when stderr is a terminal-facing human context.
func printDiagnostics(cmd *cobra.Command, diags parser.Diagnostics) {
	ctx := parser.ErrorContextTerminal
	if jsonFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); jsonFlag {
		ctx = parser.ErrorContextPlain
	}
	for _, d := range diags {
		fmt.Fprintln(cmd.ErrOrStderr(), d.Format(ctx))
	}
}
