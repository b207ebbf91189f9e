package display

import (
	"github.com/spf13/cobra"
)

// ShouldOutputJSON determines if a command should output JSON based on its
// local --json flag, falling back to the root persistent flag.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}

	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
	return globalFlag
}
