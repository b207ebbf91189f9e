package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knotlang/knot/display"
	"github.com/knotlang/knot/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show knot version information",
	Long:  `Display version, notation format version, build time, commit hash, and platform information for the knot binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(info, true)
		}

		fmt.Println(info.String())
		fmt.Printf("Notation: %s\n", info.Notation)
		fmt.Printf("Platform: %s\n", info.Platform)
		fmt.Printf("Go: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
