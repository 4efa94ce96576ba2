package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print neqnet version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "neqnet %s\n", Version)
		if GitCommit != "none" {
			fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", GitCommit)
		}
	},
}

func init() {
	AddCommand(versionCmd)
}
