package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/timeslice/pkg/version"
)

// NewVersionCmd prints build metadata.
func NewVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("timeslice %s\n", ver)
			cmd.Printf("commit: %s\n", version.GetCommit())
			cmd.Printf("built: %s\n", version.GetBuildDate())
		},
	}
}
