package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/timeslice/internal/config"
	"github.com/rshade/timeslice/internal/tui"
)

// ErrNotATerminal is returned by demo when stdin or stdout is redirected.
var ErrNotATerminal = errors.New("the demo needs an interactive terminal; use bench instead")

// NewDemoCmd creates the demo command.
func NewDemoCmd() *cobra.Command {
	var items int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Open the interactive responsiveness demo",
		Long: `Opens a terminal UI with four tabs: chunked processing with a live counter,
a virtualized list, cards with deferred selection, and a lazily loaded dialog.
Log output is suppressed unless logging goes to a file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !tui.IsTerminal(os.Stdin) || !tui.IsTerminal(os.Stdout) {
				return ErrNotATerminal
			}

			cfg := config.GetGlobalConfig()
			opts := tui.Options{
				Items:         cfg.Workload.Items,
				Iterations:    cfg.Workload.Iterations,
				ChunkSize:     cfg.Workload.ChunkSize,
				Cards:         cfg.UI.Cards,
				ListItems:     cfg.UI.ListItems,
				ItemHeight:    cfg.UI.ItemHeight,
				ProbeInterval: cfg.Probe.Interval,
				PerfThreshold: cfg.Perf.Threshold,
				Logger:        terminalUILogger(cmd),
			}
			if cmd.Flags().Changed("items") {
				opts.Items = items
			}
			return tui.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&items, "items", 0, "number of items to generate (default from config)")
	return cmd
}
