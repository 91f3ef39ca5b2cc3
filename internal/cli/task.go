package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/timeslice/internal/task"
)

const defaultTaskDelay = time.Second

// NewTaskCmd creates the task command, which runs the sample step sequence.
func NewTaskCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Run the sample step sequence",
		Long: `Prints 1 to 4, pausing between steps. Interrupting with ctrl-c aborts the
sequence before its next step.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if delay < 0 {
				return fmt.Errorf("delay must be >= 0, got %s", delay)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			runner := task.NewRunner(task.Sample(cmd.OutOrStdout(), delay), logger)
			err := runner.Run(ctx)
			if errors.Is(err, task.ErrAborted) {
				cmd.PrintErrf("aborted after %d step(s)\n", runner.Steps())
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", defaultTaskDelay, "pause between steps")
	return cmd
}
