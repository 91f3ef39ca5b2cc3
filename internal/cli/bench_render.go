package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/timeslice/internal/tui"
)

const tabPadding = 2

// benchStyled reports whether the table gets lipgloss headings.
func benchStyled(cmd *cobra.Command) bool {
	if cmd.OutOrStdout() != os.Stdout {
		return false
	}
	return tui.DetectOutputMode(false, false) == tui.OutputModeStyled
}

func renderBenchJSON(w io.Writer, report *BenchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding bench report: %w", err)
	}
	return nil
}

func renderBenchTable(w io.Writer, report *BenchReport, styled bool) error {
	p := message.NewPrinter(language.English)
	heading := func(s string) string {
		if styled {
			return tui.HeaderStyle.Render(s)
		}
		return s
	}

	p.Fprintf(w, "%s\n", heading("Workload"))
	p.Fprintf(w, "  items %d, iterations %d, chunk size %d\n\n",
		report.Items, report.Iterations, report.ChunkSize)

	p.Fprintf(w, "%s\n", heading("Runs"))
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "MODE\tELAPSED\tMAX TURN\tTURNS\tFAILURES\tPROBE TICKS\tMAX LATENESS\tMEAN LATENESS")
	for _, r := range report.Runs {
		p.Fprintf(tw, "%s\t%.2fms\t%.2fms\t%d\t%d\t%d\t%.2fms\t%.2fms\n",
			r.Mode, r.ElapsedMS, r.MaxTurnMS, r.Turns, r.Failures,
			r.ProbeTicks, r.MaxLatenessMS, r.MeanLatenessMS)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing bench table: %w", err)
	}

	if report.Comparison != nil {
		summary := report.Comparison.Summary
		if styled {
			style := tui.InfoStyle
			if report.Comparison.Label == "longer" {
				style = tui.WarningStyle
			}
			summary = style.Render(summary)
		}
		p.Fprintf(w, "\n%s\n", summary)
	}
	if report.ResultsMatch != nil && !*report.ResultsMatch {
		p.Fprintf(w, "warning: single and chunked results differ\n")
	}
	return nil
}
