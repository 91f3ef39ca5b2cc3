package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/timeslice/internal/engine/batch"
)

const previewSize = 5

// chunkedTab drives the harness. Its fields are mutated by harness hooks,
// which run as bridge tasks inside Update, so no locking is needed.
type chunkedTab struct {
	harness *batch.Harness[int, float64]
	items   int
	mode    batch.Mode

	generated bool
	running   bool
	percent   int
	counter   int
	status    string
	preview   []float64
	snapshot  batch.ProgressSnapshot

	bar   progress.Model
	table table.Model
}

func newChunkedTab(bridge *Bridge, opts Options) (*chunkedTab, error) {
	c := &chunkedTab{
		items: opts.Items,
		mode:  batch.ModeChunked,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		table: newComparisonTable(),
	}

	logger := opts.Logger
	h, err := batch.NewHarness(bridge, batch.ExpensiveOperation(opts.Iterations),
		batch.HarnessOptions{ChunkSize: opts.ChunkSize, RetainResults: true, Logger: &logger},
		batch.Hooks{
			OnStart: func(mode batch.Mode) {
				c.running = true
				c.percent = 0
				c.snapshot = batch.ProgressSnapshot{}
				c.status = fmt.Sprintf("Processing %d items (%s)...", c.items, mode)
			},
			OnProgress: c.progress,
			OnComplete: c.complete,
		})
	if err != nil {
		return nil, fmt.Errorf("creating harness: %w", err)
	}
	c.harness = h
	return c, nil
}

func (c *chunkedTab) progress(mode batch.Mode, percent int) {
	c.percent = percent
	job := c.harness.Job()
	if mode != batch.ModeChunked || job == nil {
		return
	}
	c.snapshot = job.Progress()
	c.preview = job.Preview(previewSize)
}

func (c *chunkedTab) complete(mode batch.Mode, stats batch.RunStats) {
	c.running = false
	c.percent = 100
	c.status = fmt.Sprintf("%s processing took %s", mode, batch.FormatMillis(stats.Elapsed))
	results := c.harness.Results()
	c.preview = results[:min(previewSize, len(results))]
	c.refreshTable()
}

func (c *chunkedTab) handleKey(key string) {
	switch key {
	case "g":
		c.harness.SetBatch(batch.Sequence(c.items))
		c.generated = true
		c.running = false
		c.percent = 0
		c.preview = nil
		c.snapshot = batch.ProgressSnapshot{}
		c.status = fmt.Sprintf("Generated %d numbers", c.items)
		c.refreshTable()
	case "m":
		if c.running {
			return
		}
		if c.mode == batch.ModeChunked {
			c.mode = batch.ModeSingle
		} else {
			c.mode = batch.ModeChunked
		}
	case "s", keyEnter:
		c.start()
	case "c":
		if c.harness.Cancel() {
			c.running = false
			c.status = "Cancelled"
		}
	}
}

func (c *chunkedTab) start() {
	err := c.harness.Run(c.mode)
	switch {
	case err == nil:
	case errors.Is(err, batch.ErrNoBatch):
		c.status = "Press g to generate numbers first"
	case errors.Is(err, batch.ErrRunInProgress):
		c.status = "A run is already in progress"
	default:
		// OnStart already ran; nothing will call complete.
		c.running = false
		c.status = err.Error()
	}
}

func newComparisonTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Mode", Width: 12},
			{Title: "Time", Width: 14},
		}),
		table.WithHeight(3),
	)
	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t
}

func (c *chunkedTab) refreshTable() {
	timings := c.harness.Timings()
	cell := func(mode batch.Mode) string {
		if d, ok := timings.Get(mode); ok {
			return batch.FormatMillis(d)
		}
		return "-"
	}
	c.table.SetRows([]table.Row{
		{batch.ModeSingle.String(), cell(batch.ModeSingle)},
		{batch.ModeChunked.String(), cell(batch.ModeChunked)},
	})
}

func (c *chunkedTab) view(spin string, width int) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Chunked processing"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s   %s %d\n",
		LabelStyle.Render("Mode:"), ValueStyle.Render(c.mode.String()),
		LabelStyle.Render("Counter:"), c.counter)
	fmt.Fprintf(&b, "%s %s\n\n", LabelStyle.Render("Items:"), ValueStyle.Render(fmt.Sprint(c.items)))

	c.bar.Width = max(width-borderPadding*4, 10)
	b.WriteString(c.bar.ViewAs(float64(c.percent) / 100))
	fmt.Fprintf(&b, " %3d%%", c.percent)
	if c.running {
		b.WriteString(" " + spin)
	}
	b.WriteString("\n")
	if c.running && c.snapshot.ProcessedChunks > 0 {
		fmt.Fprintf(&b, "%s %.0f items/s   %s %s\n",
			LabelStyle.Render("Rate:"), c.snapshot.ItemsPerSecond,
			LabelStyle.Render("ETA:"), c.snapshot.Remaining.Round(time.Millisecond))
	}
	if c.status != "" {
		b.WriteString(InfoStyle.Render(c.status) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(c.table.View())
	b.WriteString("\n")
	if cmp, err := c.harness.Compare(); err == nil {
		style := InfoStyle
		if cmp.Longer {
			style = WarningStyle
		}
		b.WriteString(style.Render(cmp.String()) + "\n")
	}

	if len(c.preview) > 0 {
		parts := make([]string, len(c.preview))
		for i, v := range c.preview {
			parts[i] = fmt.Sprintf("%.2f", v)
		}
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("First results:"), strings.Join(parts, ", "))
	}

	b.WriteString("\n")
	b.WriteString(helpLine("g generate", "m mode", "s start", "c cancel"))
	return b.String()
}
