// Package tui is the interactive timeslice demo. It puts the chunked scheduler,
// list virtualization, deferred state updates and a lazily loaded overlay side
// by side so their effect on responsiveness can be felt at the keyboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/perf"
)

// interactionKeydown labels key handling latency in the observer.
const interactionKeydown = "keydown"

// Options sizes the demo.
type Options struct {
	Items         int
	Iterations    int
	ChunkSize     int
	Cards         int
	ListItems     int
	ItemHeight    int
	ProbeInterval time.Duration
	PerfThreshold time.Duration
	ModalDelay    time.Duration
	Logger        zerolog.Logger
}

// DefaultModalDelay is how long the overlay content takes to load.
const DefaultModalDelay = 800 * time.Millisecond

type tab int

const (
	tabChunked tab = iota
	tabList
	tabCards
	tabModal
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabChunked:
		return "Chunked"
	case tabList:
		return "Virtual list"
	case tabCards:
		return "Cards"
	case tabModal:
		return "Modal"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// App is the root Bubble Tea model.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type App struct {
	bridge   *Bridge
	observer *perf.Observer
	probe    *perf.Probe
	logger   zerolog.Logger

	active   tab
	width    int
	height   int
	spinner  spinner.Model
	quitting bool

	chunked *chunkedTab
	list    *listTab
	cards   *cardsTab
	modal   *modalTab
}

// NewApp builds the demo model. The returned bridge must be attached to the
// program running the model; Run does this.
func NewApp(ctx context.Context, opts Options) (App, error) {
	if opts.ModalDelay == 0 {
		opts.ModalDelay = DefaultModalDelay
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = perf.DefaultProbeInterval
	}

	logger := opts.Logger.With().Str("component", "tui").Logger()
	bridge := NewBridge()
	observer := perf.NewObserver(opts.PerfThreshold, nil, opts.Logger)
	probe, err := perf.NewProbe(bridge, opts.ProbeInterval, nil, observer, opts.Logger)
	if err != nil {
		return App{}, err
	}

	chunked, err := newChunkedTab(bridge, opts)
	if err != nil {
		return App{}, err
	}
	probe.OnTick(func(ticks int) { chunked.counter = ticks })

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = InfoStyle

	return App{
		bridge:   bridge,
		observer: observer,
		probe:    probe,
		logger:   logger,
		width:    defaultWidth,
		height:   defaultHeight,
		spinner:  sp,
		chunked:  chunked,
		list:     newListTab(opts, observer),
		cards:    newCardsTab(bridge, opts.Cards),
		modal:    newModalTab(ctx, bridge, opts.ModalDelay, opts.Logger),
	}, nil
}

// Init starts the spinner (Bubble Tea interface).
func (a App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages (Bubble Tea interface).
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case WakeMsg:
		a.bridge.RunOne()
		return a, nil
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.setSize(msg.Width, a.bodyHeight())
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case tea.KeyMsg:
		done := a.observer.Time(interactionKeydown)
		defer done()
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.active == tabModal && a.modal.open {
		a.modal.handleKey(key)
		return a, nil
	}

	switch key {
	case keyQuit, keyCtrlC:
		a.quitting = true
		a.chunked.harness.Cancel()
		return a, tea.Quit
	case keyTab:
		a.active = (a.active + 1) % tabCount
		return a, nil
	case keyShiftTab:
		a.active = (a.active + tabCount - 1) % tabCount
		return a, nil
	case "1", "2", "3", "4":
		a.active = tab(key[0] - '1')
		return a, nil
	}

	switch a.active {
	case tabChunked:
		a.chunked.handleKey(key)
	case tabList:
		a.list.handleKey(msg)
	case tabCards:
		a.cards.handleKey(key)
	case tabModal:
		a.modal.handleKey(key)
	case tabCount:
	}
	return a, nil
}

// bodyHeight is the space left for the active tab below the tab bar and
// above the footer.
func (a App) bodyHeight() int {
	const chrome = 4
	return max(a.height-chrome, 1)
}

// View renders the tab bar, the active tab and the footer (Bubble Tea interface).
func (a App) View() string {
	if a.quitting {
		return ""
	}

	var body string
	switch a.active {
	case tabChunked:
		body = a.chunked.view(a.spinner.View(), a.width)
	case tabList:
		body = a.list.view()
	case tabCards:
		body = a.cards.view(a.bodyHeight())
	case tabModal:
		body = a.modal.view(a.spinner.View(), a.width, a.bodyHeight())
	case tabCount:
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderTabs(), body, a.renderFooter())
}

func (a App) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := range tabCount {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == a.active {
			parts = append(parts, ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func (a App) renderFooter() string {
	var latency string
	for _, st := range a.observer.Stats() {
		if st.Name == interactionKeydown {
			latency = fmt.Sprintf("  keydown max %s mean %s", roundMillis(st.Max), roundMillis(st.Mean))
		}
	}
	help := "tab/1-4 switch  q quit"
	return SubtleStyle.Render(help + latency)
}

// Observer exposes the interaction latency observer.
func (a App) Observer() *perf.Observer {
	return a.observer
}

func roundMillis(d time.Duration) string {
	return d.Round(10 * time.Microsecond).String()
}

// Run starts the demo program and blocks until it exits.
func Run(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return fmt.Errorf("building demo: %w", err)
	}

	progOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, progOpts...)
	p := tea.NewProgram(app, progOpts...)
	app.bridge.Attach(p.Send)

	app.probe.Start(ctx)
	defer app.probe.Stop()
	defer app.bridge.Close()

	app.logger.Info().Int("items", opts.Items).Int("chunk_size", opts.ChunkSize).Msg("demo started")
	if _, err = p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running demo: %w", err)
	}
	return nil
}

// helpLine joins key hints for a tab footer.
func helpLine(hints ...string) string {
	return SubtleStyle.Render(strings.Join(hints, "  "))
}
