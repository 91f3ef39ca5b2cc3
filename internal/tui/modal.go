package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/lazy"
)

const modalWidth = 50

// modalTab shows an overlay whose body is produced by a lazy cell. The first
// open pays the load; later opens reuse the cached value.
type modalTab struct {
	ctx    context.Context
	bridge *Bridge
	cell   *lazy.Cell[string]

	open    bool
	loading bool
	request int
	content string
	err     error
}

func newModalTab(ctx context.Context, bridge *Bridge, delay time.Duration, logger zerolog.Logger) *modalTab {
	return &modalTab{
		ctx:    ctx,
		bridge: bridge,
		cell:   lazy.New("modal", loadModalContent(delay), logger),
	}
}

func loadModalContent(delay time.Duration) lazy.Loader[string] {
	return func(ctx context.Context) (string, error) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
		return strings.Join([]string{
			"This content was loaded on first open.",
			"",
			"Closing and reopening the dialog reuses it;",
			"press r to drop it and load again.",
		}, "\n"), nil
	}
}

func (m *modalTab) handleKey(key string) {
	switch key {
	case "o", keyEnter:
		if m.open {
			m.open = false
			return
		}
		m.show()
	case keyEsc:
		m.open = false
	case "r":
		m.cell.Reset()
		m.request++
		m.content = ""
		m.err = nil
		m.loading = false
		if m.open {
			m.show()
		}
	}
}

func (m *modalTab) show() {
	m.open = true
	if v, ok := m.cell.Value(); ok {
		m.content, m.err, m.loading = v, nil, false
		return
	}
	if m.loading {
		return
	}
	m.loading = true
	m.request++
	id := m.request
	m.cell.Request(m.ctx, func(v string, err error) {
		m.bridge.Post(func() { m.settle(id, v, err) })
	})
}

// settle applies the outcome of request id. Outcomes of requests made before
// the latest show or reset are dropped.
func (m *modalTab) settle(id int, v string, err error) {
	if id != m.request || !m.loading {
		return
	}
	m.loading = false
	m.content = v
	m.err = err
}

func (m *modalTab) view(spin string, width, height int) string {
	state := m.cell.State().String()
	header := fmt.Sprintf("%s %s", LabelStyle.Render("Content:"), ValueStyle.Render(state))
	help := helpLine("o open/close", "esc close", "r reload")
	if !m.open {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", "Press o to open the dialog.", "", help)
	}

	var body string
	switch {
	case m.loading:
		body = spin + " Loading..."
	case m.err != nil:
		body = CriticalStyle.Render("Failed: " + m.err.Error())
	default:
		body = m.content
	}
	box := BoxStyle.Width(min(modalWidth, max(width-borderPadding*2, 10))).
		Render(HeaderStyle.Render("Dialog") + "\n\n" + body)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.Place(width, max(height-3, lipgloss.Height(box)), lipgloss.Center, lipgloss.Center, box),
		help)
}
