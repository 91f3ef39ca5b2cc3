package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Items:         1000,
		Iterations:    1,
		ChunkSize:     100,
		Cards:         5,
		ListItems:     200,
		ItemHeight:    1,
		ProbeInterval: 50 * time.Millisecond,
		ModalDelay:    10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	}
}

func newTestApp(t *testing.T) App {
	t.Helper()
	a, err := NewApp(context.Background(), testOptions())
	require.NoError(t, err)
	t.Cleanup(a.bridge.Close)
	return a
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case keyTab:
		return tea.KeyMsg{Type: tea.KeyTab}
	case keyShiftTab:
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case keyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case keyEsc:
		return tea.KeyMsg{Type: tea.KeyEscape}
	case keyUp:
		return tea.KeyMsg{Type: tea.KeyUp}
	case keyDown:
		return tea.KeyMsg{Type: tea.KeyDown}
	case keyCtrlC:
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

// press sends keys in order and returns the updated app and the last command.
func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var m tea.Model
		m, cmd = a.Update(keyMsg(k))
		var ok bool
		a, ok = m.(App)
		require.True(t, ok)
	}
	return a, cmd
}

// drain delivers WakeMsgs until the bridge is empty.
func drain(t *testing.T, a App) App {
	t.Helper()
	for a.bridge.Pending() > 0 {
		m, _ := a.Update(WakeMsg{})
		a = m.(App)
	}
	return a
}
