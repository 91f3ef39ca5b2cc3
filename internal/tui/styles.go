package tui

import "github.com/charmbracelet/lipgloss"

// Layout defaults used before the first WindowSizeMsg arrives.
const (
	defaultWidth  = 80
	defaultHeight = 24
	borderPadding = 2
)

// Key names shared by the tab models.
const (
	keyQuit     = "q"
	keyCtrlC    = "ctrl+c"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyEnter    = "enter"
	keyEsc      = "esc"
	keyUp       = "up"
	keyDown     = "down"
)

// Colors.
var (
	colorAccent  = lipgloss.Color("39")
	colorSubtle  = lipgloss.Color("241")
	colorOK      = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorError   = lipgloss.Color("196")
)

// Styles.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	LabelStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	ValueStyle  = lipgloss.NewStyle().Bold(true)
	SubtleStyle = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true)
	InfoStyle   = lipgloss.NewStyle().Foreground(colorOK)

	WarningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	CriticalStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorAccent).
			Padding(0, 1)
	TabStyle = lipgloss.NewStyle().Foreground(colorSubtle).Padding(0, 1)

	FocusedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("15")).
				Padding(0, 2)
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true)
	TableSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
)
