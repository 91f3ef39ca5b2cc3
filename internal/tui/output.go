package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode selects how command output is presented.
type OutputMode int

const (
	// OutputModePlain writes unstyled text, for pipes and CI logs.
	OutputModePlain OutputMode = iota
	// OutputModeStyled writes lipgloss-styled text to a terminal.
	OutputModeStyled
	// OutputModeInteractive runs a Bubble Tea program.
	OutputModeInteractive
)

// String returns the lowercase mode name.
func (m OutputMode) String() string {
	switch m {
	case OutputModeStyled:
		return "styled"
	case OutputModeInteractive:
		return "interactive"
	default:
		return "plain"
	}
}

// fallbackTerminalWidth is used when the terminal size cannot be read.
const fallbackTerminalWidth = 100

// DetectOutputMode picks a mode from the flags and the environment.
// forcePlain wins over everything; NO_COLOR and TERM=dumb disable styling;
// interactive mode needs both stdin and stdout to be terminals.
func DetectOutputMode(forcePlain, wantInteractive bool) OutputMode {
	if forcePlain || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return OutputModePlain
	}
	stdoutTTY := IsTerminal(os.Stdout)
	if !stdoutTTY {
		return OutputModePlain
	}
	if wantInteractive && IsTerminal(os.Stdin) {
		return OutputModeInteractive
	}
	return OutputModeStyled
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of stdout, or a fallback when unknown.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackTerminalWidth
	}
	return w
}
