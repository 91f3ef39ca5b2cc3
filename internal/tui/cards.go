package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// cardRenderCost is the busy time spent per card when the cheap render path
// is disabled.
var cardRenderCost = 2 * time.Millisecond

// cardsTab splits the selection into an urgent index, updated on the key
// press, and a deferred index, updated by a task queued behind it. The
// header follows the urgent index; the card highlight follows the deferred
// one, so a slow card render never delays the header.
type cardsTab struct {
	bridge   *Bridge
	count    int
	urgent   int
	deferred int
	pending  int
	// cheap skips the simulated per-card render cost.
	cheap bool
}

func newCardsTab(bridge *Bridge, count int) *cardsTab {
	return &cardsTab{bridge: bridge, count: max(count, 1), cheap: true}
}

func (c *cardsTab) clamp(i int) int {
	return min(max(i, 0), c.count-1)
}

func (c *cardsTab) move(delta int) {
	c.urgent = c.clamp(c.urgent + delta)
	c.pending++
	ok := c.bridge.Post(func() {
		c.deferred = c.clamp(c.deferred + delta)
		c.pending--
	})
	if !ok {
		c.pending--
	}
}

func (c *cardsTab) handleKey(key string) {
	switch key {
	case keyUp, "k", "left", "h":
		c.move(-1)
	case keyDown, "j", "right", "l":
		c.move(1)
	case "p":
		c.cheap = !c.cheap
	}
}

func (c *cardsTab) renderCard(i int) string {
	if !c.cheap {
		busyWait(cardRenderCost)
	}
	style := CardStyle
	if i == c.deferred {
		style = FocusedCardStyle
	}
	return style.Render(fmt.Sprintf("Card %d", i+1))
}

func busyWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) { //nolint:revive // intentional spin
	}
}

// cardHeight is the rendered height of one card including its border.
const cardHeight = 3

func (c *cardsTab) view(height int) string {
	var b strings.Builder

	render := "optimized"
	if !c.cheap {
		render = "expensive"
	}
	fmt.Fprintf(&b, "%s %s  %s %s",
		LabelStyle.Render("Active card:"), ValueStyle.Render(fmt.Sprint(c.urgent+1)),
		LabelStyle.Render("Render:"), ValueStyle.Render(render))
	if c.pending > 0 {
		b.WriteString(" " + SubtleStyle.Render(fmt.Sprintf("(%d pending)", c.pending)))
	}
	b.WriteString("\n\n")

	rows := max((height-4)/cardHeight, 1)
	first := c.clamp(c.deferred - rows/2)
	last := min(first+rows, c.count)
	first = max(last-rows, 0)

	cards := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		cards = append(cards, c.renderCard(i))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
	b.WriteString("\n")
	b.WriteString(helpLine("up/down select", "p toggle render cost"))
	return b.String()
}
