package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/timeslice/internal/perf"
	listview "github.com/rshade/timeslice/internal/tui/list"
)

// List size bounds for the +/- keys.
const (
	minListItems  = 100
	maxListItems  = 10000
	listItemsStep = 100
)

const interactionScroll = "scroll"

type listItem struct {
	ID          int
	Title       string
	Description string
}

func makeListItems(n int) []listItem {
	out := make([]listItem, n)
	for i := range out {
		out[i] = listItem{
			ID:          i,
			Title:       fmt.Sprintf("Item %d", i),
			Description: fmt.Sprintf("This is a description for item %d", i),
		}
	}
	return out
}

// renderListItem fills exactly itemHeight lines.
func renderListItem(itemHeight int) listview.RenderFunc[listItem] {
	return func(it listItem, _ int) string {
		if itemHeight <= 1 {
			return ValueStyle.Render(it.Title) + "  " + LabelStyle.Render(it.Description)
		}
		lines := make([]string, itemHeight)
		lines[0] = ValueStyle.Render(it.Title)
		lines[1] = "  " + LabelStyle.Render(it.Description)
		return strings.Join(lines, "\n")
	}
}

type listTab struct {
	list       *listview.Model[listItem]
	count      int
	itemHeight int
	observer   *perf.Observer
	rng        *rand.Rand

	// last scroll measurement per rendering mode
	measured map[bool]time.Duration
}

func newListTab(opts Options, observer *perf.Observer) *listTab {
	count := min(max(opts.ListItems, minListItems), maxListItems)
	itemHeight := max(opts.ItemHeight, 1)
	return &listTab{
		list:       listview.New(makeListItems(count), defaultHeight, defaultWidth, itemHeight, renderListItem(itemHeight)),
		count:      count,
		itemHeight: itemHeight,
		observer:   observer,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)), //nolint:gosec // scroll targets only
		measured:   make(map[bool]time.Duration),
	}
}

// listChrome is the number of lines the tab draws around the list.
const listChrome = 3

func (l *listTab) setSize(width, height int) {
	l.list.SetSize(width, max(height-listChrome, 1))
}

func (l *listTab) handleKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "v":
		l.list.SetVirtualized(!l.list.Virtualized())
	case "+", "=":
		l.resize(l.count + listItemsStep)
	case "-":
		l.resize(l.count - listItemsStep)
	case "r":
		l.measureScroll()
	default:
		l.list.Update(msg)
	}
}

func (l *listTab) resize(n int) {
	n = min(max(n, minListItems), maxListItems)
	if n == l.count {
		return
	}
	l.count = n
	l.list.SetItems(makeListItems(n))
}

// measureScroll jumps to a random offset and times the re-render.
func (l *listTab) measureScroll() time.Duration {
	done := l.observer.Time(interactionScroll)
	l.list.ScrollTo(l.rng.IntN(l.list.MaxOffset() + 1))
	l.list.View()
	d := done()
	l.measured[l.list.Virtualized()] = d
	return d
}

func (l *listTab) view() string {
	var b strings.Builder

	mode := "virtualized"
	if !l.list.Virtualized() {
		mode = "full render"
	}
	fmt.Fprintf(&b, "%s %s  %s %d  %s %d\n",
		LabelStyle.Render("Mode:"), ValueStyle.Render(mode),
		LabelStyle.Render("Items:"), l.count,
		LabelStyle.Render("Rendered rows:"), l.list.RenderedRows())

	b.WriteString(l.list.View())
	b.WriteString("\n")

	var timings []string
	if d, ok := l.measured[true]; ok {
		timings = append(timings, "virtualized "+roundMillis(d))
	}
	if d, ok := l.measured[false]; ok {
		timings = append(timings, "full "+roundMillis(d))
	}
	if len(timings) > 0 {
		b.WriteString(InfoStyle.Render("Scroll render: "+strings.Join(timings, ", ")) + "\n")
	}
	b.WriteString(helpLine("j/k scroll", "v toggle virtualization", "+/- items", "r random scroll"))
	return b.String()
}
