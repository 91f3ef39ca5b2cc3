package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// windowBuffer is the number of extra items rendered past the viewport.
const windowBuffer = 2

// RenderFunc renders the item at index as exactly itemHeight lines.
type RenderFunc[T any] func(item T, index int) string

// Model is a scrollable list with an optional virtualized render path.
type Model[T any] struct {
	items       []T
	renderFunc  RenderFunc[T]
	height      int
	width       int
	itemHeight  int
	offset      int
	virtualized bool
	rendered    int
}

// New returns a virtualized list. height is the viewport height in lines.
// itemHeight values below 1 are treated as 1.
func New[T any](items []T, height, width, itemHeight int, renderFunc RenderFunc[T]) *Model[T] {
	return &Model[T]{
		items:       items,
		renderFunc:  renderFunc,
		height:      max(height, 1),
		width:       width,
		itemHeight:  max(itemHeight, 1),
		virtualized: true,
	}
}

// Init initializes the model (required for tea.Model interface).
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update handles keyboard and resize messages.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}
	return m, nil
}

//nolint:exhaustive // Only navigation keys are handled.
func (m *Model[T]) handleKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyUp:
		m.ScrollBy(-m.itemHeight)
	case tea.KeyDown:
		m.ScrollBy(m.itemHeight)
	case tea.KeyPgUp:
		m.ScrollBy(-m.height)
	case tea.KeyPgDown:
		m.ScrollBy(m.height)
	case tea.KeyHome:
		m.ScrollTo(0)
	case tea.KeyEnd:
		m.ScrollTo(m.MaxOffset())
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return
		}
		switch msg.Runes[0] {
		case 'j':
			m.ScrollBy(m.itemHeight)
		case 'k':
			m.ScrollBy(-m.itemHeight)
		}
	}
}

// ScrollTo moves the viewport so its top is offset lines into the list,
// clamped to the scrollable range.
func (m *Model[T]) ScrollTo(offset int) {
	m.offset = min(max(offset, 0), m.MaxOffset())
}

// ScrollBy moves the viewport by delta lines.
func (m *Model[T]) ScrollBy(delta int) {
	m.ScrollTo(m.offset + delta)
}

// MaxOffset is the largest offset that still fills the viewport.
func (m *Model[T]) MaxOffset() int {
	return max(m.TotalHeight()-m.height, 0)
}

// TotalHeight is the height of the whole list in lines.
func (m *Model[T]) TotalHeight() int {
	return len(m.items) * m.itemHeight
}

// VisibleCount is the number of items a virtualized view renders.
func (m *Model[T]) VisibleCount() int {
	return (m.height+m.itemHeight-1)/m.itemHeight + windowBuffer
}

// Window returns the [from, to) item range a virtualized view renders.
func (m *Model[T]) Window() (int, int) {
	from := min(m.offset/m.itemHeight, len(m.items))
	to := min(from+m.VisibleCount(), len(m.items))
	return from, to
}

// View renders the viewport.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		m.rendered = 0
		return ""
	}

	from, to := 0, len(m.items)
	if m.virtualized {
		from, to = m.Window()
	}

	lines := make([]string, 0, (to-from)*m.itemHeight)
	for i := from; i < to; i++ {
		lines = append(lines, strings.Split(m.renderFunc(m.items[i], i), "\n")...)
	}
	m.rendered = to - from

	// Clip to the viewport; rendered lines start at item `from`.
	top := m.offset - from*m.itemHeight
	top = min(max(top, 0), len(lines))
	bottom := min(top+m.height, len(lines))
	return strings.Join(lines[top:bottom], "\n")
}

// SetItems replaces the items and keeps the offset in range.
func (m *Model[T]) SetItems(items []T) {
	m.items = items
	m.ScrollTo(m.offset)
}

// SetSize updates the viewport dimensions.
func (m *Model[T]) SetSize(width, height int) {
	m.width = width
	m.height = max(height, 1)
	m.ScrollTo(m.offset)
}

// SetVirtualized switches between windowed and full rendering.
func (m *Model[T]) SetVirtualized(v bool) {
	m.virtualized = v
}

// Virtualized reports whether only the window is rendered.
func (m *Model[T]) Virtualized() bool {
	return m.virtualized
}

// RenderedRows is the number of items rendered by the last View call.
func (m *Model[T]) RenderedRows() int {
	return m.rendered
}

// ItemCount returns the total number of items in the list.
func (m *Model[T]) ItemCount() int {
	return len(m.items)
}

// Offset returns the scroll offset in lines.
func (m *Model[T]) Offset() int {
	return m.offset
}

// Height returns the viewport height.
func (m *Model[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *Model[T]) Width() int {
	return m.width
}
