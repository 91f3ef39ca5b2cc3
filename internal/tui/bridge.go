package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/timeslice/internal/hostloop"
)

// WakeMsg tells the model that one host loop task is waiting to run.
type WakeMsg struct{}

// Bridge runs host loop tasks on the Bubble Tea event loop. Every Post
// queues the task and sends one WakeMsg; the model runs one task per WakeMsg
// inside Update, so queued work interleaves with key presses, ticks and
// redraws exactly like any other message.
type Bridge struct {
	queue *hostloop.Queue

	mu   sync.Mutex
	send func(tea.Msg)
}

// NewBridge returns a bridge with no program attached. Tasks posted before
// Attach are delivered once a program is attached.
func NewBridge() *Bridge {
	b := &Bridge{}
	b.queue = hostloop.NewQueue(b.wake)
	return b
}

// Attach connects the bridge to a program's Send function.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()

	for range b.queue.Len() {
		b.wake()
	}
}

func (b *Bridge) wake() {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		// Send blocks until the program reads the message, and Post may be
		// called from inside Update.
		go send(WakeMsg{})
	}
}

// Post implements hostloop.Poster.
func (b *Bridge) Post(task func()) bool {
	return b.queue.Post(task)
}

// RunOne runs the oldest queued task. Call it once per WakeMsg.
func (b *Bridge) RunOne() bool {
	return b.queue.RunOne()
}

// Pending returns the number of queued tasks.
func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// Close drops queued tasks and rejects new ones.
func (b *Bridge) Close() {
	b.queue.Close()
}
