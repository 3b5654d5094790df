package events

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Bus carries messages from background tasks into the program's update
// loop. Keyboard and resize messages come from the terminal reader; every
// other producer goes through here.
type Bus struct {
	ch     chan tea.Msg
	mu     sync.Mutex
	closed bool
}

// NewBus builds a bus with the given buffer size.
func NewBus(size int) *Bus {
	return &Bus{ch: make(chan tea.Msg, size)}
}

// Send delivers a message without blocking. Messages sent after Close, or
// when the buffer is full, are dropped; a task racing shutdown must not
// hang the program.
func (b *Bus) Send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- msg:
	default:
	}
}

// Wait returns a command that resolves with the next bus message. The
// update loop re-arms it after every delivery.
func (b *Bus) Wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.ch
		if !ok {
			return nil
		}
		return msg
	}
}

// Close stops delivery. Pending buffered messages are still drained by
// outstanding Wait commands.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}
