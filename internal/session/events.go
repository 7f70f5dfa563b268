package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
)

// EventType names what a command changed.
type EventType string

const (
	EventOpened      EventType = "opened"
	EventClosed      EventType = "closed"
	EventFocused     EventType = "focused"
	EventMinimized   EventType = "minimized"
	EventRestored    EventType = "restored"
	EventMaximized   EventType = "maximized"
	EventUnmaximized EventType = "unmaximized"
	EventMoved       EventType = "moved"
	EventSettled     EventType = "settled"
	EventConfig      EventType = "config"
)

// Event is published after a command changes session state.
type Event struct {
	Type      EventType `json:"type"`
	WindowID  string    `json:"window,omitempty"`
	SessionID string    `json:"session"`
	Time      time.Time `json:"time"`
	// Geometry is set on EventMoved.
	Geometry *geometry.Geometry `json:"geometry,omitempty"`
}

// Handler receives events. Handlers run on a dedicated goroutine in
// publication order and may call back into the Manager.
type Handler func(Event)

// UnsubscribeFunc removes a subscription.
type UnsubscribeFunc func()

type handlerEntry struct {
	id      uint64
	handler Handler
}

// bus delivers events in order without blocking the event loop.
type bus struct {
	mu       sync.Mutex
	handlers []handlerEntry
	queue    []Event
	closed   bool
	wake     chan struct{}
	done     chan struct{}
	nextID   atomic.Uint64
}

func newBus() *bus {
	b := &bus{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *bus) subscribe(h Handler) UnsubscribeFunc {
	id := b.nextID.Add(1)
	b.mu.Lock()
	b.handlers = append(b.handlers, handlerEntry{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.handlers {
			if e.id == id {
				b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *bus) run() {
	defer close(b.done)
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			if b.closed {
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
			<-b.wake
			continue
		}
		ev := b.queue[0]
		b.queue = b.queue[1:]
		handlers := make([]handlerEntry, len(b.handlers))
		copy(handlers, b.handlers)
		b.mu.Unlock()

		for _, e := range handlers {
			e.handler(ev)
		}
	}
}

// close delivers what is queued and stops the dispatcher.
func (b *bus) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
	<-b.done
}
