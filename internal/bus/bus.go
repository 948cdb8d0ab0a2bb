// Package bus carries control messages, commands, and window events to a
// single dispatcher goroutine.
package bus

import (
	"log/slog"
	"sync"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

// DefaultCapacity bounds each lane.
const DefaultCapacity = 50

// Bus owns three bounded lanes, created on first use. Submitting never
// blocks: a full lane or a closed bus drops the message.
type Bus struct {
	mu       sync.Mutex
	capacity int
	lanes    [3]chan Message
	closed   bool
	logger   *slog.Logger
}

// New creates a bus whose lanes hold capacity messages each.
func New(capacity int, logger *slog.Logger) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{capacity: capacity, logger: logger}
}

// channel returns the lane, creating it if needed. Callers hold mu.
func (b *Bus) channel(l lane) chan Message {
	if b.lanes[l] == nil {
		b.lanes[l] = make(chan Message, b.capacity)
	}
	return b.lanes[l]
}

// Submit queues msg and reports whether it was accepted.
func (b *Bus) Submit(msg Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.logger.Debug("bus closed, dropping message", "message", Describe(msg))
		return false
	}
	l := msg.lane()
	select {
	case b.channel(l) <- msg:
		return true
	default:
		b.logger.Warn("bus lane full, dropping message", "lane", l, "message", Describe(msg))
		return false
	}
}

// SubmitBatch queues every message and returns how many were accepted.
func (b *Bus) SubmitBatch(msgs []Message) int {
	n := 0
	for _, msg := range msgs {
		if b.Submit(msg) {
			n++
		}
	}
	return n
}

// SubmitEvent converts and queues a window-system event.
func (b *Bus) SubmitEvent(ev platform.Event) bool {
	return b.Submit(FromEvent(ev))
}

// SubmitCommand queues a single external command. It implements
// ipc.Submitter.
func (b *Bus) SubmitCommand(req *ipc.Request, reply chan<- *ipc.Response) bool {
	return b.Submit(CommandMessage{Requests: []*ipc.Request{req}, Reply: reply})
}

// Close makes further submissions fail. Queued messages are discarded by
// the dispatcher.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Closed reports whether Close was called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// drain empties the lanes without blocking: control messages first, then
// commands, then events, each lane in arrival order.
func (b *Bus) drain() []Message {
	b.mu.Lock()
	lanes := b.lanes
	b.mu.Unlock()

	var out []Message
	for _, ch := range lanes {
		if ch == nil {
			continue
		}
	loop:
		for {
			select {
			case msg := <-ch:
				out = append(out, msg)
			default:
				break loop
			}
		}
	}
	return out
}

// NotifyBorders submits a border control message. It implements
// wm.Notifier.
func (b *Bus) NotifyBorders(msg border.Message) {
	b.Submit(BorderControl{Message: msg})
}

// NotifyTransparency submits a transparency pass.
func (b *Bus) NotifyTransparency() {
	b.Submit(TransparencyControl{})
}

// NotifyWindow submits a window-with-border action.
func (b *Bus) NotifyWindow(action wm.WindowAction, w platform.WindowID) {
	b.Submit(WindowWithBorder{Action: action, Window: w})
}

var (
	_ wm.Notifier   = (*Bus)(nil)
	_ ipc.Submitter = (*Bus)(nil)
)
