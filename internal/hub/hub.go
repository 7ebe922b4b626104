package hub

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/shared"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Subscription is one attached observer.
type Subscription struct {
	ID     string
	Events <-chan Event

	hub *Hub
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s.ID)
}

// Hub broadcasts events to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan Event
	seq    uint64
	buffer int
	closed bool
	logger *log.Logger
	now    func() time.Time
}

// New creates a hub whose subscribers buffer up to buffer events.
func New(logger *log.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Hub{
		subs:   make(map[string]chan Event),
		buffer: buffer,
		logger: shared.WithLogger(logger, "component", "hub"),
		now:    time.Now,
	}
}

// Subscribe attaches a new observer.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	id := shared.GenerateID()
	if h.closed {
		close(ch)
	} else {
		h.subs[id] = ch
	}

	h.logger.Debug("subscriber attached", "id", id, "subscribers", len(h.subs))
	return &Subscription{ID: id, Events: ch, hub: h}
}

// Unsubscribe detaches and closes the subscriber with id.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish stamps ev and delivers it to every subscriber without blocking.
//
// Subscribers whose buffers are full are dropped.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.seq++
	ev.Seq = h.seq
	if ev.At.IsZero() {
		ev.At = h.now()
	}

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, id)
			close(ch)
			h.logger.Warn("subscriber dropped", "id", id, "kind", ev.Kind, "seq", ev.Seq)
		}
	}
}

// Len returns the number of attached subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
