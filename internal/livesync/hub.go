package livesync

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"sundaytable/internal/models"
)

// DefaultBuffer is the per-subscriber event buffer when none is configured
const DefaultBuffer = 64

// Event carries the new state of the documents one commit touched.
// A confirmation sets both fields so it is observed as a single change.
type Event struct {
	Seq    uint64                 `json:"seq"`
	Config *models.RotationConfig `json:"config,omitempty"`
	Dinner *models.Dinner         `json:"dinner,omitempty"`
}

// Hub fans committed changes out to subscribers in publish order
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	seq    uint64
	buffer int
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[string]*Subscription), buffer: buffer}
}

// Subscription is one consumer's ordered event stream
type Subscription struct {
	ID     string
	hub    *Hub
	events chan Event
	lagged atomic.Bool
	once   sync.Once
}

// Events is closed when the subscription ends, either via Close, hub
// shutdown or overflow. Check Lagged to tell overflow apart.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Lagged reports whether the subscription was dropped for falling behind
func (s *Subscription) Lagged() bool {
	return s.lagged.Load()
}

// Close unsubscribes; safe to call more than once
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s)
}

// Subscribe registers a new subscriber. Events published before this call
// are not delivered.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Subscription{
		ID:     uuid.NewString(),
		hub:    h,
		events: make(chan Event, h.buffer),
	}
	if h.closed {
		s.once.Do(func() { close(s.events) })
		return s
	}
	h.subs[s.ID] = s
	return s
}

// Publish assigns the next sequence number and delivers e to every
// subscriber without blocking. A subscriber with a full buffer is closed
// and marked lagged.
func (h *Hub) Publish(e Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e.Seq = h.seq
	for _, s := range h.subs {
		select {
		case s.events <- e:
		default:
			log.Printf("livesync: subscriber %s lagged at seq %d, dropping", s.ID, e.Seq)
			s.lagged.Store(true)
			h.remove(s)
		}
	}
	return e
}

// Seq returns the last assigned sequence number
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription; later subscriptions start closed
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, s := range h.subs {
		h.remove(s)
	}
}

// remove must be called with h.mu held
func (h *Hub) remove(s *Subscription) {
	delete(h.subs, s.ID)
	s.once.Do(func() { close(s.events) })
}
