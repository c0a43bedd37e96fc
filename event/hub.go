// Package event fans catalog-change notifications out to connected UI
// clients so open preset pickers can drop stale lists without polling.
package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds.
const (
	KindInvalidated = "invalidated"
	KindRefreshed   = "refreshed"
	KindUsed        = "used"
)

// Event is one catalog notification. Type and ID are set only for
// preset-scoped kinds like "used".
type Event struct {
	Kind string    `json:"kind"`
	Type string    `json:"presetType,omitempty"`
	ID   string    `json:"id,omitempty"`
	At   time.Time `json:"at"`
}

const subscriberBuffer = 16

// Hub is a uuid-keyed subscriber registry. Publish never blocks: a
// subscriber that cannot keep up loses events rather than stalling the
// publisher, which is fine because every event only means "re-read".
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and channel. The
// channel is closed by Unsubscribe.
func (h *Hub) Subscribe() (string, <-chan Event) {
	ch := make(chan Event, subscriberBuffer)
	id := uuid.New().String()

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the subscriber and closes its channel so any pump
// goroutine draining it exits. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish delivers ev to every subscriber, stamping At if unset.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
