// Package hub fans session updates out to remote subscribers such as
// websocket clients.
package hub

import (
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/wrldshot/internal/session"
)

const subscriberBuffer = 64

// Update types.
const (
	TypeWorld   = "world"
	TypeRenamed = "renamed"
)

// Update is one session change as seen by a subscriber.
type Update struct {
	Type   string    `json:"type"`
	World  string    `json:"world,omitempty"`
	Recent []string  `json:"recent,omitempty"`
	At     time.Time `json:"at"`
}

// Hub implements session.Bridge and broadcasts every notification to all
// subscribers. Subscribers that fall behind lose updates instead of
// stalling the tail goroutine.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Update
	dropped     int64
	closed      bool
}

var _ session.Bridge = (*Hub)(nil)

// New creates an empty Hub.
func New() *Hub {
	return &Hub{subscribers: make(map[string]chan Update)}
}

// Subscribe returns an id and a buffered channel that receives updates.
// The channel is closed by Unsubscribe or Close.
func (h *Hub) Subscribe() (string, <-chan Update) {
	id := uuid.NewString()
	ch := make(chan Update, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes the subscriber with id. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the total number of updates dropped for slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// OnContextChanged broadcasts a world change.
func (h *Hub) OnContextChanged(worldID string) {
	h.broadcast(Update{Type: TypeWorld, World: worldID, At: time.Now()})
}

// OnRenamed broadcasts the new recently renamed list.
func (h *Hub) OnRenamed(newestFirst []string) {
	h.broadcast(Update{Type: TypeRenamed, Recent: slices.Clone(newestFirst), At: time.Now()})
}

// Close closes every subscriber channel. Later subscriptions receive a
// closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}

func (h *Hub) broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- u:
		default:
			h.dropped++
			log.Printf("hub: dropped %s update for slow consumer (total dropped: %d)", u.Type, h.dropped)
		}
	}
}
