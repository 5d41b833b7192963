// internal/ws/hub.go
package ws

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kamikaze305/pablo-golf/service/internal/game"
)

// Hub tracks the live connection of every seated player and delivers room
// events to them. It implements game.Notifier.
type Hub struct {
	log *logrus.Entry

	mu      sync.RWMutex
	players map[string]*Client // player id -> connection
	open    int                // sockets accepted and not yet closed
}

var _ game.Notifier = (*Hub)(nil)

// NewHub returns an empty hub.
func NewHub(log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		log:     log.WithField("component", "hub"),
		players: make(map[string]*Client),
	}
}

// Send queues ev for playerID. Players without a live connection miss the
// event and catch up with a state:patch on reconnect.
func (h *Hub) Send(playerID string, ev game.Event) {
	h.mu.RLock()
	c := h.players[playerID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	c.queue(ev)
}

// Connections returns the number of open sockets.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.open
}

// acquire reserves a socket slot. It fails once limit sockets are open;
// a limit of zero disables the check.
func (h *Hub) acquire(limit int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > 0 && h.open >= limit {
		return false
	}
	h.open++
	return true
}

func (h *Hub) release() {
	h.mu.Lock()
	h.open--
	h.mu.Unlock()
}

// bind routes events for playerID to c. A previous connection of the same
// player is returned so the caller can close it.
func (h *Hub) bind(playerID string, c *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.players[playerID]
	h.players[playerID] = c
	if prev == c {
		return nil
	}
	return prev
}

// unbind removes the route for playerID if it still points at c.
func (h *Hub) unbind(playerID string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.players[playerID] != c {
		return false
	}
	delete(h.players, playerID)
	return true
}
