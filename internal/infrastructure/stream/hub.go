// Package stream serves a review session over HTTP: a JSON API plus
// Server-Sent Events and WebSocket feeds of every session snapshot.
package stream

import (
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"go.uber.org/zap"
)

// Event is one snapshot ready to be written to a client.
type Event struct {
	ID     uint64
	Status submission.Status
	Data   []byte
}

// Hub fans session snapshots out to connected clients. A slow client
// misses events instead of blocking the session.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[chan Event]struct{}
	seq     uint64
	last    *Event
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, clients: make(map[chan Event]struct{})}
}

// Publish encodes snap and delivers it to every client. It matches the
// signature of submission.Session.Subscribe.
func (h *Hub) Publish(snap submission.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("encode snapshot", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev := Event{ID: h.seq, Status: snap.Status, Data: data}
	h.last = &ev

	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropping event for slow client", zap.Uint64("event_id", ev.ID))
		}
	}
}

// Last returns the most recent event.
func (h *Hub) Last() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return Event{}, false
	}
	return *h.last, true
}

// subscribe registers a client and returns the event it should start from.
func (h *Hub) subscribe() (chan Event, *Event) {
	ch := make(chan Event, 64)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
	if h.last == nil {
		return ch, nil
	}
	last := *h.last
	return ch, &last
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
