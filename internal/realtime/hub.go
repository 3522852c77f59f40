// Package realtime pushes booking and item changes to connected WebSocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shareloop/service-booking/internal/events"
	"go.uber.org/zap"
)

// Message is the frame written to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub tracks connected clients by user and the subscribers of the public item feed.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	feed       map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

var _ events.Sink = (*Hub)(nil)

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		feed:       make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]struct{})
			}
			h.clients[c.userID][c] = struct{}{}
			if c.feedOnConnect {
				h.feed[c] = struct{}{}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", zap.String("user_id", c.userID.String()))

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", zap.String("user_id", c.userID.String()))

		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					h.remove(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	delete(h.feed, c)
	close(c.send)
}

// Subscribe adds or removes c from the item feed.
func (h *Hub) Subscribe(c *Client, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, connected := h.clients[c.userID][c]; !connected {
		return
	}
	if on {
		h.feed[c] = struct{}{}
	} else {
		delete(h.feed, c)
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Publish writes evt to every connection of its recipients and, for broadcast events, to
// every feed subscriber. Each client sees an event at most once. Slow clients are dropped.
func (h *Hub) Publish(_ context.Context, evt events.Event) error {
	data, err := json.Marshal(Message{Type: evt.Type, Timestamp: time.Now().UTC(), Data: evt.Data})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make(map[*Client]struct{})
	for _, id := range evt.Recipients {
		for c := range h.clients[id] {
			targets[c] = struct{}{}
		}
	}
	if evt.Broadcast {
		for c := range h.feed {
			targets[c] = struct{}{}
		}
	}

	for c := range targets {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow websocket client", zap.String("user_id", c.userID.String()))
			h.remove(c)
		}
	}
	return nil
}
