// Package websocket pushes dashboard content changes to open browser tabs so
// staff editing the same lists see each other's updates.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Content change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Message is a content change notification.
type Message struct {
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	ID     int64     `json:"id,omitempty"`
	By     string    `json:"by,omitempty"`
	At     time.Time `json:"at"`
}

// NewMessage describes action on the entity row id, made by the staff user by.
func NewMessage(entity, action string, id int64, by string) Message {
	return Message{
		Entity: entity,
		Action: action,
		ID:     id,
		By:     by,
		At:     time.Now().UTC(),
	}
}

// Hub tracks connected dashboard clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client. It returns false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast queues msg for every client. Slow clients miss messages rather
// than block the sender.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped", "entity", msg.Entity, "clients", dropped)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
