package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time notification pushed to every connected oracle UI.
type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// LicenseStatusMessage builds the notification sent whenever the licensing
// decision changes, so open UIs flip between the gate and the app without
// polling.
func LicenseStatusMessage(licensed bool, status, reason string) Message {
	return Message{
		Type: "license_status",
		Payload: map[string]any{
			"licensed": licensed,
			"status":   status,
			"reason":   reason,
		},
	}
}

// HistoryMessage announces a new or updated diagnosis history entry.
func HistoryMessage(action string, id int64) Message {
	return Message{
		Type:    "history_" + action,
		Payload: map[string]any{"id": id},
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
