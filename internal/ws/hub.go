package ws

import (
	"sync"

	"pyramid_empire/internal/logger"
)

// Hub tracks the open sockets of every user and fans out live updates.
// A user may hold several sockets, e.g. two browser tabs.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes c and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Connections returns the number of open sockets of userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// PublishToUser sends a {"type","data"} frame to every socket of userID.
// A socket whose queue is full is dropped instead of blocking the caller.
func (h *Hub) PublishToUser(userID int64, msgType string, data any) {
	msg, err := encode(msgType, data)
	if err != nil {
		logger.Error("ws encode failed", "type", msgType, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws send queue full, dropping client", "user_id", userID)
		h.Unregister(c)
	}
}
