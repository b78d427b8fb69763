// Package websocket fans catalog and review events out to connected users.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/media-service/internal/types"
)

// Hub tracks one connection per user and routes events to them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	mu         sync.RWMutex
	logger     *slog.Logger
}

// BroadcastMessage is an event addressed to specific users.
type BroadcastMessage struct {
	UserIDs []string     `json:"user_ids"`
	Event   *types.Event `json:"event"`
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client, sendBuffer),
		broadcast:  make(chan *BroadcastMessage, sendBuffer),
		logger:     logger.With(slog.String("component", "websocket")),
	}
}

// Run owns the client map until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			// A new connection replaces the user's previous one.
			if existing, ok := h.clients[client.userID]; ok {
				close(existing.send)
				h.logger.Info("replaced existing websocket connection", slog.String("user_id", client.userID))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			h.logger.Info("websocket client connected", slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.deliver(message.UserIDs, message.Event)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// A replaced client's channel is already closed.
	if current, ok := h.clients[client.userID]; ok && current == client {
		delete(h.clients, client.userID)
		close(client.send)
		h.logger.Info("websocket client disconnected", slog.String("user_id", client.userID))
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		go func() { h.unregister <- client }()
	}
}

// BroadcastToUsers queues event for userIDs; it drops the event if the hub
// is backed up.
func (h *Hub) BroadcastToUsers(userIDs []string, event *types.Event) {
	select {
	case h.broadcast <- &BroadcastMessage{UserIDs: userIDs, Event: event}:
	default:
		h.logger.Warn("broadcast channel is full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

func (h *Hub) deliver(userIDs []string, event *types.Event) {
	h.mu.RLock()
	var slow []*Client
	for _, userID := range userIDs {
		client, ok := h.clients[userID]
		if !ok {
			continue
		}
		if err := client.enqueue(event); err != nil {
			h.logger.Warn("failed to send event to client",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
}

func (h *Hub) GetConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
