package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fooddash/pkg/logger"
)

type Hub struct {
	clients    map[*Client]bool
	users      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *logger.Logger
}

type Message struct {
	Type      string                 `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.removeClient(client)
			h.mutex.Unlock()

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				h.removeClient(client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]bool)
	}
	h.users[client.UserID][client] = true
	h.mutex.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"user_id": client.UserID,
		"role":    client.Role,
	}).Debug("websocket client registered")

	h.deliver(client, Message{
		Type:      "welcome",
		UserID:    client.UserID,
		Timestamp: now(),
		Data: map[string]interface{}{
			"message": "Connected successfully",
		},
	})
}

// removeClient must be called with the write lock held.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if conns, ok := h.users[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.users, client.UserID)
		}
	}
}

// SendToUser delivers message to every connection of userID on this instance
// and reports how many connections received it.
func (h *Hub) SendToUser(userID string, message Message) int {
	if message.Timestamp == 0 {
		message.Timestamp = now()
	}
	message.UserID = userID

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("failed to encode websocket message")
		return 0
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	delivered := 0
	for client := range h.users[userID] {
		select {
		case client.send <- data:
			delivered++
		default:
			h.removeClient(client)
		}
	}
	return delivered
}

func (h *Hub) deliver(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.removeClient(client)
	}
}

// ConnectedUsers returns the number of distinct users with an open connection.
func (h *Hub) ConnectedUsers() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.users)
}

func now() int64 {
	return time.Now().Unix()
}
