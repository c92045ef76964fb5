package websocket

import (
	"log"
	"sync"

	"kumpul/server/internal/store"
)

// Hub maintains the set of active clients and bridges them to the meetup
// store's subscription registry
type Hub struct {
	// Registered clients mapped by user ID
	Clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Store is the meetup store clients subscribe through
	Store *store.MeetupStore

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(meetupStore *store.MeetupStore) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Store:      meetupStore,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// If user already has a connection, close the old one
	if existingClient, ok := h.Clients[client.ID]; ok {
		existingClient.Close()
	}

	h.Clients[client.ID] = client

	log.Printf("Client connected: %s (%s)", client.UniqueID, client.ID)
}

// unregisterClient removes a client from the hub and releases its
// store subscriptions
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if current, ok := h.Clients[client.ID]; ok && current == client {
		delete(h.Clients, client.ID)
	}
	h.mu.Unlock()

	client.Close()

	log.Printf("Client disconnected: %s (%s)", client.UniqueID, client.ID)
}

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.Clients[userID]
	return ok
}

// GetOnlineUsers returns a list of currently online user IDs
func (h *Hub) GetOnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userIDs := make([]string, 0, len(h.Clients))
	for userID := range h.Clients {
		userIDs = append(userIDs, userID)
	}

	return userIDs
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.Clients)
}
