package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"kumpul/server/internal/models"

	"github.com/gofiber/contrib/websocket"
)

// Client represents a WebSocket client connection. Each client owns the
// cancellation handles of the store subscriptions it opened; they are all
// released when the connection goes away.
type Client struct {
	ID       string // User ID
	UniqueID string // User's unique handle (#WORD-123)
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte

	mu      sync.Mutex
	closed  bool // Send is closed; no further writes may be attempted
	cancels map[string]func()
}

// NewClient creates a new WebSocket client
func NewClient(userID, uniqueID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:       userID,
		UniqueID: uniqueID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		cancels:  make(map[string]func()),
	}
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Parse incoming message
		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}

		// Handle different event types
		c.handleIncomingMessage(incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(msg IncomingMessage) {
	meetupID, _ := msg.Payload["meetupId"].(string)

	switch msg.Type {
	case EventSubscribeMeetup:
		c.subscribeMeetup(meetupID)
	case EventUnsubscribeMeetup:
		c.cancelSubscription("meetup:" + meetupID)
	case EventSubscribeMeetups:
		c.subscribeMeetups()
	case EventUnsubscribeMeetups:
		c.cancelSubscription("meetups")
	case EventSubscribeMessages:
		c.subscribeMessages(meetupID)
	case EventUnsubscribeMessage:
		c.cancelSubscription("messages:" + meetupID)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// subscribeMeetup opens a live watch on one meetup document
func (c *Client) subscribeMeetup(meetupID string) {
	if meetupID == "" {
		c.sendError("bad_request", "meetupId is required")
		return
	}
	key := "meetup:" + meetupID
	if c.hasSubscription(key) {
		return
	}

	cancel, err := c.Hub.Store.Subscribe(context.Background(), meetupID, func(m *models.Meetup) {
		c.SendMessage(WSMessage{
			Type:      EventMeetupSnapshot,
			Payload:   m,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		c.sendError("not_found", "Meetup not found")
		return
	}

	c.storeSubscription(key, cancel)
}

// subscribeMeetups opens a live watch on the active meetups query
func (c *Client) subscribeMeetups() {
	if c.hasSubscription("meetups") {
		return
	}

	cancel, err := c.Hub.Store.SubscribeActive(context.Background(), func(meetups []*models.Meetup) {
		c.SendMessage(WSMessage{
			Type:      EventMeetupsSnapshot,
			Payload:   meetups,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		c.sendError("internal", "Failed to subscribe to meetups")
		return
	}

	c.storeSubscription("meetups", cancel)
}

// subscribeMessages opens a live watch on a meetup's chat feed
func (c *Client) subscribeMessages(meetupID string) {
	if meetupID == "" {
		c.sendError("bad_request", "meetupId is required")
		return
	}
	key := "messages:" + meetupID
	if c.hasSubscription(key) {
		return
	}

	cancel, err := c.Hub.Store.SubscribeMessages(context.Background(), meetupID, func(messages []*models.Message) {
		c.SendMessage(WSMessage{
			Type: EventMessagesSnapshot,
			Payload: MessagesPayload{
				MeetupID: meetupID,
				Messages: messages,
			},
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		c.sendError("not_found", "Meetup not found")
		return
	}

	c.storeSubscription(key, cancel)
}

func (c *Client) hasSubscription(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.cancels[key]
	return ok
}

func (c *Client) storeSubscription(key string, cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels[key] = cancel
}

func (c *Client) cancelSubscription(key string) {
	c.mu.Lock()
	cancel, ok := c.cancels[key]
	delete(c.cancels, key)
	c.mu.Unlock()

	if ok {
		cancel()
	}
}

// CancelAllSubscriptions releases every store subscription this client holds
func (c *Client) CancelAllSubscriptions() {
	c.mu.Lock()
	cancels := c.cancels
	c.cancels = make(map[string]func())
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Close tears the client down: subscriptions are cancelled first so no new
// snapshot deliveries start, then Send is closed under the mutex that
// SendMessage writes under. A delivery already past the cancel sees the
// closed flag and is dropped instead of hitting a closed channel. Safe to
// call more than once.
func (c *Client) Close() {
	c.CancelAllSubscriptions()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// sendError sends an error event to the client
func (c *Client) sendError(code, message string) {
	c.SendMessage(WSMessage{
		Type:      EventError,
		Payload:   ErrorPayload{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

// SendMessage sends a message to the client. Subscription callbacks call
// this from their own goroutines, so the write is guarded against the
// teardown in Close; messages arriving after the client closed are dropped.
func (c *Client) SendMessage(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	queueFull := false
	select {
	case c.Send <- data:
	default:
		queueFull = true
	}
	c.mu.Unlock()

	if queueFull {
		// Writer can't keep up: hand the connection to the hub for teardown
		c.Hub.Unregister <- c
	}

	return nil
}
