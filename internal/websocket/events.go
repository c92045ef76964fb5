package websocket

import (
	"time"

	"kumpul/server/internal/models"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// Client -> server subscription ops
	EventSubscribeMeetup    EventType = "subscribe_meetup"
	EventUnsubscribeMeetup  EventType = "unsubscribe_meetup"
	EventSubscribeMeetups   EventType = "subscribe_meetups"
	EventUnsubscribeMeetups EventType = "unsubscribe_meetups"
	EventSubscribeMessages  EventType = "subscribe_messages"
	EventUnsubscribeMessage EventType = "unsubscribe_messages"

	// Server -> client snapshots
	EventMeetupSnapshot   EventType = "meetup_snapshot"
	EventMeetupsSnapshot  EventType = "meetups_snapshot"
	EventMessagesSnapshot EventType = "messages_snapshot"

	// Error events
	EventError EventType = "error"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessagesPayload carries a meetup's full chat feed
type MessagesPayload struct {
	MeetupID string            `json:"meetupId"`
	Messages []*models.Message `json:"messages"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingMessage represents messages received from clients
type IncomingMessage struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
