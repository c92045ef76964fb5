// Package docstore is the document-store collaborator behind the meetup
// store: single-document reads, field-level last-write-wins updates, and
// the list queries the live watches are built on. Consistency between the
// read and the write of a read-modify-write caller is NOT provided here.
package docstore

import (
	"context"
	"errors"

	"kumpul/server/internal/models"
)

// ErrNotFound is returned when an operation targets a document that does not exist
var ErrNotFound = errors.New("document not found")

// Store provides per-document CRUD over meetups and their messages
type Store interface {
	// Meetup documents
	InsertMeetup(ctx context.Context, m *models.Meetup) error
	GetMeetup(ctx context.Context, id string) (*models.Meetup, error)
	UpdateMeetup(ctx context.Context, id string, fields map[string]interface{}) error
	PutParticipants(ctx context.Context, id string, participants []models.UserSnapshot) error
	PutMeetupReactions(ctx context.Context, id string, reactions map[string][]string) error
	ListActiveMeetups(ctx context.Context) ([]*models.Meetup, error)

	// Message documents (subordinate to a meetup)
	InsertMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, meetupID, messageID string) (*models.Message, error)
	PutMessageReactions(ctx context.Context, meetupID, messageID string, reactions map[string][]string) error
	ListMessages(ctx context.Context, meetupID string) ([]*models.Message, error)
}
