package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"kumpul/server/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It deep-copies documents on the way in and out, so callers observe the
// same snapshot isolation the real backend gives them.
type MemoryStore struct {
	mu       sync.Mutex
	meetups  map[string]*models.Meetup
	messages map[string]map[string]*models.Message // meetupID -> messageID -> message

	// GetHook, when set, runs after a meetup or message read returns and
	// before the caller can write back. Tests use it to force the
	// read-modify-write interleaving that loses a concurrent toggle.
	GetHook func(id string)
}

// NewMemoryStore creates an empty in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetups:  make(map[string]*models.Meetup),
		messages: make(map[string]map[string]*models.Message),
	}
}

// InsertMeetup stores a new meetup document
func (s *MemoryStore) InsertMeetup(ctx context.Context, m *models.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetups[m.ID] = m.Clone()
	return nil
}

// GetMeetup returns a copy of a meetup document
func (s *MemoryStore) GetMeetup(ctx context.Context, id string) (*models.Meetup, error) {
	s.mu.Lock()
	m, ok := s.meetups[id]
	var cp *models.Meetup
	if ok {
		cp = m.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.GetHook != nil {
		s.GetHook(id)
	}
	return cp, nil
}

// UpdateMeetup applies a field-level merge update to a meetup document
func (s *MemoryStore) UpdateMeetup(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetups[id]
	if !ok {
		return ErrNotFound
	}

	for key, value := range fields {
		switch key {
		case "title":
			m.Title = value.(string)
		case "description":
			m.Description = value.(string)
		case "location":
			m.Location = value.(string)
		case "time":
			m.Time = value.(time.Time)
		case "is_public":
			m.IsPublic = value.(bool)
		case "image_url":
			url := value.(string)
			m.ImageURL = &url
		case "max_participants":
			n := value.(int)
			m.MaxParticipants = &n
		case "status":
			m.Status = value.(string)
		case "archived":
			m.Archived = value.(bool)
		case "categories":
			m.Categories = append([]string(nil), value.([]string)...)
		}
	}
	m.UpdatedAt = time.Now()
	return nil
}

// PutParticipants replaces the participants field of a meetup document
func (s *MemoryStore) PutParticipants(ctx context.Context, id string, participants []models.UserSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetups[id]
	if !ok {
		return ErrNotFound
	}
	m.Participants = append([]models.UserSnapshot(nil), participants...)
	m.UpdatedAt = time.Now()
	return nil
}

// PutMeetupReactions replaces the reactions field of a meetup document.
// Last write to the field wins; concurrent togglers computed from a stale
// read overwrite each other here.
func (s *MemoryStore) PutMeetupReactions(ctx context.Context, id string, reactions map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetups[id]
	if !ok {
		return ErrNotFound
	}
	m.Reactions = models.CloneReactions(reactions)
	m.UpdatedAt = time.Now()
	return nil
}

// ListActiveMeetups returns all non-archived meetups ordered by time descending
func (s *MemoryStore) ListActiveMeetups(ctx context.Context) ([]*models.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var meetups []*models.Meetup
	for _, m := range s.meetups {
		if !m.Archived {
			meetups = append(meetups, m.Clone())
		}
	}
	sort.Slice(meetups, func(i, j int) bool {
		return meetups[i].Time.After(meetups[j].Time)
	})
	return meetups, nil
}

// InsertMessage stores a new message document under its meetup
func (s *MemoryStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetups[msg.MeetupID]; !ok {
		return ErrNotFound
	}
	if s.messages[msg.MeetupID] == nil {
		s.messages[msg.MeetupID] = make(map[string]*models.Message)
	}
	s.messages[msg.MeetupID][msg.ID] = msg.Clone()
	return nil
}

// GetMessage returns a copy of a message document
func (s *MemoryStore) GetMessage(ctx context.Context, meetupID, messageID string) (*models.Message, error) {
	s.mu.Lock()
	msg, ok := s.messages[meetupID][messageID]
	var cp *models.Message
	if ok {
		cp = msg.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.GetHook != nil {
		s.GetHook(messageID)
	}
	return cp, nil
}

// PutMessageReactions replaces the reactions field of a message document
func (s *MemoryStore) PutMessageReactions(ctx context.Context, meetupID, messageID string, reactions map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[meetupID][messageID]
	if !ok {
		return ErrNotFound
	}
	msg.Reactions = models.CloneReactions(reactions)
	return nil
}

// ListMessages returns all messages of a meetup ordered by timestamp ascending
func (s *MemoryStore) ListMessages(ctx context.Context, meetupID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []*models.Message
	for _, msg := range s.messages[meetupID] {
		messages = append(messages, msg.Clone())
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp != messages[j].Timestamp {
			return messages[i].Timestamp < messages[j].Timestamp
		}
		return messages[i].ID < messages[j].ID // Stable order on timestamp collision
	})
	return messages, nil
}
