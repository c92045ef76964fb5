// Package store owns the canonical participant set and per-emoji reaction
// sets of each meetup, and fans every committed change out to live
// subscribers. Join/leave are idempotent and keyed by user ID; reaction
// toggles are read-modify-write against the document store and therefore
// race under true concurrency (last write to the field wins). The
// maxParticipants cap is advisory and never enforced atomically here.
package store

import (
	"context"
	"sync"
	"time"

	"kumpul/server/internal/docstore"
	"kumpul/server/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an operation targets a missing document
var ErrNotFound = docstore.ErrNotFound

// MeetupStore maintains meetup membership and reaction state over a
// document store and delivers snapshots to any number of observers
type MeetupStore struct {
	docs     docstore.Store
	registry *Registry

	// notifyMu serializes snapshot read-back and publish so observers see
	// writes in commit order. It is deliberately NOT held across the read
	// and write of a toggle; that race is part of the contract.
	notifyMu sync.Mutex

	// stampMu guards lastStamps, the last message timestamp issued per
	// meetup. Sends within one millisecond get bumped stamps so the feed
	// keeps send order.
	stampMu    sync.Mutex
	lastStamps map[string]int64

	// OnChange, when set, runs after every committed meetup mutation.
	// Used to invalidate derived caches.
	OnChange func(meetupID string)
}

// New creates a MeetupStore over the given document store
func New(docs docstore.Store) *MeetupStore {
	return &MeetupStore{
		docs:       docs,
		registry:   NewRegistry(),
		lastStamps: make(map[string]int64),
	}
}

// Create stores a new meetup. The participant set is seeded with the
// creator's snapshot and the reaction map starts empty.
func (s *MeetupStore) Create(ctx context.Context, m *models.Meetup) (*models.Meetup, error) {
	now := time.Now()
	m.ID = uuid.New().String()
	m.CreatorID = m.Creator.ID
	m.Participants = []models.UserSnapshot{m.Creator}
	m.Status = models.MeetupStatusActive
	m.Archived = false
	m.Reactions = map[string][]string{}
	if m.Categories == nil {
		m.Categories = []string{}
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.docs.InsertMeetup(ctx, m); err != nil {
		return nil, err
	}

	s.notifyList(ctx)
	s.changed(m.ID)
	return m, nil
}

// Get returns a single meetup by ID
func (s *MeetupStore) Get(ctx context.Context, id string) (*models.Meetup, error) {
	return s.docs.GetMeetup(ctx, id)
}

// ListActive returns all non-archived meetups ordered by time descending
func (s *MeetupStore) ListActive(ctx context.Context) ([]*models.Meetup, error) {
	return s.docs.ListActiveMeetups(ctx)
}

// Update applies a field-level update to a meetup
func (s *MeetupStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := s.docs.UpdateMeetup(ctx, id, fields); err != nil {
		return err
	}
	s.notifyMeetup(ctx, id)
	s.notifyList(ctx)
	s.changed(id)
	return nil
}

// Archive soft-deletes a meetup. Archived meetups drop out of the active
// list but their document (and chat history) is never hard-deleted.
func (s *MeetupStore) Archive(ctx context.Context, id string) error {
	return s.Update(ctx, id, map[string]interface{}{"archived": true})
}

// Join adds a user snapshot to the participant set. Keyed by user ID:
// a repeated join is a no-op even if the snapshot fields changed, so the
// set never holds two entries for the same user.
func (s *MeetupStore) Join(ctx context.Context, meetupID string, user models.UserSnapshot) error {
	m, err := s.docs.GetMeetup(ctx, meetupID)
	if err != nil {
		return err
	}
	if m.HasParticipant(user.ID) {
		return nil
	}

	participants := append(m.Participants, user)
	if err := s.docs.PutParticipants(ctx, meetupID, participants); err != nil {
		return err
	}

	s.notifyMeetup(ctx, meetupID)
	s.notifyList(ctx)
	s.changed(meetupID)
	return nil
}

// Leave removes every participant entry whose ID matches. Matching is by
// user ID only, so a stale snapshot (old avatar, changed status) on the
// caller's side still removes the participant. Leaving when absent is a
// no-op.
func (s *MeetupStore) Leave(ctx context.Context, meetupID, userID string) error {
	m, err := s.docs.GetMeetup(ctx, meetupID)
	if err != nil {
		return err
	}

	participants := make([]models.UserSnapshot, 0, len(m.Participants))
	for _, p := range m.Participants {
		if p.ID != userID {
			participants = append(participants, p)
		}
	}
	if len(participants) == len(m.Participants) {
		return nil
	}

	if err := s.docs.PutParticipants(ctx, meetupID, participants); err != nil {
		return err
	}

	s.notifyMeetup(ctx, meetupID)
	s.notifyList(ctx)
	s.changed(meetupID)
	return nil
}

// toggleReaction flips a user's membership in the named emoji set
func toggleReaction(reactions map[string][]string, emoji, userID string) map[string][]string {
	next := models.CloneReactions(reactions)

	users := next[emoji]
	for i, id := range users {
		if id == userID {
			next[emoji] = append(users[:i:i], users[i+1:]...)
			return next
		}
	}
	next[emoji] = append(users, userID)
	return next
}

// ReactToMeetup toggles a user's reaction on a meetup: present removes,
// absent adds. A user may hold several distinct emojis at once. The
// read-then-write is not compare-and-swap; two concurrent togglers of the
// same emoji can each compute from a stale read and one addition is lost.
func (s *MeetupStore) ReactToMeetup(ctx context.Context, meetupID, emoji, userID string) error {
	m, err := s.docs.GetMeetup(ctx, meetupID)
	if err != nil {
		return err
	}

	reactions := toggleReaction(m.Reactions, emoji, userID)
	if err := s.docs.PutMeetupReactions(ctx, meetupID, reactions); err != nil {
		return err
	}

	s.notifyMeetup(ctx, meetupID)
	s.notifyList(ctx)
	s.changed(meetupID)
	return nil
}

// nextTimestamp issues the current millisecond clock, bumped past the
// previous stamp for the same meetup so two sends landing in one
// millisecond keep their send order.
func (s *MeetupStore) nextTimestamp(meetupID string) int64 {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()

	now := time.Now().UnixMilli()
	if last := s.lastStamps[meetupID]; now <= last {
		now = last + 1
	}
	s.lastStamps[meetupID] = now
	return now
}

// SendMessage stores a chat message under a meetup. Messages are ordered
// by their millisecond timestamp; store-issued stamps are monotonic per
// meetup, and collisions on client-supplied stamps are broken by ID.
func (s *MeetupStore) SendMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.ID = uuid.New().String()
	if msg.Timestamp == 0 {
		msg.Timestamp = s.nextTimestamp(msg.MeetupID)
	}
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}

	if err := s.docs.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyMessages(ctx, msg.MeetupID)
	return msg, nil
}

// Messages returns all messages of a meetup ordered by timestamp
func (s *MeetupStore) Messages(ctx context.Context, meetupID string) ([]*models.Message, error) {
	return s.docs.ListMessages(ctx, meetupID)
}

// ReactToMessage toggles a user's reaction on a chat message. Same
// semantics and same toggle race as ReactToMeetup.
func (s *MeetupStore) ReactToMessage(ctx context.Context, meetupID, messageID, emoji, userID string) error {
	msg, err := s.docs.GetMessage(ctx, meetupID, messageID)
	if err != nil {
		return err
	}

	reactions := toggleReaction(msg.Reactions, emoji, userID)
	if err := s.docs.PutMessageReactions(ctx, meetupID, messageID, reactions); err != nil {
		return err
	}

	s.notifyMessages(ctx, meetupID)
	return nil
}

// Subscribe establishes a live watch on one meetup. The callback receives
// the current state immediately, then one snapshot per committed write in
// commit order until the returned cancel func is called.
func (s *MeetupStore) Subscribe(ctx context.Context, meetupID string, fn func(*models.Meetup)) (func(), error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	m, err := s.docs.GetMeetup(ctx, meetupID)
	if err != nil {
		return nil, err
	}

	return s.registry.SubscribeMeetup(meetupID, m, func(v interface{}) {
		fn(v.(*models.Meetup))
	}), nil
}

// SubscribeActive establishes a live watch over the query "all meetups
// where archived != true, ordered by time descending". The full result set
// is delivered on every change to any matching document.
func (s *MeetupStore) SubscribeActive(ctx context.Context, fn func([]*models.Meetup)) (func(), error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	meetups, err := s.docs.ListActiveMeetups(ctx)
	if err != nil {
		return nil, err
	}

	return s.registry.SubscribeList(meetups, func(v interface{}) {
		fn(v.([]*models.Meetup))
	}), nil
}

// SubscribeMessages establishes a live watch on a meetup's chat feed
func (s *MeetupStore) SubscribeMessages(ctx context.Context, meetupID string, fn func([]*models.Message)) (func(), error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if _, err := s.docs.GetMeetup(ctx, meetupID); err != nil {
		return nil, err
	}
	messages, err := s.docs.ListMessages(ctx, meetupID)
	if err != nil {
		return nil, err
	}

	return s.registry.SubscribeMessages(meetupID, messages, func(v interface{}) {
		fn(v.([]*models.Message))
	}), nil
}

// notifyMeetup reads the committed state back and publishes it. Reading
// under notifyMu keeps the published snapshots monotonic even when two
// writers finish close together.
func (s *MeetupStore) notifyMeetup(ctx context.Context, meetupID string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	m, err := s.docs.GetMeetup(ctx, meetupID)
	if err != nil {
		return
	}
	s.registry.PublishMeetup(meetupID, m)
}

// notifyList publishes the current active-meetups result set
func (s *MeetupStore) notifyList(ctx context.Context) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	meetups, err := s.docs.ListActiveMeetups(ctx)
	if err != nil {
		return
	}
	s.registry.PublishList(meetups)
}

// notifyMessages publishes a meetup's current message feed
func (s *MeetupStore) notifyMessages(ctx context.Context, meetupID string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	messages, err := s.docs.ListMessages(ctx, meetupID)
	if err != nil {
		return
	}
	s.registry.PublishMessages(meetupID, messages)
}

func (s *MeetupStore) changed(meetupID string) {
	if s.OnChange != nil {
		s.OnChange(meetupID)
	}
}
