package models

import "time"

// Meetup statuses
const (
	MeetupStatusActive    = "active"
	MeetupStatusCancelled = "cancelled"
	MeetupStatusCompleted = "completed"
)

// UserSnapshot is the embedded copy of a user stored on a meetup document.
// Membership in Meetup.Participants is the sole authority for who has RSVP'd.
type UserSnapshot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Email  string `json:"email"`
	Status string `json:"status"` // 'available' or 'busy'
}

// Meetup represents a meetup document
type Meetup struct {
	ID              string              `json:"id" db:"id"`
	Title           string              `json:"title" db:"title"`
	Description     string              `json:"description,omitempty" db:"description"`
	Location        string              `json:"location" db:"location"`
	Time            time.Time           `json:"time" db:"time"`
	CreatorID       string              `json:"creatorId" db:"creator_id"`
	Creator         UserSnapshot        `json:"creator" db:"creator"`
	IsPublic        bool                `json:"isPublic" db:"is_public"`
	ImageURL        *string             `json:"imageUrl,omitempty" db:"image_url"`
	Participants    []UserSnapshot      `json:"participants" db:"participants"`
	MaxParticipants *int                `json:"maxParticipants,omitempty" db:"max_participants"`
	Status          string              `json:"status" db:"status"`     // 'active', 'cancelled', 'completed'
	Archived        bool                `json:"archived" db:"archived"` // Soft delete, independent of Status
	Categories      []string            `json:"categories" db:"categories"`
	Reactions       map[string][]string `json:"reactions" db:"reactions"` // emoji -> user IDs
	CreatedAt       time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time           `json:"updatedAt" db:"updated_at"`
}

// HasParticipant reports whether a user is in the participant set
func (m *Meetup) HasParticipant(userID string) bool {
	for _, p := range m.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the advisory participant cap has been reached.
// The cap is never enforced atomically; two concurrent joins can both pass.
func (m *Meetup) IsFull() bool {
	return m.MaxParticipants != nil && len(m.Participants) >= *m.MaxParticipants
}

// Clone returns a deep copy so subscribers can't mutate stored state
func (m *Meetup) Clone() *Meetup {
	cp := *m
	cp.Participants = make([]UserSnapshot, len(m.Participants))
	copy(cp.Participants, m.Participants)
	cp.Categories = append([]string(nil), m.Categories...)
	cp.Reactions = CloneReactions(m.Reactions)
	return &cp
}

// CloneReactions deep-copies an emoji reaction map
func CloneReactions(reactions map[string][]string) map[string][]string {
	if reactions == nil {
		return map[string][]string{}
	}
	cp := make(map[string][]string, len(reactions))
	for emoji, users := range reactions {
		cp[emoji] = append([]string(nil), users...)
	}
	return cp
}
