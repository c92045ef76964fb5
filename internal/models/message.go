package models

// Message represents a chat message inside a meetup
type Message struct {
	ID        string              `json:"id" db:"id"`
	MeetupID  string              `json:"meetupId" db:"meetup_id"`
	Text      string              `json:"text" db:"text"`
	UserID    string              `json:"userId" db:"user_id"`
	UserName  string              `json:"userName" db:"user_name"`
	UserImage *string             `json:"userImage,omitempty" db:"user_image"`
	Timestamp int64               `json:"timestamp" db:"timestamp"` // Unix milliseconds, ordering key
	Reactions map[string][]string `json:"reactions" db:"reactions"` // emoji -> user IDs
}

// Clone returns a deep copy of the message
func (m *Message) Clone() *Message {
	cp := *m
	cp.Reactions = CloneReactions(m.Reactions)
	return &cp
}
