package models

import "time"

// Report statuses
const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
	ReportStatusEscalated = "escalated"
)

// Report represents a user report against a meetup
type Report struct {
	ID         string    `json:"id" db:"id"`
	MeetupID   string    `json:"meetupId" db:"meetup_id"`
	ReporterID string    `json:"reporterId" db:"reporter_id"`
	Reason     string    `json:"reason" db:"reason"`
	Details    *string   `json:"details,omitempty" db:"details"`
	Status     string    `json:"status" db:"status"` // 'open', 'resolved', 'dismissed', 'escalated'
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
