package models

import "time"

// Feedback represents an anonymous feedback submission
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	Message   string    `json:"message" db:"message"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
