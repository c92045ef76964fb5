package models

import "time"

// GeoPoint represents an optional user location
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SocialLinks holds optional profile links
type SocialLinks struct {
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Website   string `json:"website,omitempty"`
}

// User represents a user in the system
type User struct {
	ID        string       `json:"id" db:"id"`
	UniqueID  string       `json:"uniqueId" db:"unique_id"` // Format: #GOPRO-882
	Email     string       `json:"email" db:"email"`
	Name      string       `json:"name" db:"name"`
	Password  string       `json:"-" db:"password_hash"` // Never expose in JSON
	Image     *string      `json:"image,omitempty" db:"image"`
	Status    string       `json:"status" db:"status"` // 'available' or 'busy'
	Role      string       `json:"role" db:"role"`     // 'user' or 'admin'
	Bio       *string      `json:"bio,omitempty" db:"bio"`
	Social    *SocialLinks `json:"social,omitempty" db:"social"`
	Location  *GeoPoint    `json:"location,omitempty" db:"location"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`
}

// UserResponse is what we send to clients (without sensitive data)
type UserResponse struct {
	ID        string       `json:"id"`
	UniqueID  string       `json:"uniqueId"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Image     *string      `json:"image,omitempty"`
	Status    string       `json:"status"`
	Role      string       `json:"role"`
	Bio       *string      `json:"bio,omitempty"`
	Social    *SocialLinks `json:"social,omitempty"`
	Location  *GeoPoint    `json:"location,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		UniqueID:  u.UniqueID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Status:    u.Status,
		Role:      u.Role,
		Bio:       u.Bio,
		Social:    u.Social,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

// Snapshot converts User to the embedded form stored on meetup documents
func (u *User) Snapshot() UserSnapshot {
	image := ""
	if u.Image != nil {
		image = *u.Image
	}
	return UserSnapshot{
		ID:     u.ID,
		Name:   u.Name,
		Image:  image,
		Email:  u.Email,
		Status: u.Status,
	}
}
