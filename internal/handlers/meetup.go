package handlers

import (
	"context"
	"time"

	"kumpul/server/internal/cache"
	"kumpul/server/internal/middleware"
	"kumpul/server/internal/models"
	"kumpul/server/internal/store"

	"github.com/gofiber/fiber/v2"
)

// ProfileBody carries the caller's display profile for operations that
// embed a user snapshot into a meetup document
type ProfileBody struct {
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Status string `json:"status,omitempty"`
}

// CreateMeetupRequest represents create meetup request body
type CreateMeetupRequest struct {
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Location        string      `json:"location"`
	Time            time.Time   `json:"time"`
	IsPublic        *bool       `json:"isPublic,omitempty"`
	ImageURL        string      `json:"imageUrl,omitempty"`
	MaxParticipants *int        `json:"maxParticipants,omitempty"`
	Categories      []string    `json:"categories,omitempty"`
	Creator         ProfileBody `json:"creator"`
}

// UpdateMeetupRequest represents update meetup request body
type UpdateMeetupRequest struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Location        *string    `json:"location,omitempty"`
	Time            *time.Time `json:"time,omitempty"`
	IsPublic        *bool      `json:"isPublic,omitempty"`
	ImageURL        *string    `json:"imageUrl,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
	Categories      []string   `json:"categories,omitempty"`
	Status          *string    `json:"status,omitempty"`
}

// ReactRequest represents a reaction toggle request body
type ReactRequest struct {
	Emoji string `json:"emoji"`
}

// snapshotFromClaims builds the embedded user snapshot from the JWT
// identity plus the display profile the client sent
func snapshotFromClaims(c *fiber.Ctx, p ProfileBody) models.UserSnapshot {
	status := p.Status
	if status == "" {
		status = "available"
	}
	return models.UserSnapshot{
		ID:     middleware.GetUserID(c),
		Name:   p.Name,
		Image:  p.Image,
		Email:  middleware.GetUserEmail(c),
		Status: status,
	}
}

// dedupCategories removes duplicate category tags, keeping first occurrence.
// Dedup happens at input time only; stored lists are trusted as-is.
func dedupCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, cat := range categories {
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		out = append(out, cat)
	}
	return out
}

// CreateMeetup creates a new meetup with the caller as creator and
// first participant
func CreateMeetup(c *fiber.Ctx) error {
	var req CreateMeetupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	// Validate input
	if req.Title == "" || req.Location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title and location are required",
		})
	}

	if req.Time.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup time is required",
		})
	}

	if req.Creator.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Creator name is required",
		})
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	var imageURL *string
	if req.ImageURL != "" {
		imageURL = &req.ImageURL
	}

	meetup := &models.Meetup{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Time:            req.Time,
		Creator:         snapshotFromClaims(c, req.Creator),
		IsPublic:        isPublic,
		ImageURL:        imageURL,
		MaxParticipants: req.MaxParticipants,
		Categories:      dedupCategories(req.Categories),
	}

	created, err := Store.Create(c.Context(), meetup)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create meetup",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

// GetMeetups returns all active (non-archived) meetups ordered by time
// descending, each with its badge counts
func GetMeetups(c *fiber.Ctx) error {
	meetups, err := Store.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to list meetups",
		})
	}

	cards := make([]fiber.Map, 0, len(meetups))
	for _, m := range meetups {
		cards = append(cards, fiber.Map{
			"id":              m.ID,
			"title":           m.Title,
			"description":     m.Description,
			"location":        m.Location,
			"time":            m.Time,
			"creator":         m.Creator,
			"isPublic":        m.IsPublic,
			"imageUrl":        m.ImageURL,
			"maxParticipants": m.MaxParticipants,
			"status":          m.Status,
			"categories":      m.Categories,
			"counts":          meetupCounts(c.Context(), m),
			"createdAt":       m.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    cards,
	})
}

// meetupCounts returns the badge counts for a meetup card, trying the
// cache first and rebuilding it from the document on a miss
func meetupCounts(ctx context.Context, m *models.Meetup) cache.Counts {
	counts, ok, _ := CountCache.Get(ctx, m.ID)
	if ok {
		return counts
	}

	counts = cache.Counts{Participants: len(m.Participants)}
	for _, users := range m.Reactions {
		counts.Reactions += len(users)
	}
	CountCache.Set(ctx, m.ID, counts)

	return counts
}

// GetMeetupDetails returns a single meetup document
func GetMeetupDetails(c *fiber.Ctx) error {
	meetupID := c.Params("meetupId")

	meetup, err := Store.Get(c.Context(), meetupID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    meetup,
	})
}

// UpdateMeetup updates meetup fields (creator only)
func UpdateMeetup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	meetupID := c.Params("meetupId")

	var req UpdateMeetupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	meetup, err := Store.Get(c.Context(), meetupID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
	}

	if meetup.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the meetup creator can update it",
		})
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Time != nil {
		fields["time"] = *req.Time
	}
	if req.IsPublic != nil {
		fields["is_public"] = *req.IsPublic
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.MaxParticipants != nil {
		fields["max_participants"] = *req.MaxParticipants
	}
	if req.Categories != nil {
		fields["categories"] = dedupCategories(req.Categories)
	}
	if req.Status != nil {
		if *req.Status != models.MeetupStatusActive &&
			*req.Status != models.MeetupStatusCancelled &&
			*req.Status != models.MeetupStatusCompleted {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid meetup status",
			})
		}
		fields["status"] = *req.Status
	}

	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No fields to update",
		})
	}

	if err := Store.Update(c.Context(), meetupID, fields); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update meetup",
		})
	}

	updated, err := Store.Get(c.Context(), meetupID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    updated,
	})
}

// ArchiveMeetup soft-deletes a meetup (creator or admin). The document
// and its chat history stay in the store; archived meetups simply drop
// out of the active list. There is no hard delete.
func ArchiveMeetup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	role, _ := c.Locals("role").(string)
	meetupID := c.Params("meetupId")

	meetup, err := Store.Get(c.Context(), meetupID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
	}

	if meetup.CreatorID != userID && role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the meetup creator can archive it",
		})
	}

	if err := Store.Archive(c.Context(), meetupID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to archive meetup",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Meetup archived successfully",
	})
}

// JoinMeetup adds the caller to the participant set. Joining twice is a
// no-op. The capacity check here is a courtesy for sequential callers;
// concurrent joins racing past the cap are accepted.
func JoinMeetup(c *fiber.Ctx) error {
	meetupID := c.Params("meetupId")

	var req ProfileBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Name is required",
		})
	}

	user := snapshotFromClaims(c, req)

	meetup, err := Store.Get(c.Context(), meetupID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
	}

	if meetup.Archived {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup has been archived",
		})
	}

	if !meetup.HasParticipant(user.ID) && meetup.IsFull() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup is full",
		})
	}

	if err := Store.Join(c.Context(), meetupID, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to join meetup",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Joined meetup",
	})
}

// LeaveMeetup removes the caller from the participant set. Removal is
// keyed by user ID, so a stale profile on the client still leaves
// cleanly. Leaving a meetup you never joined is a no-op.
func LeaveMeetup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	meetupID := c.Params("meetupId")

	err := Store.Leave(c.Context(), meetupID, userID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to leave meetup",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Left meetup",
	})
}

// ReactToMeetup toggles the caller's emoji reaction on a meetup
func ReactToMeetup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	meetupID := c.Params("meetupId")

	var req ReactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Emoji == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Emoji is required",
		})
	}

	err := Store.ReactToMeetup(c.Context(), meetupID, req.Emoji, userID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to toggle reaction",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Reaction toggled",
	})
}
