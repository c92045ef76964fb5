package handlers

import (
	"kumpul/server/internal/middleware"
	"kumpul/server/internal/models"
	"kumpul/server/internal/store"

	"github.com/gofiber/fiber/v2"
)

// SendMessageRequest represents a chat message request body
type SendMessageRequest struct {
	Text      string `json:"text"`
	UserName  string `json:"userName"`
	UserImage string `json:"userImage,omitempty"`
}

// requireParticipant loads a meetup and checks the caller is in its
// participant set. On failure it writes the error response and returns
// false.
func requireParticipant(c *fiber.Ctx, meetupID string) (*models.Meetup, bool) {
	meetup, err := Store.Get(c.Context(), meetupID)
	if err == store.ErrNotFound {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Meetup not found",
		})
		return nil, false
	}

	if err != nil {
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get meetup",
		})
		return nil, false
	}

	if !meetup.HasParticipant(middleware.GetUserID(c)) {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You are not a participant of this meetup",
		})
		return nil, false
	}

	return meetup, true
}

// GetMeetupMessages returns a meetup's chat feed ordered by timestamp
func GetMeetupMessages(c *fiber.Ctx) error {
	meetupID := c.Params("meetupId")

	if _, ok := requireParticipant(c, meetupID); !ok {
		return nil
	}

	messages, err := Store.Messages(c.Context(), meetupID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get messages",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"meetupId": meetupID,
			"messages": messages,
		},
	})
}

// SendMeetupMessage posts a chat message to a meetup (participants only)
func SendMeetupMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	meetupID := c.Params("meetupId")

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	// Validate input
	if req.Text == "" || req.UserName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Text and userName are required",
		})
	}

	if _, ok := requireParticipant(c, meetupID); !ok {
		return nil
	}

	var userImage *string
	if req.UserImage != "" {
		userImage = &req.UserImage
	}

	message, err := Store.SendMessage(c.Context(), &models.Message{
		MeetupID:  meetupID,
		Text:      req.Text,
		UserID:    userID,
		UserName:  req.UserName,
		UserImage: userImage,
	})

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to send message",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    message,
	})
}

// ReactToMessage toggles the caller's emoji reaction on a chat message
func ReactToMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	meetupID := c.Params("meetupId")
	messageID := c.Params("messageId")

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

	if _, ok := requireParticipant(c, meetupID); !ok {
		return nil
	}

	err := Store.ReactToMessage(c.Context(), meetupID, messageID, req.Emoji, userID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Message not found",
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
