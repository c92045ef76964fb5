package handlers

import (
	"context"
	"time"

	"kumpul/server/internal/database"
	"kumpul/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SubmitFeedbackRequest represents a feedback submission body
type SubmitFeedbackRequest struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// SubmitFeedback stores an anonymous feedback submission. No auth
// required; the optional email is only used for follow-up.
func SubmitFeedback(c *fiber.Ctx) error {
	var req SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Message is required",
		})
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	_, err := database.Pool.Exec(context.Background(), `
		INSERT INTO feedback (id, message, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New().String(), req.Message, email, time.Now())

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to submit feedback",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Thank you for your feedback",
	})
}

// GetFeedback returns all feedback submissions, newest first (admin only)
func GetFeedback(c *fiber.Ctx) error {
	rows, err := database.Pool.Query(context.Background(), `
		SELECT id, message, email, created_at
		FROM feedback
		ORDER BY created_at DESC
	`)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var feedback []models.Feedback

	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.Message, &f.Email, &f.CreatedAt); err != nil {
			continue
		}
		feedback = append(feedback, f)
	}

	if feedback == nil {
		feedback = []models.Feedback{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    feedback,
	})
}
