package handlers

import (
	"context"
	"strconv"
	"time"

	"kumpul/server/internal/database"
	"kumpul/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// UpdateProfileRequest represents profile update request body
type UpdateProfileRequest struct {
	Name     string              `json:"name,omitempty"`
	Image    string              `json:"image,omitempty"`
	Status   string              `json:"status,omitempty"`
	Bio      string              `json:"bio,omitempty"`
	Social   *models.SocialLinks `json:"social,omitempty"`
	Location *models.GeoPoint    `json:"location,omitempty"`
}

// ExportAccount returns everything stored under the authenticated user's
// account: the profile row plus the reports they filed. Snapshots already
// embedded in meetup documents are point-in-time copies of other users'
// views and are not part of the account record.
func ExportAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var user models.User
	err := database.Pool.QueryRow(context.Background(), `
		SELECT id, unique_id, email, name, image, status, role, bio, social, location, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.UniqueID, &user.Email, &user.Name, &user.Image,
		&user.Status, &user.Role, &user.Bio, &user.Social, &user.Location, &user.CreatedAt, &user.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	rows, err := database.Pool.Query(context.Background(), `
		SELECT id, meetup_id, reporter_id, reason, details, status, created_at
		FROM reports WHERE reporter_id = $1
		ORDER BY created_at DESC
	`, userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var report models.Report
		err := rows.Scan(&report.ID, &report.MeetupID, &report.ReporterID,
			&report.Reason, &report.Details, &report.Status, &report.CreatedAt)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}
	if reports == nil {
		reports = []models.Report{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":    user.ToResponse(),
			"reports": reports,
		},
	})
}

// DeleteAccount removes the authenticated user's account and ends the
// session. Meetups they created, messages they sent, and reports they
// filed keep their embedded copies; only the account row is deleted.
func DeleteAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	result, err := database.Pool.Exec(context.Background(),
		"DELETE FROM users WHERE id = $1", userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete account",
		})
	}

	if result.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	// Clear session cookies
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    "",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   -1,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   -1,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account deleted",
	})
}

// GetUser returns a user's public profile
func GetUser(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var user models.User
	err := database.Pool.QueryRow(context.Background(), `
		SELECT id, unique_id, email, name, image, status, role, bio, social, location, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.UniqueID, &user.Email, &user.Name, &user.Image,
		&user.Status, &user.Role, &user.Bio, &user.Social, &user.Location, &user.CreatedAt, &user.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user.ToResponse(),
	})
}

// UpdateProfile updates the authenticated user's own profile. Profile
// edits do not rewrite the snapshots already embedded in meetup
// documents; those stay as they were at join time.
func UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Status != "" && req.Status != "available" && req.Status != "busy" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Status must be 'available' or 'busy'",
		})
	}

	// Update user
	query := "UPDATE users SET updated_at = $1"
	args := []interface{}{time.Now()}
	argCount := 2

	if req.Name != "" {
		query += ", name = $" + strconv.Itoa(argCount)
		args = append(args, req.Name)
		argCount++
	}

	if req.Image != "" {
		query += ", image = $" + strconv.Itoa(argCount)
		args = append(args, req.Image)
		argCount++
	}

	if req.Status != "" {
		query += ", status = $" + strconv.Itoa(argCount)
		args = append(args, req.Status)
		argCount++
	}

	if req.Bio != "" {
		query += ", bio = $" + strconv.Itoa(argCount)
		args = append(args, req.Bio)
		argCount++
	}

	if req.Social != nil {
		query += ", social = $" + strconv.Itoa(argCount)
		args = append(args, req.Social)
		argCount++
	}

	if req.Location != nil {
		query += ", location = $" + strconv.Itoa(argCount)
		args = append(args, req.Location)
		argCount++
	}

	if argCount == 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No fields to update",
		})
	}

	query += " WHERE id = $" + strconv.Itoa(argCount) +
		" RETURNING id, unique_id, email, name, image, status, role, bio, social, location, created_at, updated_at"
	args = append(args, userID)

	var user models.User
	err := database.Pool.QueryRow(context.Background(), query, args...).
		Scan(&user.ID, &user.UniqueID, &user.Email, &user.Name, &user.Image,
			&user.Status, &user.Role, &user.Bio, &user.Social, &user.Location, &user.CreatedAt, &user.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user.ToResponse(),
	})
}
