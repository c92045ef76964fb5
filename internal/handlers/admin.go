package handlers

import (
	"context"

	"kumpul/server/internal/database"
	"kumpul/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UpdateRoleRequest represents a role change request body
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// GetUsers returns all registered users (admin only)
func GetUsers(c *fiber.Ctx) error {
	rows, err := database.Pool.Query(context.Background(), `
		SELECT id, unique_id, email, name, image, status, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var users []models.UserResponse

	for rows.Next() {
		var user models.User
		err := rows.Scan(&user.ID, &user.UniqueID, &user.Email, &user.Name,
			&user.Image, &user.Status, &user.Role, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			continue
		}
		users = append(users, user.ToResponse())
	}

	if users == nil {
		users = []models.UserResponse{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// UpdateUserRole promotes or demotes a user (admin only)
func UpdateUserRole(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Role != "user" && req.Role != "admin" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Role must be 'user' or 'admin'",
		})
	}

	result, err := database.Pool.Exec(context.Background(),
		"UPDATE users SET role = $1 WHERE id = $2", req.Role, userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update role",
		})
	}

	if result.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Role updated successfully",
	})
}
