package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", AuthMiddleware, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminOnlyGate(t *testing.T) {
	withRole := func(role string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals("role", role)
			return c.Next()
		}
	}

	for role, want := range map[string]int{
		"admin": fiber.StatusOK,
		"user":  fiber.StatusForbidden,
		"":      fiber.StatusForbidden,
	} {
		app := fiber.New()
		app.Get("/admin", withRole(role), AdminOnly, func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, "role %q", role)
	}
}
