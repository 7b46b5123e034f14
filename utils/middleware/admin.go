package middleware

import (
	"github.com/campusgrid/campus-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RequireAdmin middleware ensures the authenticated user has admin role.
// Must run after AuthMiddleware.Required.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok || user == nil {
			return response.Unauthorized(c, "Authentication required")
		}

		if user.Role != "admin" {
			return response.Forbidden(c, "Admin access required")
		}

		return c.Next()
	}
}
