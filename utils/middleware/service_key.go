package middleware

import (
	"github.com/campusgrid/campus-api/utils/auth"
	"github.com/campusgrid/campus-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RequireServiceKey guards server-to-server endpoints (identity provider
// webhooks) with an X-Service-Key header checked against stored key hashes.
func RequireServiceKey(manager *auth.ServiceKeyManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("X-Service-Key")
		if secret == "" {
			return response.Unauthorized(c, "Missing service key")
		}

		key, err := manager.Verify(c.Context(), secret)
		if err != nil {
			if err == auth.ErrInvalidServiceKey {
				return response.Unauthorized(c, "Invalid service key")
			}
			return response.InternalServerError(c, "Failed to verify service key")
		}

		c.Locals("service_key", key.Name)
		return c.Next()
	}
}
