package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// RequireAdminKey guards administrative routes with the configured API key.
// Comparison is constant-time.
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return apperrors.NewForbidden("admin api disabled")
		}
		provided := c.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			return apperrors.NewForbidden("invalid admin key")
		}
		return c.Next()
	}
}
