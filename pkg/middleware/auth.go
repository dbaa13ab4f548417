package middleware

import (
	"te-chatbot/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionCookie is the cookie holding the signed session token.
const SessionCookie = "session_token"

// Session validates the session cookie (or a bearer token) and stores the
// user identity in request locals.
func Session(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			// Fall back to Authorization header for API clients
			header := c.Get("Authorization")
			if len(header) > 7 && header[:7] == "Bearer " {
				token = header[7:]
			}
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Not authenticated",
			})
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid session token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid or expired session",
			})
		}

		c.Locals("username", claims.Username)
		c.Locals("fullName", claims.FullName)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// AdminOnly gates a route to users with the admin role. Must run after Session.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Admin access required",
			})
		}
		return c.Next()
	}
}
