// Package middleware provides authentication and request instrumentation
// middleware for the application.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/identity"
)

// TokenParser verifies a bearer token and returns the session it
// encodes. Implemented by service.AuthService.
type TokenParser interface {
	ParseToken(token string) (*identity.Session, error)
}

// AuthRequired enforces authentication for protected routes, storing
// the authenticated user id in Locals("userID").
func AuthRequired(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		session, err := parser.ParseToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userID", session.UserID)
		return c.Next()
	}
}

// WebSocketAuthRequired validates tokens from the query string, where
// browser WebSocket clients must carry them, falling back to the
// Authorization header.
func WebSocketAuthRequired(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			authHeader := c.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Token required",
				})
			}
			token = parts[1]
		}

		session, err := parser.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userID", session.UserID)
		return c.Next()
	}
}

// UserID extracts the authenticated user id set by the auth middleware.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}
