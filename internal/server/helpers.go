package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/middleware"
	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

// parseID reads a numeric path parameter. On failure it writes the
// error response itself and returns a non-nil error so callers can
// simply `return nil`.
func (s *Server) parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, models.NewValidationError("Invalid "+name))
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// currentUserID reads the authenticated user id set by the auth
// middleware. A missing value means the route was mounted without
// AuthRequired, which is a programming error.
func currentUserID(c *fiber.Ctx) (uint, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = models.RespondWithError(c, models.NewUnauthorizedError("Authentication required"))
		return 0, fiber.ErrUnauthorized
	}
	return userID, nil
}
