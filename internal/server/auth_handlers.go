package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	account, err := s.authService.Register(ctx, req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	// A profile is created lazily on first read, but doing it here means
	// the user is immediately addressable by username.
	profile, err := s.profileService.EnsureProfile(ctx, account.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	session, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   session.Token,
		"profile": profile,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.RespondWithError(c, models.NewValidationError("Email and password are required"))
	}

	session, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	profile, err := s.profileService.EnsureProfile(ctx, session.UserID)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":   session.Token,
		"profile": profile,
	})
}
