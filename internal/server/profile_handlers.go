package server

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

type updateProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	profile, err := s.profileService.EnsureProfile(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.UpdateProfile(ctx, userID, req.Username, req.DisplayName)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyTheme handles PUT /api/users/me/theme
func (s *Server) UpdateMyTheme(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	var theme models.ThemeSettings
	if err := c.BodyParser(&theme); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.UpdateTheme(ctx, userID, theme)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

// UploadAvatar handles POST /api/users/me/avatar
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("An 'avatar' file field is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	upload, err := s.uploadService.Stage(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	url, err := s.uploadService.CommitAvatar(ctx, userID, upload)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	profile, err := s.profileService.SetAvatarURL(ctx, userID, url)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

// GetProfileByUsername handles GET /api/users/:username
func (s *Server) GetProfileByUsername(c *fiber.Ctx) error {
	ctx := c.UserContext()

	username := c.Params("username")
	profile, err := s.profileService.GetByUsername(ctx, username)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}
