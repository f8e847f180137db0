package server

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

// UploadAttachment handles POST /api/uploads. The returned reference
// carries the object URL (and preview URL for images) for use in a
// subsequent message send.
func (s *Server) UploadAttachment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("A 'file' field is required"))
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

	ref, err := s.uploadService.Commit(ctx, userID, upload)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ref)
}
