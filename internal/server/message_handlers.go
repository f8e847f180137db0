package server

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

type sendMessageRequest struct {
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url"`
}

// GetGroupMessages handles GET /api/groups/:groupId/messages
func (s *Server) GetGroupMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	groupID, err := s.parseID(c, "groupId")
	if err != nil {
		return nil
	}

	messages, err := s.messageService.History(ctx, userID, groupID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(messages)
}

// SendGroupMessage handles POST /api/groups/:groupId/messages.
//
// JSON bodies carry content plus an optional attachment_url from an
// earlier upload. Multipart bodies carry an optional "file" part that
// is uploaded first; the message is only written once the upload has
// succeeded.
func (s *Server) SendGroupMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	groupID, err := s.parseID(c, "groupId")
	if err != nil {
		return nil
	}

	var req sendMessageRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req.Content = c.FormValue("content")
		if fileHeader, ferr := c.FormFile("file"); ferr == nil {
			file, oerr := fileHeader.Open()
			if oerr != nil {
				return models.RespondWithError(c, models.NewValidationError("Could not read uploaded file"))
			}
			content, rerr := io.ReadAll(file)
			file.Close()
			if rerr != nil {
				return models.RespondWithError(c, models.NewInternalError(rerr))
			}

			upload, serr := s.uploadService.Stage(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content)
			if serr != nil {
				return models.RespondWithError(c, serr)
			}
			ref, cerr := s.uploadService.Commit(ctx, userID, upload)
			if cerr != nil {
				return models.RespondWithError(c, cerr)
			}
			req.AttachmentURL = ref.URL
		}
	} else if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	message, err := s.messageService.Send(ctx, userID, groupID, req.Content, req.AttachmentURL)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}
