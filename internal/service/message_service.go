package service

import (
	"context"
	"strings"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
)

// MessageService provides message send and history business logic.
type MessageService struct {
	messageRepo repository.MessageRepository
	groups      *GroupService
	publisher   *realtime.Publisher
}

// NewMessageService returns a new MessageService.
func NewMessageService(messageRepo repository.MessageRepository, groups *GroupService, publisher *realtime.Publisher) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		groups:      groups,
		publisher:   publisher,
	}
}

// Send persists a message and publishes it to the group's topic. A
// message must carry text, an attachment, or both; membership is
// checked before writing.
func (s *MessageService) Send(ctx context.Context, senderID, groupID uint, content, attachmentURL string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && attachmentURL == "" {
		return nil, models.NewValidationError("message must have content or an attachment")
	}

	ok, err := s.groups.IsMember(ctx, senderID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewUnauthorizedError("not a member of this group")
	}

	message := &models.Message{
		GroupID:       groupID,
		SenderID:      senderID,
		Content:       content,
		AttachmentURL: attachmentURL,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	message, err = s.messageRepo.GetByID(ctx, message.ID)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishMessage(ctx, realtime.OpInsert, message)
	return message, nil
}

// History returns a group's full message history in stream order.
// Membership is checked before reading.
func (s *MessageService) History(ctx context.Context, userID, groupID uint) ([]models.Message, error) {
	ok, err := s.groups.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewUnauthorizedError("not a member of this group")
	}
	return s.messageRepo.ListByGroup(ctx, groupID)
}
