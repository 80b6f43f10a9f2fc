package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type messageRepository interface {
	List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.MessageDetail, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, msg *models.Message, entry *models.AuditLog) error
	MarkRead(ctx context.Context, id, recipientID string) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) error
}

// SendMessageRequest holds payload for sending internal messages.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

// MessageService handles internal staff messaging.
type MessageService struct {
	repo      messageRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs the message service.
func NewMessageService(repo messageRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, validator: validate, logger: logger}
}

// List returns messages visible to the actor and pagination metadata.
func (s *MessageService) List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, *models.Pagination, error) {
	messages, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a message after checking the actor is a party to it. Reading
// a message addressed to the actor marks it read.
func (s *MessageService) Get(ctx context.Context, actorID, id string) (*models.MessageDetail, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	if msg.SenderID != actorID && msg.RecipientID != actorID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
	}
	if msg.RecipientID == actorID && msg.ReadAt == nil {
		if err := s.repo.MarkRead(ctx, id, actorID); err != nil {
			s.logger.Warn("failed to mark message read", zap.String("message_id", id), zap.Error(err))
		}
	}
	return msg, nil
}

// UnreadCount returns how many unread messages await the user.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread messages")
	}
	return count, nil
}

// Send delivers a message from the actor to another staff member.
func (s *MessageService) Send(ctx context.Context, actor Actor, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if req.RecipientID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "cannot send a message to yourself")
	}

	msg := &models.Message{
		SenderID:    actor.UserID,
		RecipientID: req.RecipientID,
		Subject:     req.Subject,
		Body:        req.Body,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "message", msg)
	if err := s.repo.Create(ctx, msg, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	return msg, nil
}

// Delete removes a message the actor sent. Recipients cannot delete what
// was sent to them, and outsiders learn nothing about the message.
func (s *MessageService) Delete(ctx context.Context, actor Actor, id string) error {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	if msg.SenderID != actor.UserID && msg.RecipientID != actor.UserID {
		return appErrors.Clone(appErrors.ErrNotFound, "message not found")
	}
	if msg.SenderID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the sender can delete a message")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "message", msg.Message)
	if err := s.repo.Delete(ctx, id, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete message")
	}
	return nil
}
