package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockMessageRepo struct {
	messages     map[string]*models.MessageDetail
	markedRead   []string
	auditEntries []*models.AuditLog
}

func (m *mockMessageRepo) List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, int, error) {
	return nil, 0, nil
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id string) (*models.MessageDetail, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return msg, nil
}

func (m *mockMessageRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message, entry *models.AuditLog) error {
	msg.ID = "msg-1"
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	m.markedRead = append(m.markedRead, id)
	return nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, id string, entry *models.AuditLog) error {
	delete(m.messages, id)
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func TestMessageServiceSend(t *testing.T) {
	repo := &mockMessageRepo{messages: map[string]*models.MessageDetail{}}
	svc := NewMessageService(repo, nil, nil)

	msg, err := svc.Send(context.Background(), Actor{UserID: "user-1"}, SendMessageRequest{
		RecipientID: "user-2",
		Subject:     "Trade-in appraisal",
		Body:        "Can you look at the Accord on lot B?",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", msg.SenderID)
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionCreate, repo.auditEntries[0].Action)
}

func TestMessageServiceSendToSelfRejected(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := NewMessageService(repo, nil, nil)

	_, err := svc.Send(context.Background(), Actor{UserID: "user-1"}, SendMessageRequest{
		RecipientID: "user-1",
		Subject:     "note",
		Body:        "to self",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceGetMarksRecipientRead(t *testing.T) {
	repo := &mockMessageRepo{messages: map[string]*models.MessageDetail{
		"msg-1": {Message: models.Message{ID: "msg-1", SenderID: "user-1", RecipientID: "user-2"}},
	}}
	svc := NewMessageService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "user-2", "msg-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-1"}, repo.markedRead)

	// The sender reading their own message never marks it read.
	repo.markedRead = nil
	_, err = svc.Get(context.Background(), "user-1", "msg-1")
	require.NoError(t, err)
	assert.Empty(t, repo.markedRead)
}

func TestMessageServiceGetHiddenFromThirdParties(t *testing.T) {
	repo := &mockMessageRepo{messages: map[string]*models.MessageDetail{
		"msg-1": {Message: models.Message{ID: "msg-1", SenderID: "user-1", RecipientID: "user-2"}},
	}}
	svc := NewMessageService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "user-3", "msg-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceDeleteBySender(t *testing.T) {
	repo := &mockMessageRepo{messages: map[string]*models.MessageDetail{
		"msg-1": {Message: models.Message{ID: "msg-1", SenderID: "user-1", RecipientID: "user-2"}},
	}}
	svc := NewMessageService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-1"}, "msg-1")
	require.NoError(t, err)
	assert.NotContains(t, repo.messages, "msg-1")
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionDelete, repo.auditEntries[0].Action)
	assert.Equal(t, "message", repo.auditEntries[0].ResourceType)
}

func TestMessageServiceDeleteByRecipientForbidden(t *testing.T) {
	repo := &mockMessageRepo{messages: map[string]*models.MessageDetail{
		"msg-1": {Message: models.Message{ID: "msg-1", SenderID: "user-1", RecipientID: "user-2"}},
	}}
	svc := NewMessageService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-2"}, "msg-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Contains(t, repo.messages, "msg-1")
}

func TestMessageServiceDeleteHiddenFromThirdParties(t *testing.T) {
	repo := &mockMessageRepo{messages: map[string]*models.MessageDetail{
		"msg-1": {Message: models.Message{ID: "msg-1", SenderID: "user-1", RecipientID: "user-2"}},
	}}
	svc := NewMessageService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-3"}, "msg-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.messages, "msg-1")
}
