package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func TestMessageRepositoryDeleteCommitsWithAudit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM messages WHERE id").
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	userID := "user-1"
	entry := &models.AuditLog{UserID: &userID, Action: models.AuditActionDelete, ResourceType: "message"}
	err := repo.Delete(context.Background(), "msg-1", entry)
	require.NoError(t, err)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "msg-1", *entry.ResourceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryDeleteRollsBackWhenAuditFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM messages WHERE id").
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "msg-1", &models.AuditLog{Action: models.AuditActionDelete, ResourceType: "message"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
