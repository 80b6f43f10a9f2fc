package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockTaskRepo struct {
	tasks        map[string]*models.TaskDetail
	lastChanges  map[string]interface{}
	auditEntries []*models.AuditLog
}

func (m *mockTaskRepo) List(ctx context.Context, filter models.TaskFilter) ([]models.TaskDetail, int, error) {
	return nil, 0, nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*models.TaskDetail, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return task, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task, entry *models.AuditLog) error {
	task.ID = "task-1"
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error {
	m.lastChanges = changes
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id string, entry *models.AuditLog) error {
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func TestTaskServiceCreateDefaults(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]*models.TaskDetail{}}
	svc := NewTaskService(repo, nil, nil)

	task, err := svc.Create(context.Background(), Actor{UserID: "user-1"}, CreateTaskRequest{
		Title: "Call back trade-in prospect",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
}

func TestTaskServiceUpdateStampsCompletedAt(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]*models.TaskDetail{
		"task-1": {Task: models.Task{ID: "task-1", Status: models.TaskStatusInProgress}},
	}}
	svc := NewTaskService(repo, nil, nil)

	_, err := svc.Update(context.Background(), Actor{UserID: "user-1"}, "task-1",
		map[string]interface{}{"status": models.TaskStatusCompleted})
	require.NoError(t, err)

	stamped, ok := repo.lastChanges["completed_at"].(time.Time)
	require.True(t, ok, "completed_at should be stamped")
	assert.WithinDuration(t, time.Now().UTC(), stamped, time.Minute)
}

func TestTaskServiceUpdateKeepsCallerCompletedAt(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]*models.TaskDetail{
		"task-1": {Task: models.Task{ID: "task-1", Status: models.TaskStatusInProgress}},
	}}
	svc := NewTaskService(repo, nil, nil)

	explicit := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.Update(context.Background(), Actor{}, "task-1", map[string]interface{}{
		"status":       models.TaskStatusCompleted,
		"completed_at": explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, repo.lastChanges["completed_at"])
}

func TestTaskServiceUpdateAlreadyCompletedNotRestamped(t *testing.T) {
	done := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	repo := &mockTaskRepo{tasks: map[string]*models.TaskDetail{
		"task-1": {Task: models.Task{ID: "task-1", Status: models.TaskStatusCompleted, CompletedAt: &done}},
	}}
	svc := NewTaskService(repo, nil, nil)

	_, err := svc.Update(context.Background(), Actor{}, "task-1",
		map[string]interface{}{"status": models.TaskStatusCompleted})
	require.NoError(t, err)
	_, stamped := repo.lastChanges["completed_at"]
	assert.False(t, stamped)
}

func TestTaskServiceDeleteNotFound(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]*models.TaskDetail{}}
	svc := NewTaskService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{}, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
