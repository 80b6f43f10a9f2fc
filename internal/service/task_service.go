package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.TaskDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TaskDetail, error)
	Create(ctx context.Context, task *models.Task, entry *models.AuditLog) error
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) error
}

// CreateTaskRequest holds payload for creating tasks.
type CreateTaskRequest struct {
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo    *string    `json:"assigned_to"`
	DueDate       *time.Time `json:"due_date"`
	RelatedToType *string    `json:"related_to_type"`
	RelatedToID   *string    `json:"related_to_id"`
}

// TaskService handles work item use-cases.
type TaskService struct {
	repo      taskRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs the task service.
func NewTaskService(repo taskRepository, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, validator: validate, logger: logger}
}

// List returns tasks and pagination metadata.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.TaskDetail, *models.Pagination, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed task information.
func (s *TaskService) Get(ctx context.Context, id string) (*models.TaskDetail, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create registers a new task.
func (s *TaskService) Create(ctx context.Context, actor Actor, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:         req.Title,
		Description:   req.Description,
		Status:        models.TaskStatusPending,
		Priority:      priority,
		AssignedTo:    req.AssignedTo,
		DueDate:       req.DueDate,
		RelatedToType: req.RelatedToType,
		RelatedToID:   req.RelatedToID,
		CreatedBy:     actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "task", task)
	if err := s.repo.Create(ctx, task, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Update applies allowlisted field changes. Moving a task to completed
// stamps completed_at when the caller did not provide one.
func (s *TaskService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.TaskDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	if status, ok := changes["status"].(string); ok {
		if status == models.TaskStatusCompleted && current.CompletedAt == nil {
			if _, provided := changes["completed_at"]; !provided {
				changes["completed_at"] = time.Now().UTC()
			}
		}
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "task", updateDetails(current.Task, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload task")
	}
	return updated, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "task", current.Task)
	if err := s.repo.Delete(ctx, id, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}
