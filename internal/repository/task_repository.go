package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

// taskUpdateColumns is the fixed allowlist of PATCHable task fields.
var taskUpdateColumns = []string{
	"title", "description", "status", "priority", "assigned_to",
	"due_date", "related_to_type", "related_to_id", "completed_at",
}

const taskDetailColumns = `t.id, t.title, t.description, t.status, t.priority, t.assigned_to, t.due_date,
        t.related_to_type, t.related_to_id, t.completed_at, t.created_by, t.created_at, t.updated_at,
        u.name AS assigned_to_name, u.email AS assigned_to_email,
        creator.name AS created_by_name`

// TaskRepository manages persistence for work tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns tasks ordered by priority then due date.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.TaskDetail, int, error) {
	base := `FROM tasks t
        LEFT JOIN users u ON t.assigned_to = u.id
        LEFT JOIN users creator ON t.created_by = creator.id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("t.priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("t.assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.DueDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.due_date::date = $%d::date", len(args)+1))
		args = append(args, *filter.DueDate)
	}
	if filter.RelatedType != "" && filter.RelatedID != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("t.related_to_type = $%d AND t.related_to_id = $%d", idx, idx+1))
		args = append(args, filter.RelatedType, filter.RelatedID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", idx, idx))
		args = append(args, "%"+filter.Search+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY
        CASE t.priority
            WHEN 'urgent' THEN 1
            WHEN 'high' THEN 2
            WHEN 'medium' THEN 3
            WHEN 'low' THEN 4
        END,
        t.due_date ASC NULLS LAST
        LIMIT %d OFFSET %d`, taskDetailColumns, base, size, offset)

	var tasks []models.TaskDetail
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

// FindByID fetches a task detail by ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.TaskDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks t
        LEFT JOIN users u ON t.assigned_to = u.id
        LEFT JOIN users creator ON t.created_by = creator.id
        WHERE t.id = $1`, taskDetailColumns)
	var detail models.TaskDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new task and its audit entry in one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task, entry *models.AuditLog) (err error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO tasks (id, title, description, status, priority, assigned_to, due_date,
        related_to_type, related_to_id, completed_at, created_by, created_at, updated_at)
        VALUES (:id, :title, :description, :status, :priority, :assigned_to, :due_date,
        :related_to_type, :related_to_id, :completed_at, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	entry.ResourceID = &task.ID
	refreshAuditDetails(entry, task)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit task create: %w", err)
	}
	return nil
}

// Update applies allowlisted field changes plus the audit entry atomically.
func (r *TaskRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(taskUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE tasks SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit task update: %w", err)
	}
	return nil
}

// Delete removes a task and audits the removal atomically.
func (r *TaskRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit task delete: %w", err)
	}
	return nil
}
