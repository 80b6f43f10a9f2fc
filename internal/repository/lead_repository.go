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

// leadUpdateColumns is the fixed allowlist of PATCHable lead fields.
// ai_score is deliberately absent: the score is a creation-time snapshot.
var leadUpdateColumns = []string{
	"source", "status", "interest_type", "vehicle_of_interest",
	"budget_min", "budget_max", "trade_in_vehicle", "notes",
	"assigned_to", "expected_close_date", "priority",
}

const leadDetailColumns = `l.id, l.customer_id, l.source, l.status, l.interest_type, l.vehicle_of_interest,
        l.budget_min, l.budget_max, l.trade_in_vehicle, l.notes, l.assigned_to, l.expected_close_date,
        l.priority, l.ai_score, l.created_by, l.created_at, l.updated_at,
        u.name AS assigned_to_name, u.email AS assigned_to_email,
        c.name AS customer_name, c.email AS customer_email, c.phone AS customer_phone`

// LeadRepository manages persistence for sales leads.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a LeadRepository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// List returns leads matching the provided filters. Soft-deleted leads are
// excluded unless explicitly requested by status.
func (r *LeadRepository) List(ctx context.Context, filter models.LeadFilter) ([]models.LeadDetail, int, error) {
	base := "FROM leads l LEFT JOIN users u ON l.assigned_to = u.id LEFT JOIN customers c ON l.customer_id = c.id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	} else {
		conditions = append(conditions, fmt.Sprintf("l.status <> $%d", len(args)+1))
		args = append(args, models.LeadStatusDeleted)
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("l.source = $%d", len(args)+1))
		args = append(args, filter.Source)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("l.assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.email ILIKE $%d OR c.phone ILIKE $%d OR l.notes ILIKE $%d)", idx, idx, idx, idx))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY l.created_at DESC LIMIT %d OFFSET %d", leadDetailColumns, base, size, offset)

	var leads []models.LeadDetail
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}
	return leads, total, nil
}

// FindByID fetches a lead detail by ID.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*models.LeadDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads l
        LEFT JOIN users u ON l.assigned_to = u.id
        LEFT JOIN customers c ON l.customer_id = c.id
        WHERE l.id = $1`, leadDetailColumns)
	var detail models.LeadDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new lead and its audit entry in one transaction.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead, entry *models.AuditLog) (err error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lead create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO leads (id, customer_id, source, status, interest_type, vehicle_of_interest,
        budget_min, budget_max, trade_in_vehicle, notes, assigned_to, expected_close_date,
        priority, ai_score, created_by, created_at, updated_at)
        VALUES (:id, :customer_id, :source, :status, :interest_type, :vehicle_of_interest,
        :budget_min, :budget_max, :trade_in_vehicle, :notes, :assigned_to, :expected_close_date,
        :priority, :ai_score, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}

	entry.ResourceID = &lead.ID
	refreshAuditDetails(entry, lead)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lead create: %w", err)
	}
	return nil
}

// Update applies allowlisted field changes and records the audit entry in
// the same transaction. Unknown fields in changes are silently ignored.
func (r *LeadRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(leadUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lead update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE leads SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lead update: %w", err)
	}
	return nil
}

// SoftDelete flips the lead to the deleted status and audits the removal.
func (r *LeadRepository) SoftDelete(ctx context.Context, id string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lead delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, query, models.LeadStatusDeleted, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("soft delete lead: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lead delete: %w", err)
	}
	return nil
}
