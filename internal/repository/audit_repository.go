package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

// AuditRepository reads the append-only audit trail. Writes happen through
// insertAuditTx inside the same transaction as the mutation being recorded,
// so a mutation is durable if and only if its audit entry is durable.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// List returns audit entries matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogDetail, int, error) {
	base := "FROM audit_logs a LEFT JOIN users u ON u.id = a.user_id WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != "" {
		base += fmt.Sprintf(" AND a.user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.Action != "" {
		base += fmt.Sprintf(" AND a.action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.ResourceType != "" {
		base += fmt.Sprintf(" AND a.resource_type = $%d", len(args)+1)
		args = append(args, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		base += fmt.Sprintf(" AND a.resource_id = $%d", len(args)+1)
		args = append(args, filter.ResourceID)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.action, a.resource_type, a.resource_id, a.details, a.ip_address, a.user_agent, a.created_at,
        u.name AS user_name, u.email AS user_email
        %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var entries []models.AuditLogDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return entries, total, nil
}

// Create inserts a standalone audit entry outside any mutation transaction.
// Used only for events with no accompanying row change, such as LOGIN.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := insertAuditTx(ctx, r.db, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// refreshAuditDetails re-marshals a CREATE entry's payload once generated
// fields, primarily the row ID, have been assigned, so the recorded
// snapshot matches the row as written.
func refreshAuditDetails(entry *models.AuditLog, payload interface{}) {
	if entry == nil || payload == nil {
		return
	}
	if raw, err := json.Marshal(payload); err == nil {
		entry.Details = raw
	}
}

// insertAuditTx appends an audit entry using the caller's transaction (or
// connection). Every mutating repository calls this before committing.
func insertAuditTx(ctx context.Context, tx sqlx.ExtContext, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.Details, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
