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

// documentUpdateColumns is the fixed allowlist of PATCHable document fields.
var documentUpdateColumns = []string{
	"name", "category", "related_to_type", "related_to_id", "notes",
}

const documentDetailColumns = `d.id, d.name, d.file_path, d.mime_type, d.size_bytes, d.category,
        d.related_to_type, d.related_to_id, d.notes, d.uploaded_by, d.created_at, d.updated_at,
        u.name AS uploaded_by_name`

// DocumentRepository manages document metadata rows.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns document metadata newest-first.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.DocumentDetail, int, error) {
	base := `FROM documents d LEFT JOIN users u ON d.uploaded_by = u.id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("d.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.RelatedType != "" && filter.RelatedID != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("d.related_to_type = $%d AND d.related_to_id = $%d", idx, idx+1))
		args = append(args, filter.RelatedType, filter.RelatedID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(d.name ILIKE $%d OR d.notes ILIKE $%d)", idx, idx))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY d.created_at DESC LIMIT %d OFFSET %d",
		documentDetailColumns, base, size, offset)

	var docs []models.DocumentDetail
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return docs, total, nil
}

// FindByID fetches document metadata by ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.DocumentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents d
        LEFT JOIN users u ON d.uploaded_by = u.id
        WHERE d.id = $1`, documentDetailColumns)
	var detail models.DocumentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts document metadata and its audit entry in one transaction.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document, entry *models.AuditLog) (err error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO documents (id, name, file_path, mime_type, size_bytes, category,
        related_to_type, related_to_id, notes, uploaded_by, created_at, updated_at)
        VALUES (:id, :name, :file_path, :mime_type, :size_bytes, :category,
        :related_to_type, :related_to_id, :notes, :uploaded_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	entry.ResourceID = &doc.ID
	refreshAuditDetails(entry, doc)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document create: %w", err)
	}
	return nil
}

// Update applies allowlisted metadata changes plus the audit entry atomically.
func (r *DocumentRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(documentUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE documents SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document update: %w", err)
	}
	return nil
}

// Delete removes document metadata and audits the removal atomically.
// The caller removes the stored file after the row is gone.
func (r *DocumentRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document delete: %w", err)
	}
	return nil
}
