package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

// partUpdateColumns is the fixed allowlist of PATCHable part fields.
// part_number is immutable after creation.
var partUpdateColumns = []string{
	"name", "description", "category", "manufacturer", "supplier_id",
	"cost_price", "selling_price", "quantity_in_stock", "reorder_level",
	"location", "notes", "compatible_vehicles",
}

// PartRepository manages persistence for parts inventory and its
// append-only stock-history ledger.
type PartRepository struct {
	db *sqlx.DB
}

// NewPartRepository constructs a PartRepository.
func NewPartRepository(db *sqlx.DB) *PartRepository {
	return &PartRepository{db: db}
}

// List returns parts matching the provided filters.
func (r *PartRepository) List(ctx context.Context, filter models.PartFilter) ([]models.Part, int, error) {
	base := "FROM parts p"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.SupplierID != "" {
		conditions = append(conditions, fmt.Sprintf("p.supplier_id = $%d", len(args)+1))
		args = append(args, filter.SupplierID)
	}
	if filter.LowStock {
		conditions = append(conditions, "p.quantity_in_stock <= p.reorder_level")
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(p.part_number ILIKE $%d OR p.name ILIKE $%d OR p.manufacturer ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+filter.Search+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.part_number, p.name, p.description, p.category, p.manufacturer,
        p.supplier_id, p.cost_price, p.selling_price, p.quantity_in_stock, p.reorder_level,
        p.location, p.notes, p.compatible_vehicles, p.created_by, p.created_at, p.updated_at
        %s ORDER BY p.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var parts []models.Part
	if err := r.db.SelectContext(ctx, &parts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parts: %w", err)
	}
	return parts, total, nil
}

// FindByID fetches a part with supplier fields and its recent stock history.
func (r *PartRepository) FindByID(ctx context.Context, id string) (*models.PartDetail, error) {
	const query = `SELECT p.id, p.part_number, p.name, p.description, p.category, p.manufacturer,
        p.supplier_id, p.cost_price, p.selling_price, p.quantity_in_stock, p.reorder_level,
        p.location, p.notes, p.compatible_vehicles, p.created_by, p.created_at, p.updated_at,
        s.name AS supplier_name, s.contact_person AS supplier_contact
        FROM parts p
        LEFT JOIN suppliers s ON p.supplier_id = s.id
        WHERE p.id = $1`
	var detail models.PartDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}

	const historyQuery = `SELECT id, part_id, previous_quantity, new_quantity, change_type, changed_by, created_at
        FROM part_stock_history WHERE part_id = $1 ORDER BY created_at DESC LIMIT 20`
	if err := r.db.SelectContext(ctx, &detail.StockHistory, historyQuery, id); err != nil {
		return nil, fmt.Errorf("load stock history: %w", err)
	}
	return &detail, nil
}

// ExistsByPartNumber checks whether a part with the given number exists.
func (r *PartRepository) ExistsByPartNumber(ctx context.Context, partNumber string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM parts WHERE part_number = $1 LIMIT 1", partNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check part number: %w", err)
	}
	return true, nil
}

// Create inserts a new part and its audit entry in one transaction. The
// part-number pre-check runs inside the transaction; the unique index
// remains the authoritative guard under concurrent inserts.
func (r *PartRepository) Create(ctx context.Context, part *models.Part, entry *models.AuditLog) (duplicate bool, err error) {
	if part.ID == "" {
		part.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	part.CreatedAt = now
	part.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin part create: %w", err)
	}
	defer func() {
		if err != nil || duplicate {
			_ = tx.Rollback()
		}
	}()

	var existing int
	if err = tx.GetContext(ctx, &existing, "SELECT 1 FROM parts WHERE part_number = $1 LIMIT 1", part.PartNumber); err == nil {
		return true, nil
	} else if err != sql.ErrNoRows {
		return false, fmt.Errorf("check part number: %w", err)
	}
	err = nil

	const query = `INSERT INTO parts (id, part_number, name, description, category, manufacturer,
        supplier_id, cost_price, selling_price, quantity_in_stock, reorder_level,
        location, notes, compatible_vehicles, created_by, created_at, updated_at)
        VALUES (:id, :part_number, :name, :description, :category, :manufacturer,
        :supplier_id, :cost_price, :selling_price, :quantity_in_stock, :reorder_level,
        :location, :notes, :compatible_vehicles, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, part); err != nil {
		return false, fmt.Errorf("create part: %w", err)
	}

	entry.ResourceID = &part.ID
	refreshAuditDetails(entry, part)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit part create: %w", err)
	}
	return false, nil
}

// Update applies allowlisted field changes in one transaction. When the
// stock quantity changes, exactly one stock-history row is appended with
// the previous and new values before the part row is rewritten.
func (r *PartRepository) Update(ctx context.Context, id string, changes map[string]interface{}, changedBy string, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(partUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin part update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var currentQuantity int
	if err = tx.GetContext(ctx, &currentQuantity, "SELECT quantity_in_stock FROM parts WHERE id = $1 FOR UPDATE", id); err != nil {
		return err
	}

	if raw, ok := changes["quantity_in_stock"]; ok {
		newQuantity, ok := toInt(raw)
		if ok && newQuantity != currentQuantity {
			changeType := models.StockChangeIncrease
			if newQuantity < currentQuantity {
				changeType = models.StockChangeDecrease
			}
			const historyQuery = `INSERT INTO part_stock_history (id, part_id, previous_quantity, new_quantity, change_type, changed_by, created_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7)`
			if _, err = tx.ExecContext(ctx, historyQuery, uuid.NewString(), id, currentQuantity, newQuantity, changeType, changedBy, time.Now().UTC()); err != nil {
				return fmt.Errorf("insert stock history: %w", err)
			}
		}
	}

	query := fmt.Sprintf("UPDATE parts SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update part: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit part update: %w", err)
	}
	return nil
}

// Delete removes a part and audits the removal atomically.
func (r *PartRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin part delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM parts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete part: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit part delete: %w", err)
	}
	return nil
}

// toInt normalises JSON-decoded numerics; encoding/json yields float64.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
