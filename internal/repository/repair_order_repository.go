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

// repairOrderUpdateColumns is the fixed allowlist of PATCHable RO fields.
var repairOrderUpdateColumns = []string{
	"technician_id", "description", "services", "parts", "labor_hours",
	"labor_rate", "parts_cost", "labor_cost", "tax_amount", "total_cost",
	"status", "priority", "notes", "completed_date",
}

const repairOrderDetailColumns = `ro.id, ro.service_appointment_id, ro.customer_id, ro.vehicle_id, ro.technician_id,
        ro.ro_number, ro.description, ro.services, ro.parts, ro.labor_hours, ro.labor_rate,
        ro.parts_cost, ro.labor_cost, ro.tax_amount, ro.total_cost, ro.status, ro.priority,
        ro.notes, ro.completed_date, ro.created_by, ro.created_at, ro.updated_at,
        c.name AS customer_name,
        v.vin AS vehicle_vin, v.make AS vehicle_make, v.model AS vehicle_model,
        t.name AS technician_name`

// RepairOrderRepository manages persistence for repair orders.
type RepairOrderRepository struct {
	db *sqlx.DB
}

// NewRepairOrderRepository constructs a RepairOrderRepository.
func NewRepairOrderRepository(db *sqlx.DB) *RepairOrderRepository {
	return &RepairOrderRepository{db: db}
}

// List returns repair orders matching the provided filters.
func (r *RepairOrderRepository) List(ctx context.Context, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, int, error) {
	base := `FROM repair_orders ro
        LEFT JOIN customers c ON ro.customer_id = c.id
        LEFT JOIN vehicles v ON ro.vehicle_id = v.id
        LEFT JOIN users t ON ro.technician_id = t.id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("ro.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("ro.customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.VehicleID != "" {
		conditions = append(conditions, fmt.Sprintf("ro.vehicle_id = $%d", len(args)+1))
		args = append(args, filter.VehicleID)
	}
	if filter.TechnicianID != "" {
		conditions = append(conditions, fmt.Sprintf("ro.technician_id = $%d", len(args)+1))
		args = append(args, filter.TechnicianID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(ro.ro_number ILIKE $%d OR ro.description ILIKE $%d)", idx, idx))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY ro.created_at DESC LIMIT %d OFFSET %d", repairOrderDetailColumns, base, size, offset)

	var orders []models.RepairOrderDetail
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list repair orders: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count repair orders: %w", err)
	}
	return orders, total, nil
}

// FindByID fetches a repair order detail by ID.
func (r *RepairOrderRepository) FindByID(ctx context.Context, id string) (*models.RepairOrderDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_orders ro
        LEFT JOIN customers c ON ro.customer_id = c.id
        LEFT JOIN vehicles v ON ro.vehicle_id = v.id
        LEFT JOIN users t ON ro.technician_id = t.id
        WHERE ro.id = $1`, repairOrderDetailColumns)
	var detail models.RepairOrderDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a repair order, generating the RO number inside the
// transaction when none is supplied: RO-{year}-{6-digit sequence}, where
// the sequence counts orders created in the current calendar year.
func (r *RepairOrderRepository) Create(ctx context.Context, order *models.RepairOrder, entry *models.AuditLog) (err error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin repair order create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if order.RONumber == "" {
		var count int
		const countQuery = `SELECT COUNT(*) FROM repair_orders WHERE EXTRACT(YEAR FROM created_at) = EXTRACT(YEAR FROM NOW())`
		if err = tx.GetContext(ctx, &count, countQuery); err != nil {
			return fmt.Errorf("count repair orders for numbering: %w", err)
		}
		order.RONumber = fmt.Sprintf("RO-%d-%06d", now.Year(), count+1)
	}

	const query = `INSERT INTO repair_orders (id, service_appointment_id, customer_id, vehicle_id, technician_id,
        ro_number, description, services, parts, labor_hours, labor_rate, parts_cost, labor_cost,
        tax_amount, total_cost, status, priority, notes, completed_date, created_by, created_at, updated_at)
        VALUES (:id, :service_appointment_id, :customer_id, :vehicle_id, :technician_id,
        :ro_number, :description, :services, :parts, :labor_hours, :labor_rate, :parts_cost, :labor_cost,
        :tax_amount, :total_cost, :status, :priority, :notes, :completed_date, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("create repair order: %w", err)
	}

	entry.ResourceID = &order.ID
	refreshAuditDetails(entry, order)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit repair order create: %w", err)
	}
	return nil
}

// Update applies allowlisted field changes plus the audit entry atomically.
func (r *RepairOrderRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(repairOrderUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin repair order update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE repair_orders SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update repair order: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit repair order update: %w", err)
	}
	return nil
}

// Delete removes a repair order and audits the removal atomically.
func (r *RepairOrderRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin repair order delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM repair_orders WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete repair order: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit repair order delete: %w", err)
	}
	return nil
}
