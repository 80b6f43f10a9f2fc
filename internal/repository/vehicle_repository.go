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

// vehicleUpdateColumns is the fixed allowlist of PATCHable vehicle fields.
// VIN is immutable after creation.
var vehicleUpdateColumns = []string{
	"stock_number", "status", "make", "model", "year", "trim",
	"exterior_color", "interior_color", "mileage", "transmission",
	"fuel_type", "engine", "drivetrain", "body_style", "price",
	"cost", "msrp", "customer_id", "features", "condition_notes", "location",
}

const vehicleDetailColumns = `v.id, v.vin, v.stock_number, v.type, v.status, v.make, v.model, v.year, v.trim,
        v.exterior_color, v.interior_color, v.mileage, v.transmission, v.fuel_type, v.engine,
        v.drivetrain, v.body_style, v.price, v.cost, v.msrp, v.customer_id, v.features,
        v.condition_notes, v.location, v.created_by, v.created_at, v.updated_at,
        c.name AS customer_name, c.email AS customer_email`

// VehicleRepository manages persistence for vehicle inventory.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository constructs a VehicleRepository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns vehicles matching the provided filters.
func (r *VehicleRepository) List(ctx context.Context, filter models.VehicleFilter) ([]models.VehicleDetail, int, error) {
	base := "FROM vehicles v LEFT JOIN customers c ON v.customer_id = c.id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("v.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("v.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Make != "" {
		conditions = append(conditions, fmt.Sprintf("v.make = $%d", len(args)+1))
		args = append(args, filter.Make)
	}
	if filter.PriceMin != nil {
		conditions = append(conditions, fmt.Sprintf("v.price >= $%d", len(args)+1))
		args = append(args, *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		conditions = append(conditions, fmt.Sprintf("v.price <= $%d", len(args)+1))
		args = append(args, *filter.PriceMax)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(v.vin ILIKE $%d OR v.stock_number ILIKE $%d OR v.make ILIKE $%d OR v.model ILIKE $%d)", idx, idx, idx, idx))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY v.created_at DESC LIMIT %d OFFSET %d", vehicleDetailColumns, base, size, offset)

	var vehicles []models.VehicleDetail
	if err := r.db.SelectContext(ctx, &vehicles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}
	return vehicles, total, nil
}

// FindByID fetches a vehicle detail by ID.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*models.VehicleDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles v
        LEFT JOIN customers c ON v.customer_id = c.id
        WHERE v.id = $1`, vehicleDetailColumns)
	var detail models.VehicleDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByVIN checks whether a vehicle with the given VIN already exists.
func (r *VehicleRepository) ExistsByVIN(ctx context.Context, vin string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM vehicles WHERE vin = $1 LIMIT 1", vin); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check vin: %w", err)
	}
	return true, nil
}

// CountSales returns the number of sales referencing a vehicle.
func (r *VehicleRepository) CountSales(ctx context.Context, vehicleID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sales WHERE vehicle_id = $1", vehicleID); err != nil {
		return 0, fmt.Errorf("count vehicle sales: %w", err)
	}
	return count, nil
}

// Create inserts a new vehicle and its audit entry in one transaction. The
// application-level VIN pre-check runs inside the transaction; the unique
// index on vin remains the authoritative guard under concurrent inserts.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle, entry *models.AuditLog) (duplicate bool, err error) {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin vehicle create: %w", err)
	}
	defer func() {
		if err != nil || duplicate {
			_ = tx.Rollback()
		}
	}()

	var existing int
	if err = tx.GetContext(ctx, &existing, "SELECT 1 FROM vehicles WHERE vin = $1 LIMIT 1", vehicle.VIN); err == nil {
		return true, nil
	} else if err != sql.ErrNoRows {
		return false, fmt.Errorf("check vin: %w", err)
	}
	err = nil

	const query = `INSERT INTO vehicles (id, vin, stock_number, type, status, make, model, year, trim,
        exterior_color, interior_color, mileage, transmission, fuel_type, engine, drivetrain,
        body_style, price, cost, msrp, customer_id, features, condition_notes, location,
        created_by, created_at, updated_at)
        VALUES (:id, :vin, :stock_number, :type, :status, :make, :model, :year, :trim,
        :exterior_color, :interior_color, :mileage, :transmission, :fuel_type, :engine, :drivetrain,
        :body_style, :price, :cost, :msrp, :customer_id, :features, :condition_notes, :location,
        :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, vehicle); err != nil {
		return false, fmt.Errorf("create vehicle: %w", err)
	}

	entry.ResourceID = &vehicle.ID
	refreshAuditDetails(entry, vehicle)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit vehicle create: %w", err)
	}
	return false, nil
}

// Update applies allowlisted field changes plus the audit entry atomically.
func (r *VehicleRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(vehicleUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vehicle update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE vehicles SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit vehicle update: %w", err)
	}
	return nil
}

// Delete removes a vehicle after verifying no sales reference it. The
// dependency check runs inside the transaction so a concurrent sale cannot
// slip between check and delete.
func (r *VehicleRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (blocked bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin vehicle delete: %w", err)
	}
	defer func() {
		if err != nil || blocked {
			_ = tx.Rollback()
		}
	}()

	var saleCount int
	if err = tx.GetContext(ctx, &saleCount, "SELECT COUNT(*) FROM sales WHERE vehicle_id = $1", id); err != nil {
		return false, fmt.Errorf("count vehicle sales: %w", err)
	}
	if saleCount > 0 {
		return true, nil
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM vehicles WHERE id = $1", id); err != nil {
		return false, fmt.Errorf("delete vehicle: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit vehicle delete: %w", err)
	}
	return false, nil
}
