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

// saleUpdateColumns is the fixed allowlist of PATCHable sale fields.
var saleUpdateColumns = []string{
	"sale_date", "sale_price", "trade_in_value", "down_payment",
	"financing_amount", "monthly_payment", "term_months", "interest_rate",
	"finance_company", "tax_amount", "fees", "final_price", "payment_method",
	"status", "delivery_date", "warranty_info", "notes",
}

const saleDetailColumns = `s.id, s.customer_id, s.vehicle_id, s.salesperson_id, s.sale_date, s.sale_price,
        s.trade_in_value, s.down_payment, s.financing_amount, s.monthly_payment, s.term_months,
        s.interest_rate, s.finance_company, s.tax_amount, s.fees, s.final_price, s.payment_method,
        s.status, s.delivery_date, s.warranty_info, s.notes, s.created_by, s.created_at, s.updated_at,
        c.name AS customer_name, c.email AS customer_email,
        v.vin AS vehicle_vin, v.make AS vehicle_make, v.model AS vehicle_model, v.year AS vehicle_year,
        sp.name AS salesperson_name`

// Sentinel outcomes for sale creation against vehicle state.
var (
	ErrSaleVehicleMissing = fmt.Errorf("sale vehicle not found")
	ErrSaleVehicleSold    = fmt.Errorf("sale vehicle already sold")
)

// SaleRepository manages persistence for vehicle sales and the vehicle
// status transitions they drive.
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository constructs a SaleRepository.
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// List returns sales matching the provided filters.
func (r *SaleRepository) List(ctx context.Context, filter models.SaleFilter) ([]models.SaleDetail, int, error) {
	base := `FROM sales s
        LEFT JOIN customers c ON s.customer_id = c.id
        LEFT JOIN vehicles v ON s.vehicle_id = v.id
        LEFT JOIN users sp ON s.salesperson_id = sp.id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("s.customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.SalespersonID != "" {
		conditions = append(conditions, fmt.Sprintf("s.salesperson_id = $%d", len(args)+1))
		args = append(args, filter.SalespersonID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.sale_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.sale_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY s.sale_date DESC LIMIT %d OFFSET %d", saleDetailColumns, base, size, offset)

	var sales []models.SaleDetail
	if err := r.db.SelectContext(ctx, &sales, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}
	return sales, total, nil
}

// FindByID fetches a sale detail by ID.
func (r *SaleRepository) FindByID(ctx context.Context, id string) (*models.SaleDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales s
        LEFT JOIN customers c ON s.customer_id = c.id
        LEFT JOIN vehicles v ON s.vehicle_id = v.id
        LEFT JOIN users sp ON s.salesperson_id = sp.id
        WHERE s.id = $1`, saleDetailColumns)
	var detail models.SaleDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create records a sale inside one transaction: the vehicle row is locked
// and checked, the sale inserted, the vehicle flipped to sold with the
// buyer attached, and the audit entry appended. Any failure rolls the
// whole sequence back.
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale, entry *models.AuditLog) (err error) {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var vehicleStatus string
	if err = tx.GetContext(ctx, &vehicleStatus, "SELECT status FROM vehicles WHERE id = $1 FOR UPDATE", sale.VehicleID); err != nil {
		if err == sql.ErrNoRows {
			err = ErrSaleVehicleMissing
		}
		return err
	}
	if vehicleStatus == string(models.VehicleStatusSold) {
		err = ErrSaleVehicleSold
		return err
	}

	const insertQuery = `INSERT INTO sales (id, customer_id, vehicle_id, salesperson_id, sale_date, sale_price,
        trade_in_value, down_payment, financing_amount, monthly_payment, term_months, interest_rate,
        finance_company, tax_amount, fees, final_price, payment_method, status, delivery_date,
        warranty_info, notes, created_by, created_at, updated_at)
        VALUES (:id, :customer_id, :vehicle_id, :salesperson_id, :sale_date, :sale_price,
        :trade_in_value, :down_payment, :financing_amount, :monthly_payment, :term_months, :interest_rate,
        :finance_company, :tax_amount, :fees, :final_price, :payment_method, :status, :delivery_date,
        :warranty_info, :notes, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, sale); err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	const vehicleQuery = `UPDATE vehicles SET status = $1, customer_id = $2, updated_at = $3 WHERE id = $4`
	if _, err = tx.ExecContext(ctx, vehicleQuery, models.VehicleStatusSold, sale.CustomerID, now, sale.VehicleID); err != nil {
		return fmt.Errorf("mark vehicle sold: %w", err)
	}

	entry.ResourceID = &sale.ID
	refreshAuditDetails(entry, sale)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sale create: %w", err)
	}
	return nil
}

// Update applies allowlisted field changes plus the audit entry atomically.
func (r *SaleRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(saleUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE sales SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update sale: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sale update: %w", err)
	}
	return nil
}

// Delete removes a sale and returns its vehicle to inventory: status back
// to available and the buyer detached, all in one transaction.
func (r *SaleRepository) Delete(ctx context.Context, id, vehicleID string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}

	const vehicleQuery = `UPDATE vehicles SET status = $1, customer_id = NULL, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, vehicleQuery, models.VehicleStatusAvailable, time.Now().UTC(), vehicleID); err != nil {
		return fmt.Errorf("release vehicle: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sale delete: %w", err)
	}
	return nil
}
