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

// customerUpdateColumns is the fixed allowlist of PATCHable customer fields.
var customerUpdateColumns = []string{
	"name", "email", "phone", "type", "company", "address", "city",
	"state", "zip_code", "date_of_birth", "drivers_license", "notes",
	"preferences", "tags",
}

// CustomerRepository manages persistence for dealership customers.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository constructs a CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns customers matching the provided filters.
func (r *CustomerRepository) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	base := "FROM customers c"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("c.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.email ILIKE $%d OR c.phone ILIKE $%d OR c.company ILIKE $%d)", idx, idx, idx, idx))
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

	query := fmt.Sprintf(`SELECT c.id, c.name, c.email, c.phone, c.type, c.company, c.address, c.city,
        c.state, c.zip_code, c.date_of_birth, c.drivers_license, c.notes, c.preferences, c.tags,
        c.created_by, c.created_at, c.updated_at
        %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

// FindByID fetches a customer with purchase and service aggregates. The
// aggregates use correlated subqueries so sales sharing a price are each
// counted into total_spent.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*models.CustomerDetail, error) {
	const query = `SELECT c.id, c.name, c.email, c.phone, c.type, c.company, c.address, c.city,
        c.state, c.zip_code, c.date_of_birth, c.drivers_license, c.notes, c.preferences, c.tags,
        c.created_by, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM sales s WHERE s.customer_id = c.id) AS total_purchases,
        (SELECT COUNT(*) FROM service_appointments sa WHERE sa.customer_id = c.id) AS total_service_visits,
        (SELECT COALESCE(SUM(s.final_price), 0) FROM sales s WHERE s.customer_id = c.id) AS total_spent
        FROM customers c
        WHERE c.id = $1`
	var detail models.CustomerDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByEmail checks for another customer holding the email address.
func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM customers WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check customer email: %w", err)
	}
	return true, nil
}

// Create inserts a new customer and its audit entry in one transaction. The
// application-level email pre-check runs inside the transaction; the unique
// index on email remains the authoritative guard under concurrent inserts.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer, entry *models.AuditLog) (duplicate bool, err error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin customer create: %w", err)
	}
	defer func() {
		if err != nil || duplicate {
			_ = tx.Rollback()
		}
	}()

	var existing int
	if err = tx.GetContext(ctx, &existing, "SELECT 1 FROM customers WHERE LOWER(email) = LOWER($1) LIMIT 1", customer.Email); err == nil {
		return true, nil
	} else if err != sql.ErrNoRows {
		return false, fmt.Errorf("check customer email: %w", err)
	}
	err = nil

	const query = `INSERT INTO customers (id, name, email, phone, type, company, address, city,
        state, zip_code, date_of_birth, drivers_license, notes, preferences, tags,
        created_by, created_at, updated_at)
        VALUES (:id, :name, :email, :phone, :type, :company, :address, :city,
        :state, :zip_code, :date_of_birth, :drivers_license, :notes, :preferences, :tags,
        :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, customer); err != nil {
		return false, fmt.Errorf("create customer: %w", err)
	}

	entry.ResourceID = &customer.ID
	refreshAuditDetails(entry, customer)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit customer create: %w", err)
	}
	return false, nil
}

// Update applies allowlisted field changes plus the audit entry atomically.
func (r *CustomerRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(customerUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin customer update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE customers SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit customer update: %w", err)
	}
	return nil
}

// Delete removes a customer unless sales reference them; the check runs
// inside the transaction and leaves the row intact when it fails.
func (r *CustomerRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (blocked bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin customer delete: %w", err)
	}
	defer func() {
		if err != nil || blocked {
			_ = tx.Rollback()
		}
	}()

	var saleCount int
	if err = tx.GetContext(ctx, &saleCount, "SELECT COUNT(*) FROM sales WHERE customer_id = $1", id); err != nil {
		return false, fmt.Errorf("count customer sales: %w", err)
	}
	if saleCount > 0 {
		return true, nil
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id); err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit customer delete: %w", err)
	}
	return false, nil
}
