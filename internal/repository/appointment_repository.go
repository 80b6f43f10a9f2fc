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

// appointmentUpdateColumns is the fixed allowlist of PATCHable fields.
var appointmentUpdateColumns = []string{
	"scheduled_date", "scheduled_time", "service_type", "description",
	"estimated_duration", "estimated_cost", "actual_start_time",
	"actual_end_time", "actual_cost", "status", "priority", "notes",
	"technician_id",
}

const appointmentDetailColumns = `sa.id, sa.customer_id, sa.vehicle_id, sa.technician_id, sa.scheduled_date,
        sa.scheduled_time, sa.service_type, sa.description, sa.estimated_duration, sa.estimated_cost,
        sa.actual_start_time, sa.actual_end_time, sa.actual_cost, sa.status, sa.priority, sa.notes,
        sa.created_by, sa.created_at, sa.updated_at,
        c.name AS customer_name, c.phone AS customer_phone,
        v.vin AS vehicle_vin, v.make AS vehicle_make, v.model AS vehicle_model,
        t.name AS technician_name`

// AppointmentRepository manages persistence for service appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns appointments matching the provided filters.
func (r *AppointmentRepository) List(ctx context.Context, filter models.ServiceAppointmentFilter) ([]models.ServiceAppointmentDetail, int, error) {
	base := `FROM service_appointments sa
        LEFT JOIN customers c ON sa.customer_id = c.id
        LEFT JOIN vehicles v ON sa.vehicle_id = v.id
        LEFT JOIN users t ON sa.technician_id = t.id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("sa.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("sa.customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.TechnicianID != "" {
		conditions = append(conditions, fmt.Sprintf("sa.technician_id = $%d", len(args)+1))
		args = append(args, filter.TechnicianID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("sa.scheduled_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("sa.scheduled_date <= $%d", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY sa.scheduled_date ASC, sa.scheduled_time ASC LIMIT %d OFFSET %d", appointmentDetailColumns, base, size, offset)

	var appointments []models.ServiceAppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list service appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count service appointments: %w", err)
	}
	return appointments, total, nil
}

// FindByID fetches an appointment detail by ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.ServiceAppointmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_appointments sa
        LEFT JOIN customers c ON sa.customer_id = c.id
        LEFT JOIN vehicles v ON sa.vehicle_id = v.id
        LEFT JOIN users t ON sa.technician_id = t.id
        WHERE sa.id = $1`, appointmentDetailColumns)
	var detail models.ServiceAppointmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new appointment and its audit entry in one transaction.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.ServiceAppointment, entry *models.AuditLog) (err error) {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appointment create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO service_appointments (id, customer_id, vehicle_id, technician_id,
        scheduled_date, scheduled_time, service_type, description, estimated_duration, estimated_cost,
        actual_start_time, actual_end_time, actual_cost, status, priority, notes,
        created_by, created_at, updated_at)
        VALUES (:id, :customer_id, :vehicle_id, :technician_id,
        :scheduled_date, :scheduled_time, :service_type, :description, :estimated_duration, :estimated_cost,
        :actual_start_time, :actual_end_time, :actual_cost, :status, :priority, :notes,
        :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, appointment); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	entry.ResourceID = &appointment.ID
	refreshAuditDetails(entry, appointment)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment create: %w", err)
	}
	return nil
}

// Update applies allowlisted field changes plus the audit entry atomically.
func (r *AppointmentRepository) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) (err error) {
	setClause, args := buildSetClause(appointmentUpdateColumns, changes, 1)
	if setClause == "" {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appointment update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("UPDATE service_appointments SET %s, updated_at = $%d WHERE id = $%d", setClause, len(args)+1, len(args)+2)
	args = append(args, time.Now().UTC(), id)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment update: %w", err)
	}
	return nil
}

// Delete removes an appointment unless repair orders reference it.
func (r *AppointmentRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (blocked bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin appointment delete: %w", err)
	}
	defer func() {
		if err != nil || blocked {
			_ = tx.Rollback()
		}
	}()

	var roCount int
	if err = tx.GetContext(ctx, &roCount, "SELECT COUNT(*) FROM repair_orders WHERE service_appointment_id = $1", id); err != nil {
		return false, fmt.Errorf("count appointment repair orders: %w", err)
	}
	if roCount > 0 {
		return true, nil
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM service_appointments WHERE id = $1", id); err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit appointment delete: %w", err)
	}
	return false, nil
}
