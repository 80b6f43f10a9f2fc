package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type appointmentRepository interface {
	List(ctx context.Context, filter models.ServiceAppointmentFilter) ([]models.ServiceAppointmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ServiceAppointmentDetail, error)
	Create(ctx context.Context, appointment *models.ServiceAppointment, entry *models.AuditLog) error
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) (bool, error)
}

// CreateAppointmentRequest holds payload for booking service appointments.
type CreateAppointmentRequest struct {
	CustomerID        string    `json:"customer_id" validate:"required"`
	VehicleID         *string   `json:"vehicle_id"`
	TechnicianID      *string   `json:"technician_id"`
	ScheduledDate     time.Time `json:"scheduled_date" validate:"required"`
	ScheduledTime     string    `json:"scheduled_time"`
	ServiceType       string    `json:"service_type" validate:"required"`
	Description       string    `json:"description"`
	EstimatedDuration int       `json:"estimated_duration" validate:"gte=0"`
	EstimatedCost     float64   `json:"estimated_cost" validate:"gte=0"`
	Priority          string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes             string    `json:"notes"`
}

// AppointmentService handles service department bookings.
type AppointmentService struct {
	repo      appointmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppointmentService constructs the appointment service.
func NewAppointmentService(repo appointmentRepository, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{repo: repo, validator: validate, logger: logger}
}

// List returns appointments and pagination metadata.
func (s *AppointmentService) List(ctx context.Context, filter models.ServiceAppointmentFilter) ([]models.ServiceAppointmentDetail, *models.Pagination, error) {
	appointments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appointments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed appointment information.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.ServiceAppointmentDetail, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appointment, nil
}

// Create books a service appointment.
func (s *AppointmentService) Create(ctx context.Context, actor Actor, req CreateAppointmentRequest) (*models.ServiceAppointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	appointment := &models.ServiceAppointment{
		CustomerID:        req.CustomerID,
		VehicleID:         req.VehicleID,
		TechnicianID:      req.TechnicianID,
		ScheduledDate:     req.ScheduledDate,
		ScheduledTime:     req.ScheduledTime,
		ServiceType:       req.ServiceType,
		Description:       req.Description,
		EstimatedDuration: req.EstimatedDuration,
		EstimatedCost:     req.EstimatedCost,
		Status:            models.AppointmentStatusScheduled,
		Priority:          priority,
		Notes:             req.Notes,
		CreatedBy:         actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "service_appointment", appointment)
	if err := s.repo.Create(ctx, appointment, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	return appointment, nil
}

// Update applies allowlisted field changes to an appointment.
func (s *AppointmentService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.ServiceAppointmentDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "service_appointment", updateDetails(current.ServiceAppointment, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload appointment")
	}
	return updated, nil
}

// Delete cancels an appointment. Appointments with repair orders are kept.
func (s *AppointmentService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "service_appointment", current.ServiceAppointment)
	blocked, err := s.repo.Delete(ctx, id, entry)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete appointment")
	}
	if blocked {
		return appErrors.Clone(appErrors.ErrBusinessRule, "appointment has repair orders and cannot be deleted")
	}
	return nil
}
