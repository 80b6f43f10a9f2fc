package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type repairOrderRepository interface {
	List(ctx context.Context, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.RepairOrderDetail, error)
	Create(ctx context.Context, order *models.RepairOrder, entry *models.AuditLog) error
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) error
}

// CreateRepairOrderRequest holds payload for opening repair orders.
type CreateRepairOrderRequest struct {
	ServiceAppointmentID *string         `json:"service_appointment_id"`
	CustomerID           string          `json:"customer_id" validate:"required"`
	VehicleID            string          `json:"vehicle_id" validate:"required"`
	TechnicianID         *string         `json:"technician_id"`
	RONumber             string          `json:"ro_number"`
	Description          string          `json:"description" validate:"required"`
	Services             json.RawMessage `json:"services"`
	Parts                json.RawMessage `json:"parts"`
	LaborHours           float64         `json:"labor_hours" validate:"gte=0"`
	LaborRate            float64         `json:"labor_rate" validate:"gte=0"`
	PartsCost            float64         `json:"parts_cost" validate:"gte=0"`
	TaxAmount            float64         `json:"tax_amount" validate:"gte=0"`
	Priority             string          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes                string          `json:"notes"`
}

// RepairOrderService handles work orders for the service department.
type RepairOrderService struct {
	repo      repairOrderRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRepairOrderService constructs the repair order service.
func NewRepairOrderService(repo repairOrderRepository, validate *validator.Validate, logger *zap.Logger) *RepairOrderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairOrderService{repo: repo, validator: validate, logger: logger}
}

// List returns repair orders and pagination metadata.
func (s *RepairOrderService) List(ctx context.Context, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, *models.Pagination, error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list repair orders")
	}
	return orders, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed repair order information.
func (s *RepairOrderService) Get(ctx context.Context, id string) (*models.RepairOrderDetail, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}
	return order, nil
}

// Create opens a repair order. Labor cost derives from hours and rate;
// when no RO number is supplied the repository generates the next one
// for the current calendar year.
func (s *RepairOrderService) Create(ctx context.Context, actor Actor, req CreateRepairOrderRequest) (*models.RepairOrder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid repair order payload")
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	laborCost := req.LaborHours * req.LaborRate

	order := &models.RepairOrder{
		ServiceAppointmentID: req.ServiceAppointmentID,
		CustomerID:           req.CustomerID,
		VehicleID:            req.VehicleID,
		TechnicianID:         req.TechnicianID,
		RONumber:             req.RONumber,
		Description:          req.Description,
		Services:             req.Services,
		Parts:                req.Parts,
		LaborHours:           req.LaborHours,
		LaborRate:            req.LaborRate,
		PartsCost:            req.PartsCost,
		LaborCost:            laborCost,
		TaxAmount:            req.TaxAmount,
		TotalCost:            req.PartsCost + laborCost + req.TaxAmount,
		Status:               models.RepairOrderStatusOpen,
		Priority:             priority,
		Notes:                req.Notes,
		CreatedBy:            actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "repair_order", order)
	if err := s.repo.Create(ctx, order, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create repair order")
	}
	s.logger.Info("repair order opened", zap.String("repair_order_id", order.ID), zap.String("ro_number", order.RONumber))
	return order, nil
}

// Update applies allowlisted field changes to a repair order.
func (s *RepairOrderService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.RepairOrderDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "repair_order", updateDetails(current.RepairOrder, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update repair order")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload repair order")
	}
	return updated, nil
}

// Delete removes a repair order.
func (s *RepairOrderService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "repair_order", current.RepairOrder)
	if err := s.repo.Delete(ctx, id, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete repair order")
	}
	return nil
}
