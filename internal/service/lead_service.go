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

type leadRepository interface {
	List(ctx context.Context, filter models.LeadFilter) ([]models.LeadDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.LeadDetail, error)
	Create(ctx context.Context, lead *models.Lead, entry *models.AuditLog) error
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	SoftDelete(ctx context.Context, id string, entry *models.AuditLog) error
}

// CreateLeadRequest holds payload for creating leads.
type CreateLeadRequest struct {
	CustomerID        *string    `json:"customer_id"`
	Source            string     `json:"source"`
	InterestType      string     `json:"interest_type" validate:"required"`
	VehicleOfInterest string     `json:"vehicle_of_interest"`
	BudgetMin         *float64   `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax         *float64   `json:"budget_max" validate:"omitempty,gte=0"`
	TradeInVehicle    string     `json:"trade_in_vehicle"`
	Notes             string     `json:"notes"`
	AssignedTo        *string    `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	Priority          string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// LeadService handles lead funnel use-cases.
type LeadService struct {
	repo      leadRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeadService constructs the lead service.
func NewLeadService(repo leadRepository, validate *validator.Validate, logger *zap.Logger) *LeadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{repo: repo, validator: validate, logger: logger}
}

// List returns leads and pagination metadata.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]models.LeadDetail, *models.Pagination, error) {
	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leads")
	}
	return leads, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed lead information.
func (s *LeadService) Get(ctx context.Context, id string) (*models.LeadDetail, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}
	return lead, nil
}

// Create registers a new lead and scores it. The score is a snapshot;
// later edits to budget or close date do not recompute it.
func (s *LeadService) Create(ctx context.Context, actor Actor, req CreateLeadRequest) (*models.Lead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}

	source := req.Source
	if source == "" {
		source = models.LeadSourceOther
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	lead := &models.Lead{
		CustomerID:        req.CustomerID,
		Source:            source,
		Status:            models.LeadStatusNew,
		InterestType:      req.InterestType,
		VehicleOfInterest: req.VehicleOfInterest,
		BudgetMin:         req.BudgetMin,
		BudgetMax:         req.BudgetMax,
		TradeInVehicle:    req.TradeInVehicle,
		Notes:             req.Notes,
		AssignedTo:        req.AssignedTo,
		ExpectedCloseDate: req.ExpectedCloseDate,
		Priority:          priority,
		CreatedBy:         actor.UserID,
	}
	lead.AIScore = CalculateLeadScore(LeadScoreInput{
		Source:            source,
		BudgetMin:         req.BudgetMin,
		BudgetMax:         req.BudgetMax,
		ExpectedCloseDate: req.ExpectedCloseDate,
	}, time.Now().UTC())

	entry := newAuditEntry(actor, models.AuditActionCreate, "lead", lead)
	if err := s.repo.Create(ctx, lead, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lead")
	}
	s.logger.Info("lead created", zap.String("lead_id", lead.ID), zap.Int("ai_score", lead.AIScore))
	return lead, nil
}

// Update applies allowlisted field changes. Unknown fields are dropped
// silently; ai_score is never updatable.
func (s *LeadService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.LeadDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "lead", updateDetails(current.Lead, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload lead")
	}
	return updated, nil
}

// Delete soft-deletes a lead by moving it to the deleted status.
func (s *LeadService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "lead", current.Lead)
	if err := s.repo.SoftDelete(ctx, id, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lead")
	}
	return nil
}
