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

type partRepository interface {
	List(ctx context.Context, filter models.PartFilter) ([]models.Part, int, error)
	FindByID(ctx context.Context, id string) (*models.PartDetail, error)
	ExistsByPartNumber(ctx context.Context, partNumber string) (bool, error)
	Create(ctx context.Context, part *models.Part, entry *models.AuditLog) (bool, error)
	Update(ctx context.Context, id string, changes map[string]interface{}, changedBy string, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) error
}

// CreatePartRequest holds payload for adding parts inventory.
type CreatePartRequest struct {
	PartNumber         string          `json:"part_number" validate:"required"`
	Name               string          `json:"name" validate:"required"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Manufacturer       string          `json:"manufacturer"`
	SupplierID         *string         `json:"supplier_id"`
	CostPrice          float64         `json:"cost_price" validate:"gte=0"`
	SellingPrice       float64         `json:"selling_price" validate:"gte=0"`
	QuantityInStock    int             `json:"quantity_in_stock" validate:"gte=0"`
	ReorderLevel       int             `json:"reorder_level" validate:"gte=0"`
	Location           string          `json:"location"`
	Notes              string          `json:"notes"`
	CompatibleVehicles json.RawMessage `json:"compatible_vehicles"`
}

// PartService handles parts inventory use-cases. Quantity changes flow
// into the append-only stock history ledger at the repository level.
type PartService struct {
	repo      partRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPartService constructs the part service.
func NewPartService(repo partRepository, validate *validator.Validate, logger *zap.Logger) *PartService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartService{repo: repo, validator: validate, logger: logger}
}

// List returns parts and pagination metadata.
func (s *PartService) List(ctx context.Context, filter models.PartFilter) ([]models.Part, *models.Pagination, error) {
	parts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parts")
	}
	return parts, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a part with its recent stock history.
func (s *PartService) Get(ctx context.Context, id string) (*models.PartDetail, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "part not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load part")
	}
	return part, nil
}

// Create adds a part. A part number already on file is rejected.
func (s *PartService) Create(ctx context.Context, actor Actor, req CreatePartRequest) (*models.Part, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid part payload")
	}

	part := &models.Part{
		PartNumber:         req.PartNumber,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Manufacturer:       req.Manufacturer,
		SupplierID:         req.SupplierID,
		CostPrice:          req.CostPrice,
		SellingPrice:       req.SellingPrice,
		QuantityInStock:    req.QuantityInStock,
		ReorderLevel:       req.ReorderLevel,
		Location:           req.Location,
		Notes:              req.Notes,
		CompatibleVehicles: req.CompatibleVehicles,
		CreatedBy:          actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "part", part)
	duplicate, err := s.repo.Create(ctx, part, entry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create part")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a part with this part number already exists")
	}
	return part, nil
}

// Update applies allowlisted field changes. The part number is immutable;
// a quantity_in_stock change appends one stock history row.
func (s *PartService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.PartDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "part not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load part")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "part", updateDetails(current.Part, changes))
	if err := s.repo.Update(ctx, id, changes, actor.UserID, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update part")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload part")
	}
	return updated, nil
}

// Delete removes a part.
func (s *PartService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "part not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load part")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "part", current.Part)
	if err := s.repo.Delete(ctx, id, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete part")
	}
	return nil
}
