package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/repository"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type saleRepository interface {
	List(ctx context.Context, filter models.SaleFilter) ([]models.SaleDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SaleDetail, error)
	Create(ctx context.Context, sale *models.Sale, entry *models.AuditLog) error
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id, vehicleID string, entry *models.AuditLog) error
}

// inventoryInvalidator drops cached inventory pages after a sale rewrites
// the vehicle row.
type inventoryInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateSaleRequest holds payload for recording a sale.
type CreateSaleRequest struct {
	CustomerID      string          `json:"customer_id" validate:"required"`
	VehicleID       string          `json:"vehicle_id" validate:"required"`
	SalespersonID   *string         `json:"salesperson_id"`
	SaleDate        *time.Time      `json:"sale_date"`
	SalePrice       float64         `json:"sale_price" validate:"required,gt=0"`
	TradeInValue    float64         `json:"trade_in_value" validate:"gte=0"`
	DownPayment     float64         `json:"down_payment" validate:"gte=0"`
	FinancingAmount float64         `json:"financing_amount" validate:"gte=0"`
	MonthlyPayment  float64         `json:"monthly_payment" validate:"gte=0"`
	TermMonths      int             `json:"term_months" validate:"gte=0"`
	InterestRate    float64         `json:"interest_rate" validate:"gte=0"`
	FinanceCompany  string          `json:"finance_company"`
	TaxAmount       float64         `json:"tax_amount" validate:"gte=0"`
	Fees            json.RawMessage `json:"fees"`
	FinalPrice      float64         `json:"final_price" validate:"required,gt=0"`
	PaymentMethod   string          `json:"payment_method"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	WarrantyInfo    json.RawMessage `json:"warranty_info"`
	Notes           string          `json:"notes"`
}

// SaleService handles sale use-cases. Creating a sale marks the vehicle
// sold and assigns it to the buyer; deleting the sale reverses both. Either
// way the vehicle row changed, so cached inventory pages are dropped.
type SaleService struct {
	repo      saleRepository
	inventory inventoryInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSaleService constructs the sale service. inventory may be nil when
// inventory caching is disabled.
func NewSaleService(repo saleRepository, inventory inventoryInvalidator, validate *validator.Validate, logger *zap.Logger) *SaleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{repo: repo, inventory: inventory, validator: validate, logger: logger}
}

// List returns sales and pagination metadata.
func (s *SaleService) List(ctx context.Context, filter models.SaleFilter) ([]models.SaleDetail, *models.Pagination, error) {
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sales")
	}
	return sales, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed sale information.
func (s *SaleService) Get(ctx context.Context, id string) (*models.SaleDetail, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sale not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}
	return sale, nil
}

// Create records a sale. The target vehicle must exist and be unsold; on
// success it moves to sold and is linked to the buying customer.
func (s *SaleService) Create(ctx context.Context, actor Actor, req CreateSaleRequest) (*models.Sale, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sale payload")
	}

	saleDate := time.Now().UTC()
	if req.SaleDate != nil {
		saleDate = *req.SaleDate
	}

	sale := &models.Sale{
		CustomerID:      req.CustomerID,
		VehicleID:       req.VehicleID,
		SalespersonID:   req.SalespersonID,
		SaleDate:        saleDate,
		SalePrice:       req.SalePrice,
		TradeInValue:    req.TradeInValue,
		DownPayment:     req.DownPayment,
		FinancingAmount: req.FinancingAmount,
		MonthlyPayment:  req.MonthlyPayment,
		TermMonths:      req.TermMonths,
		InterestRate:    req.InterestRate,
		FinanceCompany:  req.FinanceCompany,
		TaxAmount:       req.TaxAmount,
		Fees:            req.Fees,
		FinalPrice:      req.FinalPrice,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.SaleStatusPending,
		DeliveryDate:    req.DeliveryDate,
		WarrantyInfo:    req.WarrantyInfo,
		Notes:           req.Notes,
		CreatedBy:       actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "sale", sale)
	if err := s.repo.Create(ctx, sale, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrSaleVehicleMissing):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		case errors.Is(err, repository.ErrSaleVehicleSold):
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, "vehicle is already sold")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sale")
		}
	}
	s.invalidateInventory(ctx)
	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("vehicle_id", sale.VehicleID),
		zap.String("customer_id", sale.CustomerID))
	return sale, nil
}

// Update applies allowlisted field changes to a sale.
func (s *SaleService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.SaleDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sale not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "sale", updateDetails(current.Sale, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sale")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload sale")
	}
	return updated, nil
}

// Delete unwinds a sale and returns the vehicle to available inventory.
func (s *SaleService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "sale not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "sale", current.Sale)
	if err := s.repo.Delete(ctx, id, current.VehicleID, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sale")
	}
	s.invalidateInventory(ctx)
	return nil
}

func (s *SaleService) invalidateInventory(ctx context.Context) {
	if s.inventory == nil {
		return
	}
	if err := s.inventory.DeleteByPattern(ctx, inventoryCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("inventory cache invalidation failed", zap.Error(err))
	}
}
