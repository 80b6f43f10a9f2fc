package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type customerRepository interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
	FindByID(ctx context.Context, id string) (*models.CustomerDetail, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, customer *models.Customer, entry *models.AuditLog) (bool, error)
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) (bool, error)
}

// CreateCustomerRequest holds payload for creating customers.
type CreateCustomerRequest struct {
	Name           string          `json:"name" validate:"required"`
	Email          string          `json:"email" validate:"required,email"`
	Phone          string          `json:"phone"`
	Type           string          `json:"type" validate:"omitempty,oneof=individual business"`
	Company        string          `json:"company"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	ZipCode        string          `json:"zip_code"`
	DateOfBirth    *time.Time      `json:"date_of_birth"`
	DriversLicense string          `json:"drivers_license"`
	Notes          string          `json:"notes"`
	Preferences    json.RawMessage `json:"preferences"`
	Tags           json.RawMessage `json:"tags"`
}

// CustomerService handles customer use-cases.
type CustomerService struct {
	repo      customerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCustomerService constructs the customer service.
func NewCustomerService(repo customerRepository, validate *validator.Validate, logger *zap.Logger) *CustomerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{repo: repo, validator: validate, logger: logger}
}

// List returns customers and pagination metadata.
func (s *CustomerService) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error) {
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list customers")
	}
	return customers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a customer with relationship aggregates.
func (s *CustomerService) Get(ctx context.Context, id string) (*models.CustomerDetail, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	return customer, nil
}

// Create registers a new customer. Duplicate emails are rejected.
func (s *CustomerService) Create(ctx context.Context, actor Actor, req CreateCustomerRequest) (*models.Customer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid customer payload")
	}

	customerType := req.Type
	if customerType == "" {
		customerType = "individual"
	}

	customer := &models.Customer{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Type:           customerType,
		Company:        req.Company,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		ZipCode:        req.ZipCode,
		DateOfBirth:    req.DateOfBirth,
		DriversLicense: req.DriversLicense,
		Notes:          req.Notes,
		Preferences:    req.Preferences,
		Tags:           req.Tags,
		CreatedBy:      actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "customer", customer)
	duplicate, err := s.repo.Create(ctx, customer, entry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create customer")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a customer with this email already exists")
	}
	return customer, nil
}

// Update applies allowlisted field changes. An email change that collides
// with another customer is rejected.
func (s *CustomerService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.CustomerDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}

	if raw, ok := changes["email"]; ok {
		email, _ := raw.(string)
		if email == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email cannot be empty")
		}
		exists, err := s.repo.ExistsByEmail(ctx, email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check customer email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "a customer with this email already exists")
		}
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "customer", updateDetails(current.Customer, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update customer")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload customer")
	}
	return updated, nil
}

// Delete removes a customer. Customers with sales on record are kept.
func (s *CustomerService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "customer", current.Customer)
	blocked, err := s.repo.Delete(ctx, id, entry)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete customer")
	}
	if blocked {
		return appErrors.Clone(appErrors.ErrBusinessRule, "customer has associated sales and cannot be deleted")
	}
	return nil
}
