package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

const inventoryCacheKeyPrefix = "inventory:vehicles:"

type vehicleRepository interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.VehicleDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.VehicleDetail, error)
	ExistsByVIN(ctx context.Context, vin string) (bool, error)
	Create(ctx context.Context, vehicle *models.Vehicle, entry *models.AuditLog) (bool, error)
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) (bool, error)
}

type vehicleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateVehicleRequest holds payload for adding inventory.
type CreateVehicleRequest struct {
	VIN            string          `json:"vin" validate:"required,len=17"`
	StockNumber    string          `json:"stock_number"`
	Type           string          `json:"type" validate:"required,oneof=new used certified"`
	Make           string          `json:"make" validate:"required"`
	Model          string          `json:"model" validate:"required"`
	Year           int             `json:"year" validate:"required,gte=1900"`
	Trim           string          `json:"trim"`
	ExteriorColor  string          `json:"exterior_color"`
	InteriorColor  string          `json:"interior_color"`
	Mileage        int             `json:"mileage" validate:"gte=0"`
	Transmission   string          `json:"transmission"`
	FuelType       string          `json:"fuel_type"`
	Engine         string          `json:"engine"`
	Drivetrain     string          `json:"drivetrain"`
	BodyStyle      string          `json:"body_style"`
	Price          float64         `json:"price" validate:"required,gt=0"`
	Cost           float64         `json:"cost" validate:"gte=0"`
	MSRP           float64         `json:"msrp" validate:"gte=0"`
	Features       json.RawMessage `json:"features"`
	ConditionNotes string          `json:"condition_notes"`
	Location       string          `json:"location"`
}

// cachedVehicleList is the shape stored in Redis for list responses.
type cachedVehicleList struct {
	Vehicles   []models.VehicleDetail `json:"vehicles"`
	Pagination *models.Pagination     `json:"pagination"`
}

// VehicleService handles inventory use-cases. Listing goes through a
// short-lived Redis cache; every mutation drops all cached pages.
type VehicleService struct {
	repo      vehicleRepository
	cache     vehicleCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVehicleService constructs the vehicle service. metrics may be nil.
func NewVehicleService(repo vehicleRepository, cache vehicleCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *VehicleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &VehicleService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// List returns inventory and pagination metadata, serving from cache when a
// fresh copy of the same filter combination exists.
func (s *VehicleService) List(ctx context.Context, filter models.VehicleFilter) ([]models.VehicleDetail, *models.Pagination, error) {
	key := inventoryCacheKey(filter)
	if s.cache != nil {
		var cached cachedVehicleList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.ObserveCacheHit()
			return cached.Vehicles, cached.Pagination, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("inventory cache read failed", zap.Error(err))
		} else {
			s.metrics.ObserveCacheMiss()
		}
	}

	vehicles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vehicles")
	}
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedVehicleList{Vehicles: vehicles, Pagination: pagination}, s.cacheTTL); err != nil {
			s.logger.Warn("inventory cache write failed", zap.Error(err))
		}
	}
	return vehicles, pagination, nil
}

// Get returns detailed vehicle information.
func (s *VehicleService) Get(ctx context.Context, id string) (*models.VehicleDetail, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}
	return vehicle, nil
}

// Create adds a vehicle to inventory. A VIN already on file is rejected.
func (s *VehicleService) Create(ctx context.Context, actor Actor, req CreateVehicleRequest) (*models.Vehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle payload")
	}

	vehicle := &models.Vehicle{
		VIN:            strings.ToUpper(req.VIN),
		StockNumber:    req.StockNumber,
		Type:           req.Type,
		Status:         models.VehicleStatusAvailable,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Trim:           req.Trim,
		ExteriorColor:  req.ExteriorColor,
		InteriorColor:  req.InteriorColor,
		Mileage:        req.Mileage,
		Transmission:   req.Transmission,
		FuelType:       req.FuelType,
		Engine:         req.Engine,
		Drivetrain:     req.Drivetrain,
		BodyStyle:      req.BodyStyle,
		Price:          req.Price,
		Cost:           req.Cost,
		MSRP:           req.MSRP,
		Features:       req.Features,
		ConditionNotes: req.ConditionNotes,
		Location:       req.Location,
		CreatedBy:      actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "vehicle", vehicle)
	duplicate, err := s.repo.Create(ctx, vehicle, entry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create vehicle")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a vehicle with this VIN already exists")
	}

	s.invalidateInventoryCache(ctx)
	return vehicle, nil
}

// Update applies allowlisted field changes. The VIN is immutable.
func (s *VehicleService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.VehicleDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "vehicle", updateDetails(current.Vehicle, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update vehicle")
	}

	s.invalidateInventoryCache(ctx)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload vehicle")
	}
	return updated, nil
}

// Delete removes a vehicle. Vehicles referenced by sales cannot be deleted.
func (s *VehicleService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "vehicle", current.Vehicle)
	blocked, err := s.repo.Delete(ctx, id, entry)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete vehicle")
	}
	if blocked {
		return appErrors.Clone(appErrors.ErrBusinessRule, "vehicle has associated sales and cannot be deleted")
	}

	s.invalidateInventoryCache(ctx)
	return nil
}

func (s *VehicleService) invalidateInventoryCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, inventoryCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("inventory cache invalidation failed", zap.Error(err))
	}
}

func inventoryCacheKey(filter models.VehicleFilter) string {
	priceMin, priceMax := "", ""
	if filter.PriceMin != nil {
		priceMin = fmt.Sprintf("%.2f", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		priceMax = fmt.Sprintf("%.2f", *filter.PriceMax)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%s:%d:%d",
		inventoryCacheKeyPrefix,
		filter.Status, filter.Type, filter.Make, filter.Search,
		priceMin, priceMax, filter.Page, filter.PageSize)
}
