package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
	"github.com/ridgeline-auto/dms-api/pkg/response"
)

// VehicleHandler exposes inventory endpoints.
type VehicleHandler struct {
	vehicles *service.VehicleService
}

// NewVehicleHandler constructs VehicleHandler.
func NewVehicleHandler(vehicles *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

// List godoc
// @Summary List vehicles
// @Tags Vehicles
// @Produce json
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Param make query string false "Filter by make"
// @Param search query string false "Search VIN, make, model"
// @Param price_min query number false "Minimum price"
// @Param price_max query number false "Maximum price"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	var filter models.VehicleFilter
	filter.Status = c.Query("status")
	filter.Type = c.Query("type")
	filter.Make = c.Query("make")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.PriceMin = queryFloat(c, "price_min")
	filter.PriceMax = queryFloat(c, "price_max")
	filter.Page, filter.PageSize = pageParams(c, 20)

	vehicles, pagination, err := h.vehicles.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicles, pagination)
}

// Get godoc
// @Summary Get vehicle detail
// @Tags Vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id} [get]
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// Create godoc
// @Summary Add vehicle to inventory
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param payload body service.CreateVehicleRequest true "Vehicle payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	vehicle, err := h.vehicles.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vehicle)
}

// Update godoc
// @Summary Update vehicle fields
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id} [patch]
func (h *VehicleHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	vehicle, err := h.vehicles.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// Delete godoc
// @Summary Remove vehicle from inventory
// @Tags Vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
	if err := h.vehicles.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
