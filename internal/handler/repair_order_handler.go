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

// RepairOrderHandler exposes repair order endpoints.
type RepairOrderHandler struct {
	orders *service.RepairOrderService
}

// NewRepairOrderHandler constructs RepairOrderHandler.
func NewRepairOrderHandler(orders *service.RepairOrderService) *RepairOrderHandler {
	return &RepairOrderHandler{orders: orders}
}

// List godoc
// @Summary List repair orders
// @Tags RepairOrders
// @Produce json
// @Param status query string false "Filter by status"
// @Param customer_id query string false "Filter by customer"
// @Param vehicle_id query string false "Filter by vehicle"
// @Param technician_id query string false "Filter by technician"
// @Param search query string false "Search RO number and description"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /repair-orders [get]
func (h *RepairOrderHandler) List(c *gin.Context) {
	var filter models.RepairOrderFilter
	filter.Status = c.Query("status")
	filter.CustomerID = c.Query("customer_id")
	filter.VehicleID = c.Query("vehicle_id")
	filter.TechnicianID = c.Query("technician_id")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c, 20)

	orders, pagination, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination)
}

// Get godoc
// @Summary Get repair order detail
// @Tags RepairOrders
// @Produce json
// @Param id path string true "Repair order ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id} [get]
func (h *RepairOrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Create godoc
// @Summary Open a repair order
// @Tags RepairOrders
// @Accept json
// @Produce json
// @Param payload body service.CreateRepairOrderRequest true "Repair order payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /repair-orders [post]
func (h *RepairOrderHandler) Create(c *gin.Context) {
	var req service.CreateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	order, err := h.orders.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// Update godoc
// @Summary Update repair order fields
// @Tags RepairOrders
// @Accept json
// @Produce json
// @Param id path string true "Repair order ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id} [patch]
func (h *RepairOrderHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	order, err := h.orders.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Delete godoc
// @Summary Delete repair order
// @Tags RepairOrders
// @Produce json
// @Param id path string true "Repair order ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id} [delete]
func (h *RepairOrderHandler) Delete(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
