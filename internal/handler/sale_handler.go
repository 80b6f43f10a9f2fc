package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
	"github.com/ridgeline-auto/dms-api/pkg/response"
)

// SaleHandler exposes sale endpoints.
type SaleHandler struct {
	sales *service.SaleService
}

// NewSaleHandler constructs SaleHandler.
func NewSaleHandler(sales *service.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// List godoc
// @Summary List sales
// @Tags Sales
// @Produce json
// @Param status query string false "Filter by status"
// @Param customer_id query string false "Filter by customer"
// @Param salesperson_id query string false "Filter by salesperson"
// @Param date_from query string false "Sales on or after this date"
// @Param date_to query string false "Sales on or before this date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	var filter models.SaleFilter
	filter.Status = c.Query("status")
	filter.CustomerID = c.Query("customer_id")
	filter.SalespersonID = c.Query("salesperson_id")
	filter.DateFrom = queryDate(c, "date_from")
	filter.DateTo = queryDate(c, "date_to")
	filter.Page, filter.PageSize = pageParams(c, 20)

	sales, pagination, err := h.sales.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sales, pagination)
}

// Get godoc
// @Summary Get sale detail
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.sales.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sale, nil)
}

// Create godoc
// @Summary Record a sale
// @Tags Sales
// @Accept json
// @Produce json
// @Param payload body service.CreateSaleRequest true "Sale payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sale, err := h.sales.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sale)
}

// Update godoc
// @Summary Update sale fields
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path string true "Sale ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /sales/{id} [patch]
func (h *SaleHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sale, err := h.sales.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sale, nil)
}

// Delete godoc
// @Summary Unwind a sale and return the vehicle to inventory
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /sales/{id} [delete]
func (h *SaleHandler) Delete(c *gin.Context) {
	if err := h.sales.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
