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

// CustomerHandler exposes customer endpoints.
type CustomerHandler struct {
	customers *service.CustomerService
}

// NewCustomerHandler constructs CustomerHandler.
func NewCustomerHandler(customers *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List godoc
// @Summary List customers
// @Tags Customers
// @Produce json
// @Param type query string false "Filter by customer type"
// @Param search query string false "Search name, email, phone"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var filter models.CustomerFilter
	filter.Type = c.Query("type")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c, 20)

	customers, pagination, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customers, pagination)
}

// Get godoc
// @Summary Get customer detail with purchase aggregates
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.customers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customer, nil)
}

// Create godoc
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param payload body service.CreateCustomerRequest true "Customer payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	customer, err := h.customers.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, customer)
}

// Update godoc
// @Summary Update customer fields
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /customers/{id} [patch]
func (h *CustomerHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	customer, err := h.customers.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customer, nil)
}

// Delete godoc
// @Summary Delete customer
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.customers.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
