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

// PartHandler exposes parts inventory endpoints.
type PartHandler struct {
	parts *service.PartService
}

// NewPartHandler constructs PartHandler.
func NewPartHandler(parts *service.PartService) *PartHandler {
	return &PartHandler{parts: parts}
}

// List godoc
// @Summary List parts
// @Tags Parts
// @Produce json
// @Param category query string false "Filter by category"
// @Param supplier_id query string false "Filter by supplier"
// @Param low_stock query bool false "Only parts at or below reorder level"
// @Param search query string false "Search part number, name, manufacturer"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parts [get]
func (h *PartHandler) List(c *gin.Context) {
	var filter models.PartFilter
	filter.Category = c.Query("category")
	filter.SupplierID = c.Query("supplier_id")
	filter.LowStock = c.Query("low_stock") == "true"
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c, 50)

	parts, pagination, err := h.parts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parts, pagination)
}

// Get godoc
// @Summary Get part detail with recent stock history
// @Tags Parts
// @Produce json
// @Param id path string true "Part ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parts/{id} [get]
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.parts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, part, nil)
}

// Create godoc
// @Summary Add a part
// @Tags Parts
// @Accept json
// @Produce json
// @Param payload body service.CreatePartRequest true "Part payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /parts [post]
func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	part, err := h.parts.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, part)
}

// Update godoc
// @Summary Update part fields
// @Tags Parts
// @Accept json
// @Produce json
// @Param id path string true "Part ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parts/{id} [patch]
func (h *PartHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	part, err := h.parts.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, part, nil)
}

// Delete godoc
// @Summary Delete part
// @Tags Parts
// @Produce json
// @Param id path string true "Part ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parts/{id} [delete]
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.parts.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
