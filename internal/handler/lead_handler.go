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

// LeadHandler exposes lead endpoints.
type LeadHandler struct {
	leads *service.LeadService
}

// NewLeadHandler constructs LeadHandler.
func NewLeadHandler(leads *service.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param status query string false "Filter by funnel status"
// @Param source query string false "Filter by source"
// @Param assigned_to query string false "Filter by assignee"
// @Param search query string false "Search notes and vehicle of interest"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	var filter models.LeadFilter
	filter.Status = c.Query("status")
	filter.Source = c.Query("source")
	filter.AssignedTo = c.Query("assigned_to")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c, 20)

	leads, pagination, err := h.leads.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leads, pagination)
}

// Get godoc
// @Summary Get lead detail
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// Create godoc
// @Summary Create lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body service.CreateLeadRequest true "Lead payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req service.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lead, err := h.leads.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lead)
}

// Update godoc
// @Summary Update lead fields
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [patch]
func (h *LeadHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lead, err := h.leads.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// Delete godoc
// @Summary Delete lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	if err := h.leads.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
