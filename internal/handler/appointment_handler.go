package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
	"github.com/ridgeline-auto/dms-api/pkg/response"
)

// AppointmentHandler exposes service appointment endpoints.
type AppointmentHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentHandler constructs AppointmentHandler.
func NewAppointmentHandler(appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// List godoc
// @Summary List service appointments
// @Tags Appointments
// @Produce json
// @Param status query string false "Filter by status"
// @Param customer_id query string false "Filter by customer"
// @Param technician_id query string false "Filter by technician"
// @Param date_from query string false "Appointments on or after this date"
// @Param date_to query string false "Appointments on or before this date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	var filter models.ServiceAppointmentFilter
	filter.Status = c.Query("status")
	filter.CustomerID = c.Query("customer_id")
	filter.TechnicianID = c.Query("technician_id")
	filter.DateFrom = queryDate(c, "date_from")
	filter.DateTo = queryDate(c, "date_to")
	filter.Page, filter.PageSize = pageParams(c, 20)

	appointments, pagination, err := h.appointments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, pagination)
}

// Get godoc
// @Summary Get appointment detail
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, err := h.appointments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Create godoc
// @Summary Book a service appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body service.CreateAppointmentRequest true "Appointment payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req service.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appointment, err := h.appointments.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment)
}

// Update godoc
// @Summary Update appointment fields
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appointment, err := h.appointments.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Delete godoc
// @Summary Delete appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	if err := h.appointments.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
