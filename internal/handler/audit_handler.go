package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	"github.com/ridgeline-auto/dms-api/pkg/response"
)

// AuditHandler exposes the audit trail read endpoint.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit entries newest-first
// @Tags Audit
// @Produce json
// @Param user_id query string false "Filter by acting user"
// @Param action query string false "Filter by action"
// @Param resource_type query string false "Filter by resource type"
// @Param resource_id query string false "Filter by resource ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter models.AuditLogFilter
	filter.UserID = c.Query("user_id")
	filter.Action = c.Query("action")
	filter.ResourceType = c.Query("resource_type")
	filter.ResourceID = c.Query("resource_id")
	filter.Page, filter.PageSize = pageParams(c, 50)

	entries, pagination, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
