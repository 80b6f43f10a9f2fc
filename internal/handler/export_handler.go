package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	"github.com/ridgeline-auto/dms-api/pkg/response"
)

// ExportHandler streams CSV and PDF exports of core datasets.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func serveExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Content)
}

// Vehicles godoc
// @Summary Export the vehicle inventory
// @Tags Exports
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Security BearerAuth
// @Success 200 {file} file
// @Router /vehicles/export [get]
func (h *ExportHandler) Vehicles(c *gin.Context) {
	filter := models.VehicleFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Make:   c.Query("make"),
		Search: c.Query("search"),
	}
	file, err := h.exports.Vehicles(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

// Sales godoc
// @Summary Export the sales ledger
// @Tags Exports
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Filter by status"
// @Param date_from query string false "Sale date lower bound (RFC3339 or YYYY-MM-DD)"
// @Param date_to query string false "Sale date upper bound"
// @Security BearerAuth
// @Success 200 {file} file
// @Router /sales/export [get]
func (h *ExportHandler) Sales(c *gin.Context) {
	filter := models.SaleFilter{
		Status:        c.Query("status"),
		CustomerID:    c.Query("customer_id"),
		SalespersonID: c.Query("salesperson_id"),
		DateFrom:      queryDate(c, "date_from"),
		DateTo:        queryDate(c, "date_to"),
	}
	file, err := h.exports.Sales(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

// Customers godoc
// @Summary Export the customer book
// @Tags Exports
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param type query string false "Filter by customer type"
// @Security BearerAuth
// @Success 200 {file} file
// @Router /customers/export [get]
func (h *ExportHandler) Customers(c *gin.Context) {
	filter := models.CustomerFilter{
		Type:   c.Query("type"),
		Search: c.Query("search"),
	}
	file, err := h.exports.Customers(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

// SaleInvoice godoc
// @Summary Generate a PDF invoice for a sale
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Sale ID"
// @Security BearerAuth
// @Success 200 {file} file
// @Router /sales/{id}/invoice [get]
func (h *ExportHandler) SaleInvoice(c *gin.Context) {
	file, err := h.exports.SaleInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}
