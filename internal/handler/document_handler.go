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

// DocumentHandler exposes document endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param category query string false "Filter by category"
// @Param related_to_type query string false "Related entity type"
// @Param related_to_id query string false "Related entity ID"
// @Param search query string false "Search name and notes"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var filter models.DocumentFilter
	filter.Category = c.Query("category")
	filter.RelatedType = c.Query("related_to_type")
	filter.RelatedID = c.Query("related_to_id")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c, 20)

	docs, pagination, err := h.documents.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Get godoc
// @Summary Get document metadata
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Upload godoc
// @Summary Upload a document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param category formData string false "Category"
// @Param related_to_type formData string false "Related entity type"
// @Param related_to_id formData string false "Related entity ID"
// @Param notes formData string false "Notes"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	req := service.UploadDocumentRequest{
		Name:      fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		SizeBytes: fileHeader.Size,
		Category:  c.PostForm("category"),
		Notes:     c.PostForm("notes"),
	}
	if v := c.PostForm("related_to_type"); v != "" {
		req.RelatedToType = &v
	}
	if v := c.PostForm("related_to_id"); v != "" {
		req.RelatedToID = &v
	}

	doc, err := h.documents.Upload(c.Request.Context(), currentActor(c), req, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// SignDownload godoc
// @Summary Issue a time-limited download token
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/download-url [get]
func (h *DocumentHandler) SignDownload(c *gin.Context) {
	signed, err := h.documents.SignDownload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, signed, nil)
}

// Download godoc
// @Summary Download a document with a signed token
// @Tags Documents
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, file, err := h.documents.OpenByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.MimeType, file, nil)
}

// Update godoc
// @Summary Update document metadata
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body object true "Changed fields"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [patch]
func (h *DocumentHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.documents.Update(c.Request.Context(), currentActor(c), c.Param("id"), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Delete godoc
// @Summary Delete document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
