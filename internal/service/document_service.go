package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type documentRepository interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.DocumentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.DocumentDetail, error)
	Create(ctx context.Context, doc *models.Document, entry *models.AuditLog) error
	Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error
	Delete(ctx context.Context, id string, entry *models.AuditLog) error
}

type documentStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
	Parse(token string) (documentID, relPath string, expiresAt time.Time, err error)
}

// UploadDocumentRequest holds metadata accompanying a document upload.
type UploadDocumentRequest struct {
	Name          string  `json:"name" validate:"required"`
	MimeType      string  `json:"mime_type"`
	SizeBytes     int64   `json:"size_bytes"`
	Category      string  `json:"category"`
	RelatedToType *string `json:"related_to_type"`
	RelatedToID   *string `json:"related_to_id"`
	Notes         string  `json:"notes"`
}

// SignedDownload is a time-limited token for fetching a document's bytes.
type SignedDownload struct {
	DocumentID string    `json:"document_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DocumentService handles document metadata and the file store behind it.
type DocumentService struct {
	repo      documentRepository
	store     documentStore
	signer    urlSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs the document service.
func NewDocumentService(repo documentRepository, store documentStore, signer urlSigner, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, store: store, signer: signer, validator: validate, logger: logger}
}

// List returns document metadata and pagination.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter) ([]models.DocumentDetail, *models.Pagination, error) {
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns document metadata.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.DocumentDetail, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// Upload stores the file bytes and records metadata atomically with its
// audit entry. The stored filename is derived from the document ID so
// collisions between same-named uploads cannot occur.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, req UploadDocumentRequest, content io.Reader) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("%s%s", id, filepath.Ext(req.Name))
	relPath, err := s.store.SaveStream(filename, content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	doc := &models.Document{
		ID:            id,
		Name:          req.Name,
		FilePath:      relPath,
		MimeType:      req.MimeType,
		SizeBytes:     req.SizeBytes,
		Category:      category,
		RelatedToType: req.RelatedToType,
		RelatedToID:   req.RelatedToID,
		Notes:         req.Notes,
		UploadedBy:    actor.UserID,
	}

	entry := newAuditEntry(actor, models.AuditActionCreate, "document", doc)
	if err := s.repo.Create(ctx, doc, entry); err != nil {
		// keep the store consistent with the metadata table
		if rmErr := s.store.Delete(relPath); rmErr != nil {
			s.logger.Warn("orphaned document file left behind", zap.String("path", relPath), zap.Error(rmErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}
	return doc, nil
}

// SignDownload issues a time-limited download token for a document.
func (s *DocumentService) SignDownload(ctx context.Context, id string) (*SignedDownload, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{DocumentID: doc.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenByToken validates a signed token and opens the underlying file.
func (s *DocumentService) OpenByToken(ctx context.Context, token string) (*models.DocumentDetail, *os.File, error) {
	documentID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return doc, file, nil
}

// Update applies allowlisted metadata changes.
func (s *DocumentService) Update(ctx context.Context, actor Actor, id string, changes map[string]interface{}) (*models.DocumentDetail, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	entry := newAuditEntry(actor, models.AuditActionUpdate, "document", updateDetails(current.Document, changes))
	if err := s.repo.Update(ctx, id, changes, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload document")
	}
	return updated, nil
}

// Delete removes document metadata, then the stored file.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	entry := newAuditEntry(actor, models.AuditActionDelete, "document", current.Document)
	if err := s.repo.Delete(ctx, id, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}

	if err := s.store.Delete(current.FilePath); err != nil {
		s.logger.Warn("document file removal failed", zap.String("path", current.FilePath), zap.Error(err))
	}
	return nil
}
