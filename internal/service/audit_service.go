package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type auditReadRepository interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogDetail, int, error)
}

// AuditService exposes read access to the audit trail. Writes happen
// inside the repositories that own the mutations being recorded.
type AuditService struct {
	repo   auditReadRepository
	logger *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditReadRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// List returns audit entries newest-first.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogDetail, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}
