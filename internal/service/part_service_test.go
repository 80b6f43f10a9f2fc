package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockPartRepo struct {
	parts         map[string]*models.PartDetail
	duplicate     bool
	updateErr     error
	lastChangedBy string
	lastChanges   map[string]interface{}
	auditEntries  []*models.AuditLog
}

func (m *mockPartRepo) List(ctx context.Context, filter models.PartFilter) ([]models.Part, int, error) {
	return nil, 0, nil
}

func (m *mockPartRepo) FindByID(ctx context.Context, id string) (*models.PartDetail, error) {
	part, ok := m.parts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return part, nil
}

func (m *mockPartRepo) ExistsByPartNumber(ctx context.Context, partNumber string) (bool, error) {
	return m.duplicate, nil
}

func (m *mockPartRepo) Create(ctx context.Context, part *models.Part, entry *models.AuditLog) (bool, error) {
	if m.duplicate {
		return true, nil
	}
	part.ID = "part-1"
	m.auditEntries = append(m.auditEntries, entry)
	return false, nil
}

func (m *mockPartRepo) Update(ctx context.Context, id string, changes map[string]interface{}, changedBy string, entry *models.AuditLog) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastChangedBy = changedBy
	m.lastChanges = changes
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockPartRepo) Delete(ctx context.Context, id string, entry *models.AuditLog) error {
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func TestPartServiceCreate(t *testing.T) {
	repo := &mockPartRepo{parts: map[string]*models.PartDetail{}}
	svc := NewPartService(repo, nil, nil)

	part, err := svc.Create(context.Background(), Actor{UserID: "user-1"}, CreatePartRequest{
		PartNumber:      "BRK-2210",
		Name:            "Front brake pad set",
		QuantityInStock: 10,
		ReorderLevel:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, "part-1", part.ID)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionCreate, repo.auditEntries[0].Action)
	assert.Equal(t, "part", repo.auditEntries[0].ResourceType)
}

func TestPartServiceCreateDuplicatePartNumber(t *testing.T) {
	repo := &mockPartRepo{duplicate: true}
	svc := NewPartService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Actor{}, CreatePartRequest{
		PartNumber: "BRK-2210",
		Name:       "Front brake pad set",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestPartServiceUpdatePassesActorForStockHistory(t *testing.T) {
	repo := &mockPartRepo{parts: map[string]*models.PartDetail{
		"part-1": {Part: models.Part{ID: "part-1", PartNumber: "BRK-2210", QuantityInStock: 10}},
	}}
	svc := NewPartService(repo, nil, nil)

	changes := map[string]interface{}{"quantity_in_stock": 4}
	_, err := svc.Update(context.Background(), Actor{UserID: "user-7"}, "part-1", changes)
	require.NoError(t, err)

	// The acting user becomes changed_by on the stock history row.
	assert.Equal(t, "user-7", repo.lastChangedBy)
	assert.Equal(t, changes, repo.lastChanges)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionUpdate, repo.auditEntries[0].Action)
}

func TestPartServiceUpdateNotFound(t *testing.T) {
	repo := &mockPartRepo{parts: map[string]*models.PartDetail{}}
	svc := NewPartService(repo, nil, nil)

	_, err := svc.Update(context.Background(), Actor{}, "missing", map[string]interface{}{"name": "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
