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

type mockCustomerRepo struct {
	customers    map[string]*models.CustomerDetail
	emailTaken   bool
	deleteBlocks bool
	auditEntries []*models.AuditLog
	deleted      []string
}

func (m *mockCustomerRepo) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	return nil, 0, nil
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id string) (*models.CustomerDetail, error) {
	customer, ok := m.customers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return customer, nil
}

func (m *mockCustomerRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emailTaken, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *models.Customer, entry *models.AuditLog) (bool, error) {
	if m.emailTaken {
		return true, nil
	}
	customer.ID = "cust-1"
	m.auditEntries = append(m.auditEntries, entry)
	return false, nil
}

func (m *mockCustomerRepo) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error {
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id string, entry *models.AuditLog) (bool, error) {
	if m.deleteBlocks {
		return true, nil
	}
	m.deleted = append(m.deleted, id)
	m.auditEntries = append(m.auditEntries, entry)
	return false, nil
}

func TestCustomerServiceCreate(t *testing.T) {
	repo := &mockCustomerRepo{customers: map[string]*models.CustomerDetail{}}
	svc := NewCustomerService(repo, nil, nil)

	customer, err := svc.Create(context.Background(), Actor{UserID: "user-1"}, CreateCustomerRequest{
		Name:  "Dana Whitfield",
		Email: "dana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "individual", customer.Type)
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionCreate, repo.auditEntries[0].Action)
}

func TestCustomerServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockCustomerRepo{emailTaken: true}
	svc := NewCustomerService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Actor{}, CreateCustomerRequest{
		Name:  "Dana Whitfield",
		Email: "dana@example.com",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestCustomerServiceUpdateEmptyEmailRejected(t *testing.T) {
	repo := &mockCustomerRepo{customers: map[string]*models.CustomerDetail{
		"cust-1": {Customer: models.Customer{ID: "cust-1", Email: "dana@example.com"}},
	}}
	svc := NewCustomerService(repo, nil, nil)

	_, err := svc.Update(context.Background(), Actor{}, "cust-1", map[string]interface{}{"email": ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCustomerServiceDeleteBlockedBySales(t *testing.T) {
	repo := &mockCustomerRepo{
		customers: map[string]*models.CustomerDetail{
			"cust-1": {Customer: models.Customer{ID: "cust-1"}},
		},
		deleteBlocks: true,
	}
	svc := NewCustomerService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-1"}, "cust-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Empty(t, repo.deleted)
}

func TestCustomerServiceDelete(t *testing.T) {
	repo := &mockCustomerRepo{customers: map[string]*models.CustomerDetail{
		"cust-1": {Customer: models.Customer{ID: "cust-1"}},
	}}
	svc := NewCustomerService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-1"}, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cust-1"}, repo.deleted)
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionDelete, repo.auditEntries[0].Action)
}
