package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockUserRepo struct {
	users        map[string]*models.User
	emailTaken   bool
	created      []*models.User
	deactivated  []string
	auditEntries []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emailTaken, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User, entry *models.AuditLog) error {
	user.ID = "user-new"
	m.created = append(m.created, user)
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error {
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string, entry *models.AuditLog) error {
	m.deactivated = append(m.deactivated, id)
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), Actor{UserID: "admin-1"}, CreateUserRequest{
		Email:    "tech@example.com",
		Password: "workshop-pass",
		Name:     "Shop Tech",
		Role:     models.RoleTechnician,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "workshop-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("workshop-pass")))

	// Audit details must not leak the password hash.
	require.Len(t, repo.auditEntries, 1)
	assert.NotContains(t, string(repo.auditEntries[0].Details), user.PasswordHash)
}

func TestUserServiceCreateShortPasswordRejected(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Actor{}, CreateUserRequest{
		Email:    "tech@example.com",
		Password: "short",
		Name:     "Shop Tech",
		Role:     models.RoleTechnician,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestUserServiceUpdateUnknownRoleRejected(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Role: models.RoleViewer},
	}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Update(context.Background(), Actor{UserID: "admin-1"}, "user-1",
		map[string]interface{}{"role": "superuser"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeactivateSelfBlocked(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"admin-1": {ID: "admin-1", Role: models.RoleAdmin},
	}}
	svc := NewUserService(repo, nil, nil)

	err := svc.Deactivate(context.Background(), Actor{UserID: "admin-1"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deactivated)
}

func TestUserServiceDeactivate(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-2": {ID: "user-2", Role: models.RoleViewer},
	}}
	svc := NewUserService(repo, nil, nil)

	err := svc.Deactivate(context.Background(), Actor{UserID: "admin-1"}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-2"}, repo.deactivated)
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionDelete, repo.auditEntries[0].Action)
}
