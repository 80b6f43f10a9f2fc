package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockAuthRepo struct {
	user             *models.User
	findByEmailErr   error
	lastLoginTouched bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) TouchLastLogin(ctx context.Context, id string) error {
	m.lastLoginTouched = true
	return nil
}

type mockAuditWriter struct {
	entries []*models.AuditLog
	err     error
}

func (m *mockAuditWriter) Create(ctx context.Context, entry *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "sales@example.com",
		PasswordHash: string(hash),
		Name:         "Sales Rep",
		Role:         models.RoleSalesRep,
		Active:       true,
	}
}

func newTestAuthService(repo *mockAuthRepo, audit *mockAuditWriter) *AuthService {
	return NewAuthService(repo, audit, nil, nil, AuthConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
		Issuer: "dms-api-test",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "hunter22")}
	audit := &mockAuditWriter{}
	svc := newTestAuthService(repo, audit)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "sales@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.True(t, repo.lastLoginTouched)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)

	// The issued token round-trips through verification.
	claims, err := svc.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleSalesRep, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "hunter22")}
	svc := newTestAuthService(repo, &mockAuditWriter{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "sales@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, 401, appErr.Status)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := newTestAuthService(repo, &mockAuditWriter{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter22",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "hunter22")
	user.Active = false
	svc := newTestAuthService(&mockAuthRepo{user: user}, &mockAuditWriter{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "sales@example.com",
		Password: "hunter22",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSucceedsWhenAuditFails(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "hunter22")}
	audit := &mockAuditWriter{err: assert.AnError}
	svc := newTestAuthService(repo, audit)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "sales@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthServiceVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{}, &mockAuditWriter{})

	_, err := svc.VerifyToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestAuthService(&mockAuthRepo{user: testUser(t, "hunter22")}, &mockAuditWriter{})
	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "sales@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	verifier := NewAuthService(&mockAuthRepo{}, &mockAuditWriter{}, nil, nil, AuthConfig{Secret: "other-secret"})
	_, err = verifier.VerifyToken(resp.AccessToken)
	require.Error(t, err)
}
