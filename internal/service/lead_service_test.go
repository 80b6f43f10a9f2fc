package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockLeadRepo struct {
	leads        map[string]*models.LeadDetail
	lastChanges  map[string]interface{}
	softDeleted  []string
	auditEntries []*models.AuditLog
}

func (m *mockLeadRepo) List(ctx context.Context, filter models.LeadFilter) ([]models.LeadDetail, int, error) {
	return nil, 0, nil
}

func (m *mockLeadRepo) FindByID(ctx context.Context, id string) (*models.LeadDetail, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return lead, nil
}

func (m *mockLeadRepo) Create(ctx context.Context, lead *models.Lead, entry *models.AuditLog) error {
	lead.ID = "lead-1"
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockLeadRepo) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error {
	m.lastChanges = changes
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockLeadRepo) SoftDelete(ctx context.Context, id string, entry *models.AuditLog) error {
	m.softDeleted = append(m.softDeleted, id)
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func TestLeadServiceCreateDefaultsAndScores(t *testing.T) {
	repo := &mockLeadRepo{leads: map[string]*models.LeadDetail{}}
	svc := NewLeadService(repo, nil, nil)

	lead, err := svc.Create(context.Background(), Actor{UserID: "user-1"}, CreateLeadRequest{
		InterestType: "new_vehicle",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeadSourceOther, lead.Source)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, "medium", lead.Priority)
	// Base 50 plus the default source weight, nothing else provided.
	assert.Equal(t, 55, lead.AIScore)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionCreate, repo.auditEntries[0].Action)
	assert.Equal(t, "lead", repo.auditEntries[0].ResourceType)
}

func TestLeadServiceCreateScoresHotLead(t *testing.T) {
	repo := &mockLeadRepo{leads: map[string]*models.LeadDetail{}}
	svc := NewLeadService(repo, nil, nil)

	budgetMin, budgetMax := 40000.0, 60000.0
	closeDate := time.Now().UTC().AddDate(0, 0, 5)
	lead, err := svc.Create(context.Background(), Actor{UserID: "user-1"}, CreateLeadRequest{
		Source:            "referral",
		InterestType:      "new_vehicle",
		BudgetMin:         &budgetMin,
		BudgetMax:         &budgetMax,
		ExpectedCloseDate: &closeDate,
	})
	require.NoError(t, err)
	assert.Equal(t, 95, lead.AIScore)
}

func TestLeadServiceCreateMissingInterestType(t *testing.T) {
	repo := &mockLeadRepo{leads: map[string]*models.LeadDetail{}}
	svc := NewLeadService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Actor{}, CreateLeadRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeadServiceUpdateRecordsOldAndNew(t *testing.T) {
	repo := &mockLeadRepo{leads: map[string]*models.LeadDetail{
		"lead-1": {Lead: models.Lead{ID: "lead-1", AIScore: 80, Status: models.LeadStatusNew}},
	}}
	svc := NewLeadService(repo, nil, nil)

	_, err := svc.Update(context.Background(), Actor{UserID: "user-1"}, "lead-1", map[string]interface{}{
		"status": models.LeadStatusContacted,
	})
	require.NoError(t, err)
	require.Len(t, repo.auditEntries, 1)
	entry := repo.auditEntries[0]
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Contains(t, string(entry.Details), "old_data")
	assert.Contains(t, string(entry.Details), "new_data")
}

func TestLeadServiceDeleteIsSoft(t *testing.T) {
	repo := &mockLeadRepo{leads: map[string]*models.LeadDetail{
		"lead-1": {Lead: models.Lead{ID: "lead-1"}},
	}}
	svc := NewLeadService(repo, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-1"}, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1"}, repo.softDeleted)
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionDelete, repo.auditEntries[0].Action)
}
