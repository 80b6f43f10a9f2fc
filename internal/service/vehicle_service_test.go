package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockVehicleRepo struct {
	vehicles     map[string]*models.VehicleDetail
	listCalls    int
	duplicate    bool
	deleteBlocks bool
	auditEntries []*models.AuditLog
}

func (m *mockVehicleRepo) List(ctx context.Context, filter models.VehicleFilter) ([]models.VehicleDetail, int, error) {
	m.listCalls++
	out := make([]models.VehicleDetail, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, *v)
	}
	return out, len(out), nil
}

func (m *mockVehicleRepo) FindByID(ctx context.Context, id string) (*models.VehicleDetail, error) {
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return vehicle, nil
}

func (m *mockVehicleRepo) ExistsByVIN(ctx context.Context, vin string) (bool, error) {
	return m.duplicate, nil
}

func (m *mockVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle, entry *models.AuditLog) (bool, error) {
	if m.duplicate {
		return true, nil
	}
	vehicle.ID = "veh-1"
	m.auditEntries = append(m.auditEntries, entry)
	return false, nil
}

func (m *mockVehicleRepo) Update(ctx context.Context, id string, changes map[string]interface{}, entry *models.AuditLog) error {
	m.auditEntries = append(m.auditEntries, entry)
	return nil
}

func (m *mockVehicleRepo) Delete(ctx context.Context, id string, entry *models.AuditLog) (bool, error) {
	if m.deleteBlocks {
		return true, nil
	}
	delete(m.vehicles, id)
	m.auditEntries = append(m.auditEntries, entry)
	return false, nil
}

// mockVehicleCache is an in-memory stand-in for the Redis repository.
type mockVehicleCache struct {
	entries    map[string][]byte
	invalidate int
}

func newMockVehicleCache() *mockVehicleCache {
	return &mockVehicleCache{entries: map[string][]byte{}}
}

func (m *mockVehicleCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockVehicleCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockVehicleCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidate++
	m.entries = map[string][]byte{}
	return nil
}

func validVehicleRequest() CreateVehicleRequest {
	return CreateVehicleRequest{
		VIN:   "1hgcm82633a004352",
		Type:  "used",
		Make:  "Honda",
		Model: "Accord",
		Year:  2019,
		Price: 18999,
	}
}

func TestVehicleServiceListUsesCache(t *testing.T) {
	repo := &mockVehicleRepo{vehicles: map[string]*models.VehicleDetail{
		"veh-1": {Vehicle: models.Vehicle{ID: "veh-1", VIN: "1HGCM82633A004352"}},
	}}
	cache := newMockVehicleCache()
	svc := NewVehicleService(repo, cache, time.Minute, nil, nil, nil)

	_, _, err := svc.List(context.Background(), models.VehicleFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// Second identical request is served from cache.
	vehicles, pagination, err := svc.List(context.Background(), models.VehicleFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Len(t, vehicles, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Total)
}

func TestVehicleServiceListCountsCacheTraffic(t *testing.T) {
	repo := &mockVehicleRepo{vehicles: map[string]*models.VehicleDetail{
		"veh-1": {Vehicle: models.Vehicle{ID: "veh-1", VIN: "1HGCM82633A004352"}},
	}}
	cache := newMockVehicleCache()
	metrics := NewMetricsService()
	svc := NewVehicleService(repo, cache, time.Minute, metrics, nil, nil)

	filter := models.VehicleFilter{Page: 1, PageSize: 20}
	_, _, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), filter)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, "inventory_cache_misses_total 1")
	assert.Contains(t, body, "inventory_cache_hits_total 1")
}

func TestVehicleServiceCreateUppercasesVINAndInvalidates(t *testing.T) {
	repo := &mockVehicleRepo{vehicles: map[string]*models.VehicleDetail{}}
	cache := newMockVehicleCache()
	svc := NewVehicleService(repo, cache, time.Minute, nil, nil, nil)

	vehicle, err := svc.Create(context.Background(), Actor{UserID: "user-1"}, validVehicleRequest())
	require.NoError(t, err)
	assert.Equal(t, "1HGCM82633A004352", vehicle.VIN)
	assert.Equal(t, models.VehicleStatusAvailable, vehicle.Status)
	assert.Equal(t, 1, cache.invalidate)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionCreate, repo.auditEntries[0].Action)
	assert.Equal(t, "vehicle", repo.auditEntries[0].ResourceType)
}

func TestVehicleServiceCreateDuplicateVIN(t *testing.T) {
	repo := &mockVehicleRepo{duplicate: true}
	svc := NewVehicleService(repo, nil, time.Minute, nil, nil, nil)

	_, err := svc.Create(context.Background(), Actor{}, validVehicleRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestVehicleServiceCreateValidation(t *testing.T) {
	repo := &mockVehicleRepo{vehicles: map[string]*models.VehicleDetail{}}
	svc := NewVehicleService(repo, nil, time.Minute, nil, nil, nil)

	req := validVehicleRequest()
	req.VIN = "too-short"
	_, err := svc.Create(context.Background(), Actor{}, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestVehicleServiceDeleteBlockedBySales(t *testing.T) {
	repo := &mockVehicleRepo{
		vehicles: map[string]*models.VehicleDetail{
			"veh-1": {Vehicle: models.Vehicle{ID: "veh-1"}},
		},
		deleteBlocks: true,
	}
	cache := newMockVehicleCache()
	svc := NewVehicleService(repo, cache, time.Minute, nil, nil, nil)

	err := svc.Delete(context.Background(), Actor{UserID: "user-1"}, "veh-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, repo.vehicles, "veh-1")
}
