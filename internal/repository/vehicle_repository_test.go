package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func vehicleAuditEntry(action string) *models.AuditLog {
	userID := "user-1"
	return &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: "vehicle",
		IPAddress:    "10.0.0.1",
		UserAgent:    "test",
	}
}

func TestVehicleRepositoryCreateCommitsWithAudit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM vehicles WHERE vin").
		WithArgs("1HGCM82633A004352").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := vehicleAuditEntry(models.AuditActionCreate)
	vehicle := &models.Vehicle{VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord", Year: 2019}
	duplicate, err := repo.Create(context.Background(), vehicle, entry)
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.NotEmpty(t, vehicle.ID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, vehicle.ID, *entry.ResourceID)
	// The recorded snapshot includes the generated row ID.
	assert.Contains(t, string(entry.Details), vehicle.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryCreateDuplicateVINRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM vehicles WHERE vin").
		WithArgs("1HGCM82633A004352").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	duplicate, err := repo.Create(context.Background(),
		&models.Vehicle{VIN: "1HGCM82633A004352"}, vehicleAuditEntry(models.AuditActionCreate))
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryCreateRollsBackWhenAuditFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM vehicles WHERE vin").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(),
		&models.Vehicle{VIN: "1HGCM82633A004352"}, vehicleAuditEntry(models.AuditActionCreate))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryUpdateAppliesAllowlistedChanges(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE vehicles SET status = \\$1, updated_at = \\$2 WHERE id = \\$3").
		WithArgs("reserved", sqlmock.AnyArg(), "veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changes := map[string]interface{}{"status": "reserved", "vin": "should-be-ignored"}
	err := repo.Update(context.Background(), "veh-1", changes, vehicleAuditEntry(models.AuditActionUpdate))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryUpdateNoAllowedFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	// All fields dropped by the allowlist: no transaction at all.
	err := repo.Update(context.Background(), "veh-1",
		map[string]interface{}{"vin": "tamper"}, vehicleAuditEntry(models.AuditActionUpdate))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryDeleteBlockedBySales(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM sales WHERE vehicle_id").
		WithArgs("veh-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	blocked, err := repo.Delete(context.Background(), "veh-1", vehicleAuditEntry(models.AuditActionDelete))
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM sales WHERE vehicle_id").
		WithArgs("veh-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM vehicles WHERE id").
		WithArgs("veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	blocked, err := repo.Delete(context.Background(), "veh-1", vehicleAuditEntry(models.AuditActionDelete))
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
