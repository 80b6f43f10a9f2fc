package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func saleAuditEntry(action string) *models.AuditLog {
	userID := "user-1"
	return &models.AuditLog{UserID: &userID, Action: action, ResourceType: "sale"}
}

func TestSaleRepositoryCreateMarksVehicleSold(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSaleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM vehicles WHERE id").
		WithArgs("veh-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("available"))
	mock.ExpectExec("INSERT INTO sales").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE vehicles SET status = \\$1, customer_id = \\$2, updated_at = \\$3 WHERE id = \\$4").
		WithArgs(models.VehicleStatusSold, "cust-1", sqlmock.AnyArg(), "veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sale := &models.Sale{CustomerID: "cust-1", VehicleID: "veh-1", SalePrice: 32000, FinalPrice: 34500}
	err := repo.Create(context.Background(), sale, saleAuditEntry(models.AuditActionCreate))
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepositoryCreateVehicleAlreadySold(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSaleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM vehicles WHERE id").
		WithArgs("veh-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("sold"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(),
		&models.Sale{CustomerID: "cust-1", VehicleID: "veh-1"},
		saleAuditEntry(models.AuditActionCreate))
	require.ErrorIs(t, err, ErrSaleVehicleSold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepositoryCreateVehicleMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSaleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM vehicles WHERE id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := repo.Create(context.Background(),
		&models.Sale{CustomerID: "cust-1", VehicleID: "ghost"},
		saleAuditEntry(models.AuditActionCreate))
	require.ErrorIs(t, err, ErrSaleVehicleMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepositoryDeleteReleasesVehicle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSaleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sales WHERE id").
		WithArgs("sale-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE vehicles SET status = \\$1, customer_id = NULL, updated_at = \\$2 WHERE id = \\$3").
		WithArgs(models.VehicleStatusAvailable, sqlmock.AnyArg(), "veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "sale-1", "veh-1", saleAuditEntry(models.AuditActionDelete))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
