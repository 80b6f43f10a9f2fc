package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func partAuditEntry(action string) *models.AuditLog {
	userID := "user-1"
	return &models.AuditLog{UserID: &userID, Action: action, ResourceType: "part"}
}

func TestPartRepositoryUpdateQuantityChangeWritesStockHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPartRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity_in_stock FROM parts WHERE id").
		WithArgs("part-1").
		WillReturnRows(sqlmock.NewRows([]string{"quantity_in_stock"}).AddRow(10))
	mock.ExpectExec("INSERT INTO part_stock_history").
		WithArgs(sqlmock.AnyArg(), "part-1", 10, 4, models.StockChangeDecrease, "user-7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE parts SET quantity_in_stock = \\$1, updated_at = \\$2 WHERE id = \\$3").
		WithArgs(4, sqlmock.AnyArg(), "part-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), "part-1",
		map[string]interface{}{"quantity_in_stock": 4}, "user-7", partAuditEntry(models.AuditActionUpdate))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartRepositoryUpdateSameQuantitySkipsHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPartRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity_in_stock FROM parts WHERE id").
		WithArgs("part-1").
		WillReturnRows(sqlmock.NewRows([]string{"quantity_in_stock"}).AddRow(10))
	mock.ExpectExec("UPDATE parts SET quantity_in_stock = \\$1, updated_at = \\$2 WHERE id = \\$3").
		WithArgs(10, sqlmock.AnyArg(), "part-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), "part-1",
		map[string]interface{}{"quantity_in_stock": 10}, "user-7", partAuditEntry(models.AuditActionUpdate))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartRepositoryUpdateNonQuantityChangeSkipsHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPartRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity_in_stock FROM parts WHERE id").
		WithArgs("part-1").
		WillReturnRows(sqlmock.NewRows([]string{"quantity_in_stock"}).AddRow(10))
	mock.ExpectExec("UPDATE parts SET location = \\$1, updated_at = \\$2 WHERE id = \\$3").
		WithArgs("aisle 4", sqlmock.AnyArg(), "part-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), "part-1",
		map[string]interface{}{"location": "aisle 4"}, "user-7", partAuditEntry(models.AuditActionUpdate))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartRepositoryCreateDuplicatePartNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPartRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM parts WHERE part_number").
		WithArgs("BRK-2210").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	duplicate, err := repo.Create(context.Background(),
		&models.Part{PartNumber: "BRK-2210", Name: "Front brake pad set"},
		partAuditEntry(models.AuditActionCreate))
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
