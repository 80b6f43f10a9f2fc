package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func repairOrderAuditEntry() *models.AuditLog {
	userID := "user-1"
	return &models.AuditLog{UserID: &userID, Action: models.AuditActionCreate, ResourceType: "repair_order"}
}

func TestRepairOrderRepositoryCreateGeneratesRONumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRepairOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM repair_orders WHERE EXTRACT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectExec("INSERT INTO repair_orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := &models.RepairOrder{CustomerID: "cust-1", VehicleID: "veh-1", Description: "Brake job"}
	err := repo.Create(context.Background(), order, repairOrderAuditEntry())
	require.NoError(t, err)

	want := fmt.Sprintf("RO-%d-%06d", time.Now().UTC().Year(), 42)
	assert.Equal(t, want, order.RONumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairOrderRepositoryCreateKeepsProvidedRONumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRepairOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO repair_orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := &models.RepairOrder{CustomerID: "cust-1", VehicleID: "veh-1", RONumber: "RO-2025-000007"}
	err := repo.Create(context.Background(), order, repairOrderAuditEntry())
	require.NoError(t, err)
	assert.Equal(t, "RO-2025-000007", order.RONumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
