package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func customerAuditEntry(action string) *models.AuditLog {
	userID := "user-1"
	return &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: "customer",
		IPAddress:    "10.0.0.1",
		UserAgent:    "test",
	}
}

func TestCustomerRepositoryCreateCommitsWithAudit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM customers WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("dana@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := customerAuditEntry(models.AuditActionCreate)
	customer := &models.Customer{Name: "Dana Whitfield", Email: "dana@example.com"}
	duplicate, err := repo.Create(context.Background(), customer, entry)
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.NotEmpty(t, customer.ID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, customer.ID, *entry.ResourceID)
	assert.Contains(t, string(entry.Details), customer.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryCreateDuplicateEmailRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM customers WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("dana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	duplicate, err := repo.Create(context.Background(),
		&models.Customer{Name: "Dana Whitfield", Email: "dana@example.com"},
		customerAuditEntry(models.AuditActionCreate))
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryFindByIDSumsRepeatedSalePrices(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "type", "company", "address", "city",
		"state", "zip_code", "date_of_birth", "drivers_license", "notes",
		"preferences", "tags", "created_by", "created_at", "updated_at",
		"total_purchases", "total_service_visits", "total_spent",
	}).AddRow(
		"cust-1", "Dana Whitfield", "dana@example.com", "", "individual", "", "", "",
		"", "", nil, "", "", []byte(`{}`), []byte(`[]`), "user-1", now, now,
		// Two sales at the same price both count into the total.
		2, 0, 59000.0,
	)

	mock.ExpectQuery(`\(SELECT COALESCE\(SUM\(s.final_price\), 0\) FROM sales s WHERE s.customer_id = c.id\) AS total_spent`).
		WithArgs("cust-1").
		WillReturnRows(rows)

	detail, err := repo.FindByID(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 2, detail.TotalPurchases)
	assert.Equal(t, 59000.0, detail.TotalSpent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
