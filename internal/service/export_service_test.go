package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
)

type mockExportVehicles struct{ vehicles []models.VehicleDetail }

func (m *mockExportVehicles) List(ctx context.Context, filter models.VehicleFilter) ([]models.VehicleDetail, int, error) {
	return m.vehicles, len(m.vehicles), nil
}

type mockExportSales struct{ sale *models.SaleDetail }

func (m *mockExportSales) List(ctx context.Context, filter models.SaleFilter) ([]models.SaleDetail, int, error) {
	if m.sale == nil {
		return nil, 0, nil
	}
	return []models.SaleDetail{*m.sale}, 1, nil
}

func (m *mockExportSales) FindByID(ctx context.Context, id string) (*models.SaleDetail, error) {
	return m.sale, nil
}

type mockExportCustomers struct{}

func (m *mockExportCustomers) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	return nil, 0, nil
}

func newTestExportService(vehicles []models.VehicleDetail, sale *models.SaleDetail) *ExportService {
	return NewExportService(
		&mockExportVehicles{vehicles: vehicles},
		&mockExportSales{sale: sale},
		&mockExportCustomers{},
		nil,
	)
}

func TestExportServiceVehiclesCSV(t *testing.T) {
	svc := newTestExportService([]models.VehicleDetail{
		{Vehicle: models.Vehicle{VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord", Year: 2019, Status: models.VehicleStatusAvailable, Price: 18999}},
	}, nil)

	file, err := svc.Vehicles(context.Background(), models.VehicleFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Content)
	assert.Contains(t, body, "VIN")
	assert.Contains(t, body, "1HGCM82633A004352")
	assert.Contains(t, body, "Accord")
}

func TestExportServiceDefaultsToCSV(t *testing.T) {
	svc := newTestExportService(nil, nil)

	file, err := svc.Vehicles(context.Background(), models.VehicleFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
}

func TestExportServiceVehiclesPDF(t *testing.T) {
	svc := newTestExportService([]models.VehicleDetail{
		{Vehicle: models.Vehicle{VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord", Year: 2019}},
	}, nil)

	file, err := svc.Vehicles(context.Background(), models.VehicleFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := newTestExportService(nil, nil)

	_, err := svc.Vehicles(context.Background(), models.VehicleFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceSaleInvoicePDF(t *testing.T) {
	customer := "Dana Whitfield"
	vin := "1HGCM82633A004352"
	make, model := "Honda", "Accord"
	year := 2019
	svc := newTestExportService(nil, &models.SaleDetail{
		Sale: models.Sale{
			ID:         "sale-1",
			CustomerID: "cust-1",
			VehicleID:  "veh-1",
			SalePrice:  32000,
			FinalPrice: 34500,
		},
		CustomerName: &customer,
		VehicleVIN:   &vin,
		VehicleMake:  &make,
		VehicleModel: &model,
		VehicleYear:  &year,
	})

	file, err := svc.SaleInvoice(context.Background(), "sale-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}
