package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/ridgeline-auto/dms-api/internal/models"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
	"github.com/ridgeline-auto/dms-api/pkg/export"
)

type exportVehicleRepository interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]models.VehicleDetail, int, error)
}

type exportSaleRepository interface {
	List(ctx context.Context, filter models.SaleFilter) ([]models.SaleDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SaleDetail, error)
}

type exportCustomerRepository interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
}

// ExportFile carries rendered export bytes plus response metadata.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders inventory, sales and customer data as CSV or PDF,
// and produces printable sale invoices.
type ExportService struct {
	vehicles  exportVehicleRepository
	sales     exportSaleRepository
	customers exportCustomerRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(vehicles exportVehicleRepository, sales exportSaleRepository, customers exportCustomerRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		vehicles:  vehicles,
		sales:     sales,
		customers: customers,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

const exportPageSize = 100

// Vehicles exports the current inventory in the requested format.
func (s *ExportService) Vehicles(ctx context.Context, filter models.VehicleFilter, format string) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize
	vehicles, _, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicles for export")
	}

	data := export.Dataset{
		Headers: []string{"VIN", "Stock #", "Make", "Model", "Year", "Status", "Mileage", "Price"},
	}
	for _, v := range vehicles {
		data.Rows = append(data.Rows, map[string]string{
			"VIN":     v.VIN,
			"Stock #": v.StockNumber,
			"Make":    v.Make,
			"Model":   v.Model,
			"Year":    fmt.Sprintf("%d", v.Year),
			"Status":  string(v.Status),
			"Mileage": fmt.Sprintf("%d", v.Mileage),
			"Price":   fmt.Sprintf("%.2f", v.Price),
		})
	}
	return s.render(data, "vehicle-inventory", "Vehicle Inventory", format)
}

// Sales exports sale records in the requested format.
func (s *ExportService) Sales(ctx context.Context, filter models.SaleFilter, format string) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize
	sales, _, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sales for export")
	}

	data := export.Dataset{
		Headers: []string{"Date", "Customer", "Vehicle", "Sale Price", "Final Price", "Status"},
	}
	for _, sale := range sales {
		vehicle := ""
		if sale.VehicleMake != nil && sale.VehicleModel != nil {
			vehicle = fmt.Sprintf("%s %s", *sale.VehicleMake, *sale.VehicleModel)
		}
		customer := ""
		if sale.CustomerName != nil {
			customer = *sale.CustomerName
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":        sale.SaleDate.Format("2006-01-02"),
			"Customer":    customer,
			"Vehicle":     vehicle,
			"Sale Price":  fmt.Sprintf("%.2f", sale.SalePrice),
			"Final Price": fmt.Sprintf("%.2f", sale.FinalPrice),
			"Status":      sale.Status,
		})
	}
	return s.render(data, "sales", "Sales Report", format)
}

// Customers exports customer records in the requested format.
func (s *ExportService) Customers(ctx context.Context, filter models.CustomerFilter, format string) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize
	customers, _, err := s.customers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customers for export")
	}

	data := export.Dataset{
		Headers: []string{"Name", "Email", "Phone", "Type", "City", "State"},
	}
	for _, c := range customers {
		data.Rows = append(data.Rows, map[string]string{
			"Name":  c.Name,
			"Email": c.Email,
			"Phone": c.Phone,
			"Type":  c.Type,
			"City":  c.City,
			"State": c.State,
		})
	}
	return s.render(data, "customers", "Customer Directory", format)
}

// SaleInvoice renders a printable invoice PDF for a single sale.
func (s *ExportService) SaleInvoice(ctx context.Context, saleID string) (*ExportFile, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sale not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "SALE INVOICE", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Invoice for sale %s", sale.ID), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	writeLine := func(label, value string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(55, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, value, "", 1, "", false, 0, "")
	}

	if sale.CustomerName != nil {
		writeLine("Customer", *sale.CustomerName)
	}
	if sale.VehicleMake != nil && sale.VehicleModel != nil {
		year := ""
		if sale.VehicleYear != nil {
			year = fmt.Sprintf("%d ", *sale.VehicleYear)
		}
		writeLine("Vehicle", fmt.Sprintf("%s%s %s", year, *sale.VehicleMake, *sale.VehicleModel))
	}
	if sale.VehicleVIN != nil {
		writeLine("VIN", *sale.VehicleVIN)
	}
	if sale.SalespersonName != nil {
		writeLine("Salesperson", *sale.SalespersonName)
	}
	writeLine("Sale date", sale.SaleDate.Format("January 2, 2006"))
	pdf.Ln(4)

	writeLine("Sale price", fmt.Sprintf("$%.2f", sale.SalePrice))
	writeLine("Trade-in value", fmt.Sprintf("-$%.2f", sale.TradeInValue))
	writeLine("Down payment", fmt.Sprintf("$%.2f", sale.DownPayment))
	writeLine("Tax", fmt.Sprintf("$%.2f", sale.TaxAmount))
	if sale.FinancingAmount > 0 {
		writeLine("Financed amount", fmt.Sprintf("$%.2f", sale.FinancingAmount))
		writeLine("Monthly payment", fmt.Sprintf("$%.2f x %d months @ %.2f%%", sale.MonthlyPayment, sale.TermMonths, sale.InterestRate))
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(55, 9, "Total due", "T", 0, "", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("$%.2f", sale.FinalPrice), "T", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render invoice")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("invoice-%s.pdf", sale.ID),
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}

func (s *ExportService) render(data export.Dataset, name, title, format string) (*ExportFile, error) {
	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: name + ".csv", ContentType: "text/csv", Content: content}, nil
	case "pdf":
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: name + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
