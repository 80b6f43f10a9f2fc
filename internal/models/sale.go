package models

import (
	"encoding/json"
	"time"
)

// Sale statuses.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Sale records the purchase of a vehicle by a customer. Creating a sale
// marks the vehicle sold; deleting it returns the vehicle to inventory.
type Sale struct {
	ID              string          `db:"id" json:"id"`
	CustomerID      string          `db:"customer_id" json:"customer_id"`
	VehicleID       string          `db:"vehicle_id" json:"vehicle_id"`
	SalespersonID   *string         `db:"salesperson_id" json:"salesperson_id,omitempty"`
	SaleDate        time.Time       `db:"sale_date" json:"sale_date"`
	SalePrice       float64         `db:"sale_price" json:"sale_price"`
	TradeInValue    float64         `db:"trade_in_value" json:"trade_in_value"`
	DownPayment     float64         `db:"down_payment" json:"down_payment"`
	FinancingAmount float64         `db:"financing_amount" json:"financing_amount"`
	MonthlyPayment  float64         `db:"monthly_payment" json:"monthly_payment"`
	TermMonths      int             `db:"term_months" json:"term_months"`
	InterestRate    float64         `db:"interest_rate" json:"interest_rate"`
	FinanceCompany  string          `db:"finance_company" json:"finance_company"`
	TaxAmount       float64         `db:"tax_amount" json:"tax_amount"`
	Fees            json.RawMessage `db:"fees" json:"fees,omitempty"`
	FinalPrice      float64         `db:"final_price" json:"final_price"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	Status          string          `db:"status" json:"status"`
	DeliveryDate    *time.Time      `db:"delivery_date" json:"delivery_date,omitempty"`
	WarrantyInfo    json.RawMessage `db:"warranty_info" json:"warranty_info,omitempty"`
	Notes           string          `db:"notes" json:"notes"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// SaleDetail joins customer, vehicle and salesperson display fields.
type SaleDetail struct {
	Sale
	CustomerName    *string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail   *string `db:"customer_email" json:"customer_email,omitempty"`
	VehicleVIN      *string `db:"vehicle_vin" json:"vehicle_vin,omitempty"`
	VehicleMake     *string `db:"vehicle_make" json:"vehicle_make,omitempty"`
	VehicleModel    *string `db:"vehicle_model" json:"vehicle_model,omitempty"`
	VehicleYear     *int    `db:"vehicle_year" json:"vehicle_year,omitempty"`
	SalespersonName *string `db:"salesperson_name" json:"salesperson_name,omitempty"`
}

// SaleFilter encapsulates allowed search parameters for listing sales.
type SaleFilter struct {
	Status        string
	CustomerID    string
	SalespersonID string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}
