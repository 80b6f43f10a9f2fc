package models

import (
	"encoding/json"
	"time"
)

// VehicleStatus tracks a unit through the inventory lifecycle. Transitions
// to sold and back to available are driven by sale creation and deletion.
type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "available"
	VehicleStatusReserved  VehicleStatus = "reserved"
	VehicleStatusSold      VehicleStatus = "sold"
	VehicleStatusDelivered VehicleStatus = "delivered"
)

// Vehicle is a unit of dealership inventory, new or used.
type Vehicle struct {
	ID             string          `db:"id" json:"id"`
	VIN            string          `db:"vin" json:"vin"`
	StockNumber    string          `db:"stock_number" json:"stock_number"`
	Type           string          `db:"type" json:"type"`
	Status         VehicleStatus   `db:"status" json:"status"`
	Make           string          `db:"make" json:"make"`
	Model          string          `db:"model" json:"model"`
	Year           int             `db:"year" json:"year"`
	Trim           string          `db:"trim" json:"trim"`
	ExteriorColor  string          `db:"exterior_color" json:"exterior_color"`
	InteriorColor  string          `db:"interior_color" json:"interior_color"`
	Mileage        int             `db:"mileage" json:"mileage"`
	Transmission   string          `db:"transmission" json:"transmission"`
	FuelType       string          `db:"fuel_type" json:"fuel_type"`
	Engine         string          `db:"engine" json:"engine"`
	Drivetrain     string          `db:"drivetrain" json:"drivetrain"`
	BodyStyle      string          `db:"body_style" json:"body_style"`
	Price          float64         `db:"price" json:"price"`
	Cost           float64         `db:"cost" json:"cost"`
	MSRP           float64         `db:"msrp" json:"msrp"`
	CustomerID     *string         `db:"customer_id" json:"customer_id,omitempty"`
	Features       json.RawMessage `db:"features" json:"features,omitempty"`
	ConditionNotes string          `db:"condition_notes" json:"condition_notes"`
	Location       string          `db:"location" json:"location"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// VehicleDetail joins owner display fields onto the vehicle.
type VehicleDetail struct {
	Vehicle
	CustomerName  *string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail *string `db:"customer_email" json:"customer_email,omitempty"`
}

// VehicleFilter encapsulates allowed search parameters for listing vehicles.
type VehicleFilter struct {
	Status   string
	Type     string
	Make     string
	Search   string
	PriceMin *float64
	PriceMax *float64
	Page     int
	PageSize int
}
