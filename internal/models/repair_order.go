package models

import (
	"encoding/json"
	"time"
)

// Repair order statuses.
const (
	RepairOrderStatusOpen       = "open"
	RepairOrderStatusInProgress = "in_progress"
	RepairOrderStatusOnHold     = "on_hold"
	RepairOrderStatusCompleted  = "completed"
	RepairOrderStatusClosed     = "closed"
)

// RepairOrder is a work order for vehicle service or repair. RO numbers
// follow RO-{year}-{6-digit sequence}, generated when not supplied.
type RepairOrder struct {
	ID                   string          `db:"id" json:"id"`
	ServiceAppointmentID *string         `db:"service_appointment_id" json:"service_appointment_id,omitempty"`
	CustomerID           string          `db:"customer_id" json:"customer_id"`
	VehicleID            string          `db:"vehicle_id" json:"vehicle_id"`
	TechnicianID         *string         `db:"technician_id" json:"technician_id,omitempty"`
	RONumber             string          `db:"ro_number" json:"ro_number"`
	Description          string          `db:"description" json:"description"`
	Services             json.RawMessage `db:"services" json:"services,omitempty"`
	Parts                json.RawMessage `db:"parts" json:"parts,omitempty"`
	LaborHours           float64         `db:"labor_hours" json:"labor_hours"`
	LaborRate            float64         `db:"labor_rate" json:"labor_rate"`
	PartsCost            float64         `db:"parts_cost" json:"parts_cost"`
	LaborCost            float64         `db:"labor_cost" json:"labor_cost"`
	TaxAmount            float64         `db:"tax_amount" json:"tax_amount"`
	TotalCost            float64         `db:"total_cost" json:"total_cost"`
	Status               string          `db:"status" json:"status"`
	Priority             string          `db:"priority" json:"priority"`
	Notes                string          `db:"notes" json:"notes"`
	CompletedDate        *time.Time      `db:"completed_date" json:"completed_date,omitempty"`
	CreatedBy            string          `db:"created_by" json:"created_by"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// RepairOrderDetail joins customer, vehicle and technician fields.
type RepairOrderDetail struct {
	RepairOrder
	CustomerName   *string `db:"customer_name" json:"customer_name,omitempty"`
	VehicleVIN     *string `db:"vehicle_vin" json:"vehicle_vin,omitempty"`
	VehicleMake    *string `db:"vehicle_make" json:"vehicle_make,omitempty"`
	VehicleModel   *string `db:"vehicle_model" json:"vehicle_model,omitempty"`
	TechnicianName *string `db:"technician_name" json:"technician_name,omitempty"`
}

// RepairOrderFilter narrows repair order listings.
type RepairOrderFilter struct {
	Status       string
	CustomerID   string
	VehicleID    string
	TechnicianID string
	Search       string
	Page         int
	PageSize     int
}
