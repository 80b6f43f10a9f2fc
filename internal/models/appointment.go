package models

import "time"

// Service appointment statuses.
const (
	AppointmentStatusScheduled  = "scheduled"
	AppointmentStatusInProgress = "in_progress"
	AppointmentStatusCompleted  = "completed"
	AppointmentStatusCancelled  = "cancelled"
	AppointmentStatusNoShow     = "no_show"
)

// ServiceAppointment books a vehicle into the service department.
type ServiceAppointment struct {
	ID                string     `db:"id" json:"id"`
	CustomerID        string     `db:"customer_id" json:"customer_id"`
	VehicleID         *string    `db:"vehicle_id" json:"vehicle_id,omitempty"`
	TechnicianID      *string    `db:"technician_id" json:"technician_id,omitempty"`
	ScheduledDate     time.Time  `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime     string     `db:"scheduled_time" json:"scheduled_time"`
	ServiceType       string     `db:"service_type" json:"service_type"`
	Description       string     `db:"description" json:"description"`
	EstimatedDuration int        `db:"estimated_duration" json:"estimated_duration"`
	EstimatedCost     float64    `db:"estimated_cost" json:"estimated_cost"`
	ActualStartTime   *time.Time `db:"actual_start_time" json:"actual_start_time,omitempty"`
	ActualEndTime     *time.Time `db:"actual_end_time" json:"actual_end_time,omitempty"`
	ActualCost        *float64   `db:"actual_cost" json:"actual_cost,omitempty"`
	Status            string     `db:"status" json:"status"`
	Priority          string     `db:"priority" json:"priority"`
	Notes             string     `db:"notes" json:"notes"`
	CreatedBy         string     `db:"created_by" json:"created_by"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ServiceAppointmentDetail joins customer, vehicle and technician fields.
type ServiceAppointmentDetail struct {
	ServiceAppointment
	CustomerName   *string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone  *string `db:"customer_phone" json:"customer_phone,omitempty"`
	VehicleVIN     *string `db:"vehicle_vin" json:"vehicle_vin,omitempty"`
	VehicleMake    *string `db:"vehicle_make" json:"vehicle_make,omitempty"`
	VehicleModel   *string `db:"vehicle_model" json:"vehicle_model,omitempty"`
	TechnicianName *string `db:"technician_name" json:"technician_name,omitempty"`
}

// ServiceAppointmentFilter narrows appointment listings.
type ServiceAppointmentFilter struct {
	Status       string
	CustomerID   string
	TechnicianID string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}
