package models

import (
	"encoding/json"
	"time"
)

// Customer is a dealership client, individual or business.
type Customer struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Email          string          `db:"email" json:"email"`
	Phone          string          `db:"phone" json:"phone"`
	Type           string          `db:"type" json:"type"`
	Company        string          `db:"company" json:"company"`
	Address        string          `db:"address" json:"address"`
	City           string          `db:"city" json:"city"`
	State          string          `db:"state" json:"state"`
	ZipCode        string          `db:"zip_code" json:"zip_code"`
	DateOfBirth    *time.Time      `db:"date_of_birth" json:"date_of_birth,omitempty"`
	DriversLicense string          `db:"drivers_license" json:"drivers_license"`
	Notes          string          `db:"notes" json:"notes"`
	Preferences    json.RawMessage `db:"preferences" json:"preferences,omitempty"`
	Tags           json.RawMessage `db:"tags" json:"tags,omitempty"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CustomerDetail carries relationship aggregates alongside the customer row.
type CustomerDetail struct {
	Customer
	TotalPurchases     int     `db:"total_purchases" json:"total_purchases"`
	TotalServiceVisits int     `db:"total_service_visits" json:"total_service_visits"`
	TotalSpent         float64 `db:"total_spent" json:"total_spent"`
}

// CustomerFilter encapsulates allowed search parameters for listing customers.
type CustomerFilter struct {
	Type     string
	Search   string
	Page     int
	PageSize int
}
