package models

import "time"

// Lead sources recognised by the scoring heuristic.
const (
	LeadSourceWebsite     = "website"
	LeadSourceReferral    = "referral"
	LeadSourceWalkIn      = "walk-in"
	LeadSourcePhone       = "phone"
	LeadSourceEmail       = "email"
	LeadSourceSocialMedia = "social-media"
	LeadSourceOther       = "other"
)

// Lead statuses form the sales funnel; deleted is the soft-delete terminal.
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusNegotiating = "negotiating"
	LeadStatusWon         = "won"
	LeadStatusLost        = "lost"
	LeadStatusDeleted     = "deleted"
)

// Lead is a prospective customer inquiry tracked through the sales funnel.
// AIScore is a snapshot computed once at creation and never recomputed.
type Lead struct {
	ID                string     `db:"id" json:"id"`
	CustomerID        *string    `db:"customer_id" json:"customer_id,omitempty"`
	Source            string     `db:"source" json:"source"`
	Status            string     `db:"status" json:"status"`
	InterestType      string     `db:"interest_type" json:"interest_type"`
	VehicleOfInterest string     `db:"vehicle_of_interest" json:"vehicle_of_interest"`
	BudgetMin         *float64   `db:"budget_min" json:"budget_min,omitempty"`
	BudgetMax         *float64   `db:"budget_max" json:"budget_max,omitempty"`
	TradeInVehicle    string     `db:"trade_in_vehicle" json:"trade_in_vehicle"`
	Notes             string     `db:"notes" json:"notes"`
	AssignedTo        *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	ExpectedCloseDate *time.Time `db:"expected_close_date" json:"expected_close_date,omitempty"`
	Priority          string     `db:"priority" json:"priority"`
	AIScore           int        `db:"ai_score" json:"ai_score"`
	CreatedBy         string     `db:"created_by" json:"created_by"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// LeadDetail joins assigned-user and customer display fields onto the lead.
type LeadDetail struct {
	Lead
	AssignedToName  *string `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	AssignedToEmail *string `db:"assigned_to_email" json:"assigned_to_email,omitempty"`
	CustomerName    *string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail   *string `db:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone   *string `db:"customer_phone" json:"customer_phone,omitempty"`
}

// LeadFilter encapsulates allowed search parameters for listing leads.
type LeadFilter struct {
	Status     string
	Source     string
	AssignedTo string
	Search     string
	Page       int
	PageSize   int
}
