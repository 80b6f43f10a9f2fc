package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded for every tracked mutation.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionLogin  = "LOGIN"
)

// AuditLog is an append-only record of who did what to which entity.
// Rows are inserted inside the same transaction as the mutation they
// describe and are never updated or deleted afterwards.
type AuditLog struct {
	ID           string          `db:"id" json:"id"`
	UserID       *string         `db:"user_id" json:"user_id,omitempty"`
	Action       string          `db:"action" json:"action"`
	ResourceType string          `db:"resource_type" json:"resource_type"`
	ResourceID   *string         `db:"resource_id" json:"resource_id,omitempty"`
	Details      json.RawMessage `db:"details" json:"details,omitempty"`
	IPAddress    string          `db:"ip_address" json:"ip_address"`
	UserAgent    string          `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// AuditLogDetail joins the acting user's display fields onto the entry.
type AuditLogDetail struct {
	AuditLog
	UserName  *string `db:"user_name" json:"user_name,omitempty"`
	UserEmail *string `db:"user_email" json:"user_email,omitempty"`
}

// AuditLogFilter narrows audit trail reads.
type AuditLogFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Page         int
	PageSize     int
}
