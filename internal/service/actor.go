package service

import (
	"encoding/json"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

// Actor identifies who performs a mutation, for the audit trail.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// newAuditEntry prepares an audit row for the given action. The repository
// fills ResourceID after the write and inserts the row in the same
// transaction as the mutation it records.
func newAuditEntry(actor Actor, action, resourceType string, details interface{}) *models.AuditLog {
	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
	}
	if actor.UserID != "" {
		id := actor.UserID
		entry.UserID = &id
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = raw
		}
	}
	return entry
}

// updateDetails packages before and after snapshots for UPDATE entries.
func updateDetails(oldData, newData interface{}) map[string]interface{} {
	return map[string]interface{}{
		"old_data": oldData,
		"new_data": newData,
	}
}
