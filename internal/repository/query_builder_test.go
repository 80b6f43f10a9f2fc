package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSetClause(t *testing.T) {
	allowed := []string{"name", "status", "price"}
	changes := map[string]interface{}{
		"name":  "new name",
		"price": 100.0,
	}

	clause, args := buildSetClause(allowed, changes, 1)
	assert.Equal(t, "name = $1, price = $2", clause)
	assert.Equal(t, []interface{}{"new name", 100.0}, args)
}

func TestBuildSetClauseDropsUnknownColumns(t *testing.T) {
	allowed := []string{"status"}
	changes := map[string]interface{}{
		"status":        "sold",
		"vin":           "tamper",
		"id":            "tamper",
		"created_by":    "tamper",
		"unknown_field": 42,
	}

	clause, args := buildSetClause(allowed, changes, 1)
	assert.Equal(t, "status = $1", clause)
	assert.Equal(t, []interface{}{"sold"}, args)
}

func TestBuildSetClauseStartIndex(t *testing.T) {
	clause, args := buildSetClause([]string{"status"}, map[string]interface{}{"status": "open"}, 5)
	assert.Equal(t, "status = $5", clause)
	assert.Len(t, args, 1)
}

func TestBuildSetClauseEmptyChanges(t *testing.T) {
	clause, args := buildSetClause([]string{"status"}, map[string]interface{}{"other": 1}, 1)
	assert.Empty(t, clause)
	assert.Empty(t, args)
}
