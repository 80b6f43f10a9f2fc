package repository

import (
	"fmt"
	"strings"
)

// buildSetClause maps requested column changes onto parameter placeholders,
// honoring a fixed allowlist. Columns absent from the allowlist are silently
// dropped; user input never reaches the SQL text as an identifier. The
// returned clause starts numbering at startIndex.
func buildSetClause(allowed []string, changes map[string]interface{}, startIndex int) (string, []interface{}) {
	assignments := make([]string, 0, len(allowed))
	args := make([]interface{}, 0, len(allowed))
	next := startIndex
	for _, column := range allowed {
		value, ok := changes[column]
		if !ok {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, next))
		args = append(args, value)
		next++
	}
	return strings.Join(assignments, ", "), args
}
