package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// pq error class 42P01: undefined_table.
const pqUndefinedTable = "42P01"

// IsMissingRelation reports whether err means the queried table or view
// does not exist in the current schema. The structured driver code is
// the primary signal; message matching is kept as a secondary signal
// for drivers that do not expose one (SQLite reports "no such table").
//
// Only reads against optional reporting tables recover on this
// classification. Every other failure, including syntax errors and bad
// column references, propagates.
func IsMissingRelation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUndefinedTable {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such table") {
		return true
	}
	if strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist") {
		return true
	}
	return false
}
