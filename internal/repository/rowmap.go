package repository

import (
	"database/sql"
	"time"

	"github.com/supplylens/supplylens/internal/domain"
)

// scanRows converts a result set into generic rows: every column
// becomes a key, NULL becomes nil, and driver-specific value shapes are
// normalized at this single boundary. Row order is preserved.
func scanRows(rows *sql.Rows) ([]domain.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(domain.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeValue maps driver values onto the JSON-friendly shapes the
// API contract expects: byte slices to strings, timestamps to
// YYYY-MM-DD strings (back-compat with schema versions that stored
// literal date strings). Numeric widths pass through; DECIMAL columns
// arrive as float64 from both drivers with REAL storage.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return v
	}
}
