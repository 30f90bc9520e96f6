package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned for malformed request parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidYearMonth is returned when a year-month filter value is not
	// in YYYY-MM form.
	ErrInvalidYearMonth = errors.New("invalid year-month, expected YYYY-MM")
)
