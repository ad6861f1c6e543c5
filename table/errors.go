package table

import "errors"

// Errors returned by table operations - callers match with errors.Is
// and decide how to surface them, the package never recovers internally.
var (
	// ErrSchemaMismatch - a required canonical column could not be located
	ErrSchemaMismatch = errors.New("table: schema mismatch")

	// ErrEmptyInput - an operation was given a table with no rows
	ErrEmptyInput = errors.New("table: empty input")

	// ErrDateSchema - two tables expected to share a date axis do not
	ErrDateSchema = errors.New("table: date schema mismatch")

	// ErrDateParse - a date column header could not be parsed
	ErrDateParse = errors.New("table: invalid date header")

	// ErrDateNotFound - the requested date is not on the table's axis
	ErrDateNotFound = errors.New("table: date not found")
)
