package chart

import "errors"

// User-facing precondition failures of table comparison.
var (
	ErrTooFewTables     = errors.New("Select at least 2 tables to compare.")
	ErrNoComparableData = errors.New("No valid numerical data could be merged from these tables.")
)
