package docsync

import "errors"

// User-facing precondition failures.
var (
	ErrCursorOutsideTable = errors.New("Place the cursor inside a table to insert a chart.")
	ErrInvalidTableSize   = errors.New("Please enter valid row and column numbers.")
	ErrTableNotFound      = errors.New("The selected table no longer exists.")
	ErrUnknownImportMode  = errors.New("Unknown import mode.")
)
