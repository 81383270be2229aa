package doc

import "errors"

var (
	// ErrInvalidPosition is returned when a position falls outside the document.
	ErrInvalidPosition = errors.New("doc: position out of range")
	// ErrSchemaViolation is returned when content is inserted where the parent cannot hold it.
	ErrSchemaViolation = errors.New("doc: content not allowed here")
	// ErrNodeNotFound is returned when no node of the requested type is at a position.
	ErrNodeNotFound = errors.New("doc: node not found")
	// ErrMarkNotFound is returned when a mark to remove is not applied anywhere.
	ErrMarkNotFound = errors.New("doc: mark not found")
)
