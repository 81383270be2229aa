package service

import "errors"

var (
	// ErrInvalidID is returned when a project or file id is not a uuid.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidTitle is returned when a project is renamed to a blank title.
	ErrInvalidTitle = errors.New("project title must not be empty")
	// ErrChartDataCorrupted is returned when stored chart data cannot be decoded.
	ErrChartDataCorrupted = errors.New("project chart data is corrupted")
	// ErrBidirectionalDisabled is returned when a chart click edits readings
	// while bidirectional editing is off.
	ErrBidirectionalDisabled = errors.New("bidirectional editing is disabled")
)
