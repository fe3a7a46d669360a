package attendance

import "errors"

// Attendance domain errors
var (
	// Transition errors
	ErrStaleProjection  = errors.New("status changed concurrently")
	ErrUnknownBreakType = errors.New("break type is not configured for this department")

	// General errors
	ErrSessionNotFound = errors.New("attendance session not found")
)
