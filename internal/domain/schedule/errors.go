package schedule

import "errors"

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrInvalidTimeFormat  = errors.New("invalid time format, use HH:MM")
	ErrInvalidTimezone    = errors.New("unknown timezone")
)
