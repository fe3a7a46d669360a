package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	HandleActionError(w, err, "")
}

// HandleActionError is HandleError with a "Failed to <action>" message for
// errors that are not mapped to a client error.
func HandleActionError(w http.ResponseWriter, err error, action string) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Reference data errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, schedule.ErrDepartmentNotFound):
		NotFound(w, "Department not found")

	// Attendance errors
	case errors.Is(err, attendance.ErrUnknownBreakType):
		Unprocessable(w, "Break type is not configured for this department")
	case errors.Is(err, attendance.ErrSessionNotFound):
		NotFound(w, "Attendance session not found")

	// Signal errors
	case errors.Is(err, signal.ErrSignalNotFound):
		NotFound(w, "Signal not found")

	default:
		slog.Error("Request failed", "action", action, "error", err)
		if action == "" {
			InternalServerError(w, "An unexpected error occurred")
			return
		}
		InternalServerError(w, "Failed to "+action)
	}
}
