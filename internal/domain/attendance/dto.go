package attendance

import (
	"strings"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// ========================================
// ACTION DTOs
// ========================================

// ActionRequest carries the acting employee for clock-in, clock-out,
// standby toggle and resume.
type ActionRequest struct {
	EmployeeID string `json:"-"`
}

func (r *ActionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BreakRequest struct {
	EmployeeID string `json:"-"`
	BreakType  string `json:"break_type"`
}

func (r *BreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	r.BreakType = strings.TrimSpace(r.BreakType)
	if r.BreakType == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type is required",
		})
	} else if !Status(r.BreakType).IsBreak() {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type must not be a work status",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// STATUS DTOs
// ========================================

type BreakOption struct {
	BreakType string `json:"break_type"`
	Visible   bool   `json:"visible"`
	Active    bool   `json:"active"`
	Disabled  bool   `json:"disabled"`
}

type StatusResponse struct {
	EmployeeID         string        `json:"employee_id"`
	SessionID          *string       `json:"session_id,omitempty"`
	Status             string        `json:"status"`
	DisplayStatus      string        `json:"display_status"`
	StateStartTime     *string       `json:"state_start_time,omitempty"`
	ClockInTime        *string       `json:"clock_in_time,omitempty"`
	ClockTimer         string        `json:"clock_timer"`
	BreakTimer         string        `json:"break_timer"`
	AccumulatedBreakMs int64         `json:"accumulated_break_ms"`
	IsLate             bool          `json:"is_late"`
	LateMinutes        int           `json:"late_minutes"`
	IsOvertime         bool          `json:"is_overtime"`
	OvertimeMinutes    int           `json:"overtime_minutes"`
	WithinSchedule     bool          `json:"within_schedule"`
	Seq                int64         `json:"seq"`
	BreakOptions       []BreakOption `json:"break_options"`
}

type EventResponse struct {
	ID         string          `json:"id"`
	Seq        int64           `json:"seq"`
	EmployeeID string          `json:"employee_id"`
	SessionID  string          `json:"session_id"`
	EventType  string          `json:"event_type"`
	Status     string          `json:"status"`
	Timestamp  string          `json:"timestamp"`
	Details    *DetailsPayload `json:"details,omitempty"`
}

// DetailsPayload is the JSON form of EventDetails.
type DetailsPayload struct {
	IsLate             *bool   `json:"is_late,omitempty"`
	LateMinutes        *int    `json:"late_minutes,omitempty"`
	ClockInTime        *string `json:"clock_in_time,omitempty"`
	ClockOutTime       *string `json:"clock_out_time,omitempty"`
	TotalClockTimeMs   *int64  `json:"total_clock_time_ms,omitempty"`
	AccumulatedBreakMs *int64  `json:"accumulated_break_ms,omitempty"`
	IsOvertime         *bool   `json:"is_overtime,omitempty"`
	OvertimeMinutes    *int    `json:"overtime_minutes,omitempty"`
	Department         *string `json:"department,omitempty"`
}

type SummaryResponse struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	SessionID          string  `json:"session_id"`
	Date               string  `json:"date"`
	ClockInTime        string  `json:"clock_in_time"`
	ClockOutTime       string  `json:"clock_out_time"`
	TotalClockTimeMs   int64   `json:"total_clock_time_ms"`
	AccumulatedBreakMs int64   `json:"accumulated_break_ms"`
	WorkedTimeMs       int64   `json:"worked_time_ms"`
	IsLate             bool    `json:"is_late"`
	LateMinutes        int     `json:"late_minutes"`
	IsOvertime         bool    `json:"is_overtime"`
	OvertimeMinutes    int     `json:"overtime_minutes"`
	Department         *string `json:"department,omitempty"`
}

// TransitionResponse is returned by every state-changing action. Applied is
// false when the action was a no-op for the current status.
type TransitionResponse struct {
	Applied bool             `json:"applied"`
	Status  StatusResponse   `json:"status"`
	Event   *EventResponse   `json:"event,omitempty"`
	Summary *SummaryResponse `json:"summary,omitempty"`
}

// ========================================
// LIST DTOs
// ========================================

type HistoryFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	SessionID *string `json:"session_id,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *HistoryFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = validatePage(errs, &f.Page, &f.Limit)
	errs = validateRange(errs, f.StartDate, f.EndDate)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SummaryFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = validatePage(errs, &f.Page, &f.Limit)
	errs = validateRange(errs, f.StartDate, f.EndDate)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validatePage(errs validator.ValidationErrors, page, limit *int) validator.ValidationErrors {
	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = 1 // Default page
	}

	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = 20 // Default limit
	}
	if *limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs
}

func validateRange(errs validator.ValidationErrors, start, end *string) validator.ValidationErrors {
	var from, to validator.Date
	var okFrom, okTo bool

	if start != nil && *start != "" {
		t, valid := validator.IsValidDate(*start)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
		from, okFrom = validator.Date(t), valid
	}

	if end != nil && *end != "" {
		t, valid := validator.IsValidDate(*end)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
		to, okTo = validator.Date(t), valid
	}

	if okFrom && okTo && to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	return errs
}

type ListEventResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Events     []EventResponse `json:"events"`
}

type ListSummaryResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Summaries  []SummaryResponse `json:"summaries"`
}
