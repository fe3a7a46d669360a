package schedule

import (
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

type ScheduleRequest struct {
	ClockIn           string `json:"clock_in"`
	ClockOut          string `json:"clock_out"`
	GracePeriod       int    `json:"grace_period"`
	OvertimeThreshold int    `json:"overtime_threshold"`
}

type UpsertDepartmentRequest struct {
	ID         string           `json:"-"`
	Name       string           `json:"name"`
	Timezone   string           `json:"timezone"`
	Schedule   *ScheduleRequest `json:"schedule,omitempty"`
	BreakTypes []string         `json:"break_types"`
}

func (r *UpsertDepartmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if r.Timezone != "" {
		if !validator.IsValidTimezone(r.Timezone) {
			errs = append(errs, validator.ValidationError{
				Field:   "timezone",
				Message: "timezone must be a valid IANA timezone",
			})
		}
	}

	if r.Schedule != nil {
		if !validator.IsValidClock(r.Schedule.ClockIn) {
			errs = append(errs, validator.ValidationError{
				Field:   "schedule.clock_in",
				Message: "clock_in must be in HH:MM format",
			})
		}
		if !validator.IsValidClock(r.Schedule.ClockOut) {
			errs = append(errs, validator.ValidationError{
				Field:   "schedule.clock_out",
				Message: "clock_out must be in HH:MM format",
			})
		}
		if r.Schedule.GracePeriod < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "schedule.grace_period",
				Message: "grace_period must not be negative",
			})
		}
		if r.Schedule.OvertimeThreshold < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "schedule.overtime_threshold",
				Message: "overtime_threshold must not be negative",
			})
		}
	}

	seen := make(map[string]struct{}, len(r.BreakTypes))
	for _, b := range r.BreakTypes {
		if validator.IsEmpty(b) {
			errs = append(errs, validator.ValidationError{
				Field:   "break_types",
				Message: "break_types must not contain empty names",
			})
			break
		}
		if validator.IsInSlice(b, reservedStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "break_types",
				Message: b + " is a reserved status name",
			})
			break
		}
		if _, dup := seen[b]; dup {
			errs = append(errs, validator.ValidationError{
				Field:   "break_types",
				Message: "break_types must be unique",
			})
			break
		}
		seen[b] = struct{}{}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

var reservedStatuses = []string{
	string(attendance.StatusClockedOut),
	string(attendance.StatusWorking),
	string(attendance.StatusWorkingIdle),
	string(attendance.StatusStandby),
}

type ScheduleResponse struct {
	ClockIn           string `json:"clock_in"`
	ClockOut          string `json:"clock_out"`
	GracePeriod       int    `json:"grace_period"`
	OvertimeThreshold int    `json:"overtime_threshold"`
}

type DepartmentResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Timezone   string            `json:"timezone"`
	Schedule   *ScheduleResponse `json:"schedule,omitempty"`
	BreakTypes []string          `json:"break_types"`
	UpdatedAt  string            `json:"updated_at"`
}
