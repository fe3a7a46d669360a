package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	resolver "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
)

// view renders the status of an employee at now. projection is nil for a
// clocked-out employee.
func (a *AttendanceServiceImpl) view(ctx context.Context, s subject, projection *attendance.StatusProjection, seq int64, now time.Time) (attendance.StatusResponse, error) {
	status := attendance.StatusClockedOut
	resp := attendance.StatusResponse{
		EmployeeID:     s.employee.ID,
		ClockTimer:     formatTimer(0),
		BreakTimer:     formatTimer(0),
		WithinSchedule: resolver.IsWithinSchedule(now, s.schedule(), s.loc),
		Seq:            seq,
	}

	if projection != nil {
		status = projection.Status

		session, err := a.loadSession(ctx, s.employee.ID, projection.SessionID)
		if err != nil {
			return attendance.StatusResponse{}, err
		}

		sessionID := projection.SessionID
		stateStart := projection.StateStartTime.Format(time.RFC3339)
		clockIn := projection.ClockInTime.Format(time.RFC3339)
		resp.SessionID = &sessionID
		resp.StateStartTime = &stateStart
		resp.ClockInTime = &clockIn

		resp.ClockTimer = formatTimer(now.Sub(projection.ClockInTime))
		if status.IsBreak() {
			resp.BreakTimer = formatTimer(now.Sub(projection.StateStartTime))
		}

		resp.AccumulatedBreakMs = session.AccumulatedBreak.Milliseconds()

		// a late mark from an earlier day is not shown
		late := session.Late.ForDate(resolver.DateString(now, s.loc))
		resp.IsLate = late.IsLate
		resp.LateMinutes = late.LateMinutes
		resp.IsOvertime = session.IsOvertime
		resp.OvertimeMinutes = session.OvertimeMinutes
	}

	resp.Status = string(status)
	resp.DisplayStatus = string(status)
	resp.BreakOptions = breakOptions(status, s.breakTypes())
	return resp, nil
}

// breakOptions decides how each break button is shown for a status.
func breakOptions(status attendance.Status, breakTypes []string) []attendance.BreakOption {
	options := make([]attendance.BreakOption, 0, len(breakTypes))
	for _, bt := range breakTypes {
		opt := attendance.BreakOption{BreakType: bt}
		switch {
		case status == attendance.StatusClockedOut || status == attendance.StatusStandby:
			opt.Disabled = true
		case status.IsWorking():
			opt.Visible = true
		default:
			opt.Visible = true
			opt.Active = status == attendance.Status(bt)
			opt.Disabled = !opt.Active
		}
		options = append(options, opt)
	}
	return options
}

// formatTimer renders a duration as HH:MM:SS; hours are not wrapped.
func formatTimer(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func pageInfo(total int64, page, limit int) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	showing := fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}
	return totalPages, showing
}

func toEventResponse(e attendance.AttendanceEvent) attendance.EventResponse {
	resp := attendance.EventResponse{
		ID:         e.ID,
		Seq:        e.Seq,
		EmployeeID: e.EmployeeID,
		SessionID:  e.SessionID,
		EventType:  string(e.EventType),
		Status:     string(e.Status),
		Timestamp:  e.Timestamp.Format(time.RFC3339),
	}
	if e.Details == nil {
		return resp
	}

	details := &attendance.DetailsPayload{}
	if l := e.Details.Late; l != nil {
		details.IsLate = &l.IsLate
		details.LateMinutes = &l.LateMinutes
	}
	if t := e.Details.Totals; t != nil {
		clockIn := t.ClockInTime.Format(time.RFC3339)
		clockOut := t.ClockOutTime.Format(time.RFC3339)
		total := t.TotalClockTime.Milliseconds()
		accumulated := t.AccumulatedBreak.Milliseconds()
		details.ClockInTime = &clockIn
		details.ClockOutTime = &clockOut
		details.TotalClockTimeMs = &total
		details.AccumulatedBreakMs = &accumulated
		details.IsLate = &t.IsLate
		details.LateMinutes = &t.LateMinutes
		details.IsOvertime = &t.IsOvertime
		details.OvertimeMinutes = &t.OvertimeMinutes
		details.Department = t.Department
	}
	resp.Details = details
	return resp
}

func toSummaryResponse(s attendance.AttendanceSummary) attendance.SummaryResponse {
	return attendance.SummaryResponse{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		SessionID:          s.SessionID,
		Date:               s.Date.Format("2006-01-02"),
		ClockInTime:        s.ClockInTime.Format(time.RFC3339),
		ClockOutTime:       s.ClockOutTime.Format(time.RFC3339),
		TotalClockTimeMs:   s.TotalClockTime.Milliseconds(),
		AccumulatedBreakMs: s.AccumulatedBreak.Milliseconds(),
		WorkedTimeMs:       (s.TotalClockTime - s.AccumulatedBreak).Milliseconds(),
		IsLate:             s.IsLate,
		LateMinutes:        s.LateMinutes,
		IsOvertime:         s.IsOvertime,
		OvertimeMinutes:    s.OvertimeMinutes,
		Department:         s.Department,
	}
}
