package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	resolver "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
)

// settle closes the books of a session at clock-out: the open break segment
// is flushed and a Working employee gets a last overtime check.
func (a *AttendanceServiceImpl) settle(ctx context.Context, s subject, current attendance.StatusProjection, session attendance.Session, now time.Time) (attendance.SessionTotals, error) {
	accumulated := session.AccumulatedBreak
	if current.Status.IsBreak() {
		seg := segment(current, now)
		if err := a.sessions.AddBreak(ctx, session.ID, seg); err != nil {
			return attendance.SessionTotals{}, fmt.Errorf("failed to add break segment: %w", err)
		}
		accumulated += seg
	}

	isOvertime, overtimeMinutes := session.IsOvertime, session.OvertimeMinutes
	if current.Status.IsWorking() {
		if overtime, minutes := resolver.Overtime(now, s.schedule(), s.loc); overtime {
			if err := a.sessions.MarkOvertime(ctx, session.ID, minutes); err != nil {
				return attendance.SessionTotals{}, fmt.Errorf("failed to mark overtime: %w", err)
			}
			isOvertime = true
			overtimeMinutes = max(overtimeMinutes, minutes)
		}
	}

	clockIn := session.ClockInTime
	if clockIn.IsZero() {
		clockIn = current.ClockInTime
	}

	return attendance.SessionTotals{
		ClockInTime:      clockIn,
		ClockOutTime:     now,
		TotalClockTime:   now.Sub(clockIn),
		AccumulatedBreak: accumulated,
		IsLate:           session.Late.IsLate,
		LateMinutes:      session.Late.LateMinutes,
		IsOvertime:       isOvertime,
		OvertimeMinutes:  overtimeMinutes,
		Department:       session.DepartmentID,
	}, nil
}

// newSummary dates the summary by the clock-out day in the department
// timezone, stored as midnight UTC of that day.
func newSummary(employeeID, sessionID string, totals attendance.SessionTotals, loc *time.Location, now time.Time) attendance.AttendanceSummary {
	y, m, d := totals.ClockOutTime.In(loc).Date()
	return attendance.AttendanceSummary{
		EmployeeID:    employeeID,
		SessionID:     sessionID,
		Date:          time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		SessionTotals: totals,
		CreatedAt:     now,
	}
}
