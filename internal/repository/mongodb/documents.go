package mongodb

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

type lateDoc struct {
	IsLate      bool   `bson:"is_late"`
	LateMinutes int    `bson:"late_minutes"`
	Date        string `bson:"date"`
}

type totalsDoc struct {
	ClockInTime        time.Time `bson:"clock_in_time"`
	ClockOutTime       time.Time `bson:"clock_out_time"`
	TotalClockTimeMs   int64     `bson:"total_clock_time_ms"`
	AccumulatedBreakMs int64     `bson:"accumulated_break_ms"`
	IsLate             bool      `bson:"is_late"`
	LateMinutes        int       `bson:"late_minutes"`
	IsOvertime         bool      `bson:"is_overtime"`
	OvertimeMinutes    int       `bson:"overtime_minutes"`
	Department         *string   `bson:"department,omitempty"`
}

type detailsDoc struct {
	Late   *lateDoc   `bson:"late,omitempty"`
	Totals *totalsDoc `bson:"totals,omitempty"`
}

type eventDoc struct {
	ID         string      `bson:"_id"`
	Seq        int64       `bson:"seq"`
	EmployeeID string      `bson:"employee_id"`
	SessionID  string      `bson:"session_id"`
	EventType  string      `bson:"event_type"`
	Status     string      `bson:"status"`
	OccurredAt time.Time   `bson:"occurred_at"`
	Details    *detailsDoc `bson:"details,omitempty"`
}

type projectionDoc struct {
	EmployeeID     string    `bson:"_id"`
	SessionID      string    `bson:"session_id"`
	Status         string    `bson:"status"`
	StateStartTime time.Time `bson:"state_start_time"`
	ClockInTime    time.Time `bson:"clock_in_time"`
	LastEventSeq   int64     `bson:"last_event_seq"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

type sessionDoc struct {
	ID                 string     `bson:"_id"`
	EmployeeID         string     `bson:"employee_id"`
	DepartmentID       *string    `bson:"department_id,omitempty"`
	ClockInTime        time.Time  `bson:"clock_in_time"`
	AccumulatedBreakMs int64      `bson:"accumulated_break_ms"`
	Late               lateDoc    `bson:"late"`
	IsOvertime         bool       `bson:"is_overtime"`
	OvertimeMinutes    int        `bson:"overtime_minutes"`
	ClosedAt           *time.Time `bson:"closed_at,omitempty"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
}

type summaryDoc struct {
	ID         string    `bson:"_id"`
	EmployeeID string    `bson:"employee_id"`
	SessionID  string    `bson:"session_id"`
	Date       time.Time `bson:"date"`
	Totals     totalsDoc `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at"`
}

func toEventDoc(e attendance.AttendanceEvent) eventDoc {
	doc := eventDoc{
		ID:         e.ID,
		Seq:        e.Seq,
		EmployeeID: e.EmployeeID,
		SessionID:  e.SessionID,
		EventType:  string(e.EventType),
		Status:     string(e.Status),
		OccurredAt: e.Timestamp,
	}
	if e.Details != nil {
		doc.Details = &detailsDoc{}
		if e.Details.Late != nil {
			l := toLateDoc(*e.Details.Late)
			doc.Details.Late = &l
		}
		if e.Details.Totals != nil {
			t := toTotalsDoc(*e.Details.Totals)
			doc.Details.Totals = &t
		}
	}
	return doc
}

func (d eventDoc) toEntity() attendance.AttendanceEvent {
	e := attendance.AttendanceEvent{
		ID:         d.ID,
		Seq:        d.Seq,
		EmployeeID: d.EmployeeID,
		SessionID:  d.SessionID,
		EventType:  attendance.EventType(d.EventType),
		Status:     attendance.Status(d.Status),
		Timestamp:  d.OccurredAt,
	}
	if d.Details != nil {
		e.Details = &attendance.EventDetails{}
		if d.Details.Late != nil {
			l := d.Details.Late.toEntity()
			e.Details.Late = &l
		}
		if d.Details.Totals != nil {
			t := d.Details.Totals.toEntity()
			e.Details.Totals = &t
		}
	}
	return e
}

func toLateDoc(l attendance.LateStatus) lateDoc {
	return lateDoc{IsLate: l.IsLate, LateMinutes: l.LateMinutes, Date: l.Date}
}

func (d lateDoc) toEntity() attendance.LateStatus {
	return attendance.LateStatus{IsLate: d.IsLate, LateMinutes: d.LateMinutes, Date: d.Date}
}

func toTotalsDoc(t attendance.SessionTotals) totalsDoc {
	return totalsDoc{
		ClockInTime:        t.ClockInTime,
		ClockOutTime:       t.ClockOutTime,
		TotalClockTimeMs:   t.TotalClockTime.Milliseconds(),
		AccumulatedBreakMs: t.AccumulatedBreak.Milliseconds(),
		IsLate:             t.IsLate,
		LateMinutes:        t.LateMinutes,
		IsOvertime:         t.IsOvertime,
		OvertimeMinutes:    t.OvertimeMinutes,
		Department:         t.Department,
	}
}

func (d totalsDoc) toEntity() attendance.SessionTotals {
	return attendance.SessionTotals{
		ClockInTime:      d.ClockInTime,
		ClockOutTime:     d.ClockOutTime,
		TotalClockTime:   time.Duration(d.TotalClockTimeMs) * time.Millisecond,
		AccumulatedBreak: time.Duration(d.AccumulatedBreakMs) * time.Millisecond,
		IsLate:           d.IsLate,
		LateMinutes:      d.LateMinutes,
		IsOvertime:       d.IsOvertime,
		OvertimeMinutes:  d.OvertimeMinutes,
		Department:       d.Department,
	}
}

func toProjectionDoc(p attendance.StatusProjection) projectionDoc {
	return projectionDoc{
		EmployeeID:     p.EmployeeID,
		SessionID:      p.SessionID,
		Status:         string(p.Status),
		StateStartTime: p.StateStartTime,
		ClockInTime:    p.ClockInTime,
		LastEventSeq:   p.LastEventSeq,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d projectionDoc) toEntity() attendance.StatusProjection {
	return attendance.StatusProjection{
		EmployeeID:     d.EmployeeID,
		SessionID:      d.SessionID,
		Status:         attendance.Status(d.Status),
		StateStartTime: d.StateStartTime,
		ClockInTime:    d.ClockInTime,
		LastEventSeq:   d.LastEventSeq,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (d sessionDoc) toEntity() attendance.Session {
	return attendance.Session{
		ID:               d.ID,
		EmployeeID:       d.EmployeeID,
		DepartmentID:     d.DepartmentID,
		ClockInTime:      d.ClockInTime,
		AccumulatedBreak: time.Duration(d.AccumulatedBreakMs) * time.Millisecond,
		Late:             d.Late.toEntity(),
		IsOvertime:       d.IsOvertime,
		OvertimeMinutes:  d.OvertimeMinutes,
		ClosedAt:         d.ClosedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func (d summaryDoc) toEntity() attendance.AttendanceSummary {
	return attendance.AttendanceSummary{
		ID:            d.ID,
		EmployeeID:    d.EmployeeID,
		SessionID:     d.SessionID,
		Date:          d.Date,
		SessionTotals: d.Totals.toEntity(),
		CreatedAt:     d.CreatedAt,
	}
}
