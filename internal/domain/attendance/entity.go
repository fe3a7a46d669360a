package attendance

import (
	"strings"
	"time"
)

// Status is the canonical state of an employee's work session.
type Status string

const (
	StatusClockedOut  Status = "Clocked Out"
	StatusWorking     Status = "Working"
	StatusWorkingIdle Status = "Working Idle" // display overlay only, never persisted
	StatusStandby     Status = "Standby"
)

// DefaultBreakTypes is used when a department does not configure its own set.
var DefaultBreakTypes = []string{"Lunch", "Small Break", "Pee Break 1", "Pee Break 2"}

// IsBreak reports whether s is one of the department break types.
func (s Status) IsBreak() bool {
	switch s {
	case "", StatusClockedOut, StatusWorking, StatusWorkingIdle, StatusStandby:
		return false
	}
	return true
}

// IsWorking treats the idle overlay as Working.
func (s Status) IsWorking() bool {
	return s == StatusWorking || s == StatusWorkingIdle
}

type EventType string

const (
	EventClockIn       EventType = "clockIn"
	EventClockOut      EventType = "clockOut"
	EventStartStandby  EventType = "start_standby"
	EventEndStandby    EventType = "end_standby"
	EventResumeWorking EventType = "resumeWorking"
)

// BreakStartEvent returns the event type recorded when a break begins,
// e.g. "Small Break" -> "start_SmallBreak".
func BreakStartEvent(breakType string) EventType {
	return EventType("start_" + strings.ReplaceAll(breakType, " ", ""))
}

// BreakEndEvent returns the event type recorded when a break ends.
func BreakEndEvent(breakType string) EventType {
	return EventType("end_" + strings.ReplaceAll(breakType, " ", ""))
}

// AttendanceEvent is an immutable entry of the event log.
// Seq is assigned by the store and is strictly increasing.
type AttendanceEvent struct {
	ID         string
	Seq        int64
	EmployeeID string
	SessionID  string
	EventType  EventType
	Status     Status // status the event led to
	Timestamp  time.Time
	Details    *EventDetails
}

// EventDetails holds the extra fields of clockIn and clockOut events.
type EventDetails struct {
	Late   *LateStatus
	Totals *SessionTotals
}

// StatusProjection is the current status of a clocked-in employee.
// Absence of a projection means the employee is clocked out.
type StatusProjection struct {
	EmployeeID     string
	SessionID      string
	Status         Status
	StateStartTime time.Time
	ClockInTime    time.Time
	LastEventSeq   int64
	UpdatedAt      time.Time
}

// LateStatus is computed once per session at clock-in.
type LateStatus struct {
	IsLate      bool
	LateMinutes int
	Date        string // YYYY-MM-DD in the department timezone
}

// ForDate drops a late status recorded on another calendar day.
func (l LateStatus) ForDate(today string) LateStatus {
	if l.Date != today {
		return LateStatus{}
	}
	return l
}

// Session is the server-side record of one clock-in to clock-out span.
type Session struct {
	ID               string
	EmployeeID       string
	DepartmentID     *string
	ClockInTime      time.Time
	AccumulatedBreak time.Duration
	Late             LateStatus
	IsOvertime       bool
	OvertimeMinutes  int
	ClosedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SessionTotals is the snapshot taken at clock-out.
type SessionTotals struct {
	ClockInTime      time.Time
	ClockOutTime     time.Time
	TotalClockTime   time.Duration
	AccumulatedBreak time.Duration
	IsLate           bool
	LateMinutes      int
	IsOvertime       bool
	OvertimeMinutes  int
	Department       *string
}

// AttendanceSummary is written once per clock-out for reporting.
type AttendanceSummary struct {
	ID         string
	EmployeeID string
	SessionID  string
	Date       time.Time
	SessionTotals
	CreatedAt time.Time
}

// Snapshot is the freshest known state of an employee together with the
// sequence it reflects. Projection is nil when the employee is clocked out.
type Snapshot struct {
	Projection *StatusProjection
	Seq        int64
}

func (s Snapshot) Status() Status {
	if s.Projection == nil {
		return StatusClockedOut
	}
	return s.Projection.Status
}
