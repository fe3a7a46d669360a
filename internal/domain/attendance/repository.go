package attendance

import (
	"context"
	"time"
)

// EventRepository is the append-only attendance event log.
type EventRepository interface {
	// Append stores the event and returns it with ID and Seq assigned
	Append(ctx context.Context, event AttendanceEvent) (AttendanceEvent, error)

	// ListByEmployee returns events newest first
	ListByEmployee(ctx context.Context, employeeID string, filter HistoryFilter) ([]AttendanceEvent, int64, error)

	// ListBySession returns events of one session in seq order
	ListBySession(ctx context.Context, sessionID string) ([]AttendanceEvent, error)

	// LatestSeq returns the seq of the employee's newest event, 0 if none
	LatestSeq(ctx context.Context, employeeID string) (int64, error)
}

// StatusRepository holds one projection per clocked-in employee.
// Conditional writes return ErrStaleProjection when the stored projection is
// not the expected one.
type StatusRepository interface {
	// Get returns nil without error when the employee is clocked out
	Get(ctx context.Context, employeeID string) (*StatusProjection, error)
	Insert(ctx context.Context, projection StatusProjection) error
	Replace(ctx context.Context, projection StatusProjection, expectedSeq int64) error
	Delete(ctx context.Context, employeeID string, expectedSeq int64) error

	// Put overwrites unconditionally; used when rebuilding from the event log
	Put(ctx context.Context, projection StatusProjection) error
	ListActive(ctx context.Context) ([]StatusProjection, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	AddBreak(ctx context.Context, id string, segment time.Duration) error
	SetAccumulatedBreak(ctx context.Context, id string, total time.Duration) error

	// MarkOvertime sets the sticky overtime flag and keeps the largest minutes seen
	MarkOvertime(ctx context.Context, id string, minutes int) error
	Close(ctx context.Context, id string, at time.Time) error
}

type SummaryRepository interface {
	Create(ctx context.Context, summary AttendanceSummary) (AttendanceSummary, error)

	// ListByEmployee returns summaries by date, newest first
	ListByEmployee(ctx context.Context, employeeID string, filter SummaryFilter) ([]AttendanceSummary, int64, error)
}

// SessionCache is a read-through cache of the open session, keyed by
// employee and session. It is never the source of truth.
type SessionCache interface {
	// Get returns nil without error on a miss
	Get(ctx context.Context, employeeID, sessionID string) (*Session, error)
	Set(ctx context.Context, session Session) error
	Invalidate(ctx context.Context, employeeID string) error
}
