package attendance

import (
	"context"
)

// AttendanceService drives the per-employee status state machine
type AttendanceService interface {
	// ClockIn starts a session in Working, or Standby outside schedule hours
	ClockIn(ctx context.Context, req ActionRequest) (TransitionResponse, error)

	// ClockOut closes the session and writes its summary
	ClockOut(ctx context.Context, req ActionRequest) (TransitionResponse, error)

	// StartBreak moves a Working employee into the given break
	StartBreak(ctx context.Context, req BreakRequest) (TransitionResponse, error)

	// EndBreak returns from the named break to Working
	EndBreak(ctx context.Context, req BreakRequest) (TransitionResponse, error)

	// ToggleStandby flips between Working and Standby
	ToggleStandby(ctx context.Context, req ActionRequest) (TransitionResponse, error)

	// ResumeWorking returns to Working from any break or Standby
	ResumeWorking(ctx context.Context, req ActionRequest) (TransitionResponse, error)

	// Reconcile applies schedule-driven automatic transitions for one employee
	Reconcile(ctx context.Context, employeeID string) error

	// ReconcileAll reconciles every clocked-in employee
	ReconcileAll(ctx context.Context) error

	// Rebuild recomputes the projection of one employee from the event log
	Rebuild(ctx context.Context, employeeID string) (StatusResponse, error)

	GetStatus(ctx context.Context, employeeID string) (StatusResponse, error)
	ListStatuses(ctx context.Context) ([]StatusResponse, error)
	GetHistory(ctx context.Context, employeeID string, filter HistoryFilter) (ListEventResponse, error)
	GetSummaries(ctx context.Context, employeeID string, filter SummaryFilter) (ListSummaryResponse, error)

	// Snapshot reads the projection and the seq it reflects
	Snapshot(ctx context.Context, employeeID string) (Snapshot, error)
}
