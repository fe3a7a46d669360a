package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	resolver "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
	"github.com/google/uuid"
)

// StatusPublisher receives every committed transition. projection is nil
// after clock-out.
type StatusPublisher interface {
	PublishStatus(event attendance.AttendanceEvent, projection *attendance.StatusProjection)
}

// ReconcileScheduler arranges for Reconcile to run at the schedule
// boundaries of a session.
type ReconcileScheduler interface {
	Schedule(ctx context.Context, employeeID, sessionID string, boundaries []time.Time) error
	Cancel(ctx context.Context, employeeID, sessionID string, count int) error
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// boundaryCount matches the instants returned by resolver.Boundaries.
const boundaryCount = 3

type Config struct {
	// Location is used for departments without a usable timezone
	Location *time.Location
	Now      func() time.Time
}

type AttendanceServiceImpl struct {
	tx          database.Transactor
	events      attendance.EventRepository
	projections attendance.StatusRepository
	sessions    attendance.SessionRepository
	summaries   attendance.SummaryRepository
	employees   employee.EmployeeRepository
	departments schedule.DepartmentService
	cache       attendance.SessionCache
	publisher   StatusPublisher
	scheduler   ReconcileScheduler
	locks       *keyedMutex
	loc         *time.Location
	now         func() time.Time
}

// subject is the reference data a transition is evaluated against.
type subject struct {
	employee   employee.Employee
	department *schedule.Department
	loc        *time.Location
}

func (s subject) schedule() *schedule.Schedule {
	if s.department == nil {
		return nil
	}
	return s.department.Schedule
}

func (s subject) breakTypes() []string {
	if s.department == nil || len(s.department.BreakTypes) == 0 {
		return attendance.DefaultBreakTypes
	}
	return s.department.BreakTypes
}

func (s subject) hasBreakType(breakType string) bool {
	for _, b := range s.breakTypes() {
		if b == breakType {
			return true
		}
	}
	return false
}

// workStatus is where a clock-in or a return from a break lands.
func (s subject) workStatus(now time.Time) attendance.Status {
	if resolver.IsWithinSchedule(now, s.schedule(), s.loc) {
		return attendance.StatusWorking
	}
	return attendance.StatusStandby
}

type committedTransition struct {
	event      attendance.AttendanceEvent
	projection *attendance.StatusProjection
	summary    *attendance.AttendanceSummary
}

// planFunc picks the event and the next status for the current projection.
// ok is false when the action does not apply to the current status.
type planFunc func(current attendance.StatusProjection, s subject, now time.Time) (eventType attendance.EventType, next attendance.Status, ok bool)

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ActionRequest) (attendance.TransitionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TransitionResponse{}, err
	}

	unlock := a.locks.Lock(req.EmployeeID)
	defer unlock()

	s, err := a.resolve(ctx, req.EmployeeID)
	if err != nil {
		return attendance.TransitionResponse{}, err
	}

	now := a.now().UTC()
	var committed *committedTransition
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := a.projections.Get(ctx, req.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to get status projection: %w", err)
		}
		if current != nil {
			return nil
		}

		sessionID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate session id: %w", err)
		}

		isLate, lateMinutes := resolver.Lateness(now, s.schedule(), s.loc)
		late := attendance.LateStatus{
			IsLate:      isLate,
			LateMinutes: lateMinutes,
			Date:        resolver.DateString(now, s.loc),
		}
		status := s.workStatus(now)

		session := attendance.Session{
			ID:           sessionID.String(),
			EmployeeID:   req.EmployeeID,
			DepartmentID: s.employee.DepartmentID,
			ClockInTime:  now,
			Late:         late,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := a.sessions.Create(ctx, session); err != nil {
			return fmt.Errorf("failed to create attendance session: %w", err)
		}

		event, err := a.events.Append(ctx, attendance.AttendanceEvent{
			EmployeeID: req.EmployeeID,
			SessionID:  session.ID,
			EventType:  attendance.EventClockIn,
			Status:     status,
			Timestamp:  now,
			Details:    &attendance.EventDetails{Late: &late},
		})
		if err != nil {
			return fmt.Errorf("failed to append attendance event: %w", err)
		}

		projection := attendance.StatusProjection{
			EmployeeID:     req.EmployeeID,
			SessionID:      session.ID,
			Status:         status,
			StateStartTime: now,
			ClockInTime:    now,
			LastEventSeq:   event.Seq,
			UpdatedAt:      now,
		}
		if err := a.projections.Insert(ctx, projection); err != nil {
			if errors.Is(err, attendance.ErrStaleProjection) {
				return err
			}
			return fmt.Errorf("failed to insert status projection: %w", err)
		}

		committed = &committedTransition{event: event, projection: &projection}
		return nil
	})

	resp, err := a.finish(ctx, s, "clock in", committed, err, now)
	if err != nil || !resp.Applied {
		return resp, err
	}

	a.scheduleBoundaries(ctx, s, committed.event.SessionID, now)
	slog.Info("Employee clocked in",
		"employee_id", req.EmployeeID,
		"session_id", committed.event.SessionID,
		"status", committed.event.Status,
		"is_late", committed.event.Details.Late.IsLate,
		"late_minutes", committed.event.Details.Late.LateMinutes,
	)
	return resp, nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ActionRequest) (attendance.TransitionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TransitionResponse{}, err
	}

	unlock := a.locks.Lock(req.EmployeeID)
	defer unlock()

	s, err := a.resolve(ctx, req.EmployeeID)
	if err != nil {
		return attendance.TransitionResponse{}, err
	}

	now := a.now().UTC()
	var committed *committedTransition
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := a.projections.Get(ctx, req.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to get status projection: %w", err)
		}
		if current == nil {
			return nil
		}

		session, err := a.sessions.GetByID(ctx, current.SessionID)
		if err != nil {
			return fmt.Errorf("failed to get attendance session: %w", err)
		}

		totals, err := a.settle(ctx, s, *current, session, now)
		if err != nil {
			return err
		}

		event, err := a.events.Append(ctx, attendance.AttendanceEvent{
			EmployeeID: req.EmployeeID,
			SessionID:  current.SessionID,
			EventType:  attendance.EventClockOut,
			Status:     attendance.StatusClockedOut,
			Timestamp:  now,
			Details:    &attendance.EventDetails{Totals: &totals},
		})
		if err != nil {
			return fmt.Errorf("failed to append attendance event: %w", err)
		}

		if err := a.projections.Delete(ctx, req.EmployeeID, current.LastEventSeq); err != nil {
			if errors.Is(err, attendance.ErrStaleProjection) {
				return err
			}
			return fmt.Errorf("failed to delete status projection: %w", err)
		}

		if err := a.sessions.Close(ctx, current.SessionID, now); err != nil {
			return fmt.Errorf("failed to close attendance session: %w", err)
		}

		summary, err := a.summaries.Create(ctx, newSummary(req.EmployeeID, current.SessionID, totals, s.loc, now))
		if err != nil {
			return fmt.Errorf("failed to create attendance summary: %w", err)
		}

		committed = &committedTransition{event: event, summary: &summary}
		return nil
	})

	resp, err := a.finish(ctx, s, "clock out", committed, err, now)
	if err != nil || !resp.Applied {
		return resp, err
	}

	a.cancelBoundaries(ctx, req.EmployeeID, committed.event.SessionID)
	slog.Info("Employee clocked out",
		"employee_id", req.EmployeeID,
		"session_id", committed.event.SessionID,
		"total_clock_time", committed.summary.TotalClockTime.String(),
		"accumulated_break", committed.summary.AccumulatedBreak.String(),
	)
	return resp, nil
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.BreakRequest) (attendance.TransitionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TransitionResponse{}, err
	}

	check := func(s subject) error {
		if !s.hasBreakType(req.BreakType) {
			return attendance.ErrUnknownBreakType
		}
		return nil
	}

	return a.move(ctx, req.EmployeeID, "start break", check, func(current attendance.StatusProjection, s subject, now time.Time) (attendance.EventType, attendance.Status, bool) {
		if !current.Status.IsWorking() {
			return "", "", false
		}
		return attendance.BreakStartEvent(req.BreakType), attendance.Status(req.BreakType), true
	})
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context, req attendance.BreakRequest) (attendance.TransitionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TransitionResponse{}, err
	}

	return a.move(ctx, req.EmployeeID, "end break", nil, func(current attendance.StatusProjection, s subject, now time.Time) (attendance.EventType, attendance.Status, bool) {
		if current.Status != attendance.Status(req.BreakType) {
			return "", "", false
		}
		return attendance.BreakEndEvent(req.BreakType), s.workStatus(now), true
	})
}

// ToggleStandby implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ToggleStandby(ctx context.Context, req attendance.ActionRequest) (attendance.TransitionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TransitionResponse{}, err
	}

	return a.move(ctx, req.EmployeeID, "toggle standby", nil, toggleStandby)
}

func toggleStandby(current attendance.StatusProjection, s subject, now time.Time) (attendance.EventType, attendance.Status, bool) {
	switch {
	case current.Status.IsWorking():
		return attendance.EventStartStandby, attendance.StatusStandby, true
	case current.Status == attendance.StatusStandby:
		return attendance.EventEndStandby, attendance.StatusWorking, true
	}
	return "", "", false
}

// ResumeWorking implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ResumeWorking(ctx context.Context, req attendance.ActionRequest) (attendance.TransitionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TransitionResponse{}, err
	}

	return a.move(ctx, req.EmployeeID, "resume working", nil, func(current attendance.StatusProjection, s subject, now time.Time) (attendance.EventType, attendance.Status, bool) {
		if !current.Status.IsBreak() && current.Status != attendance.StatusStandby {
			return "", "", false
		}
		next := s.workStatus(now)
		if current.Status == next {
			// Standby outside schedule hours stays where it is
			return "", "", false
		}
		return attendance.EventResumeWorking, next, true
	})
}

// Reconcile implements attendance.AttendanceService. Overtime is evaluated
// before the schedule may move a Working employee to Standby.
func (a *AttendanceServiceImpl) Reconcile(ctx context.Context, employeeID string) error {
	unlock := a.locks.Lock(employeeID)
	defer unlock()

	current, err := a.projections.Get(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get status projection: %w", err)
	}
	if current == nil {
		return nil
	}

	s, err := a.resolve(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			slog.Warn("Skipping reconcile for unknown employee", "employee_id", employeeID)
			return nil
		}
		return err
	}

	now := a.now().UTC()
	if current.Status.IsWorking() {
		if overtime, minutes := resolver.Overtime(now, s.schedule(), s.loc); overtime {
			if err := a.sessions.MarkOvertime(ctx, current.SessionID, minutes); err != nil {
				return fmt.Errorf("failed to mark overtime: %w", err)
			}
			a.invalidate(ctx, employeeID)
			slog.Info("Overtime flagged", "employee_id", employeeID, "session_id", current.SessionID, "overtime_minutes", minutes)
		}
	}

	committed, err := a.transit(ctx, s, now, func(current attendance.StatusProjection, s subject, now time.Time) (attendance.EventType, attendance.Status, bool) {
		within := resolver.IsWithinSchedule(now, s.schedule(), s.loc)
		switch {
		case current.Status.IsWorking() && !within:
			return attendance.EventStartStandby, attendance.StatusStandby, true
		case current.Status == attendance.StatusStandby && within:
			return attendance.EventEndStandby, attendance.StatusWorking, true
		}
		return "", "", false
	})
	if err != nil {
		return fmt.Errorf("failed to reconcile schedule: %w", err)
	}
	if committed == nil {
		return nil
	}

	a.afterCommit(ctx, *committed)
	slog.Info("Schedule moved employee",
		"employee_id", employeeID,
		"event_type", committed.event.EventType,
		"status", committed.event.Status,
	)
	return nil
}

// ReconcileAll implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ReconcileAll(ctx context.Context) error {
	active, err := a.projections.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active projections: %w", err)
	}

	var errs []error
	for _, p := range active {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := a.Reconcile(ctx, p.EmployeeID); err != nil {
			slog.Error("Failed to reconcile employee", "employee_id", p.EmployeeID, "error", err)
			errs = append(errs, fmt.Errorf("employee %s: %w", p.EmployeeID, err))
		}
	}
	return errors.Join(errs...)
}

// Rebuild implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Rebuild(ctx context.Context, employeeID string) (attendance.StatusResponse, error) {
	unlock := a.locks.Lock(employeeID)
	defer unlock()

	s, err := a.resolve(ctx, employeeID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	var rebuilt *attendance.StatusProjection
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := a.projections.Get(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to get status projection: %w", err)
		}

		latest, _, err := a.events.ListByEmployee(ctx, employeeID, attendance.HistoryFilter{Page: 1, Limit: 1})
		if err != nil {
			return fmt.Errorf("failed to get latest attendance event: %w", err)
		}

		var folded attendance.FoldResult
		if len(latest) > 0 {
			events, err := a.events.ListBySession(ctx, latest[0].SessionID)
			if err != nil {
				return fmt.Errorf("failed to list session events: %w", err)
			}
			folded = attendance.Fold(events)
		}

		if folded.Projection == nil {
			if current == nil {
				return nil
			}
			if err := a.projections.Delete(ctx, employeeID, current.LastEventSeq); err != nil {
				return fmt.Errorf("failed to delete status projection: %w", err)
			}
			return nil
		}

		if err := a.projections.Put(ctx, *folded.Projection); err != nil {
			return fmt.Errorf("failed to put status projection: %w", err)
		}
		if err := a.sessions.SetAccumulatedBreak(ctx, folded.Projection.SessionID, folded.AccumulatedBreak); err != nil {
			return fmt.Errorf("failed to set accumulated break: %w", err)
		}
		rebuilt = folded.Projection
		return nil
	})
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to rebuild status: %w", err)
	}

	a.invalidate(ctx, employeeID)
	slog.Info("Status projection rebuilt", "employee_id", employeeID, "clocked_in", rebuilt != nil)

	seq, err := a.seqOf(ctx, employeeID, rebuilt)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	return a.view(ctx, s, rebuilt, seq, a.now().UTC())
}

// GetStatus implements attendance.AttendanceService. It holds the employee
// lock so a read-through cache fill cannot land after a transition's
// invalidation.
func (a *AttendanceServiceImpl) GetStatus(ctx context.Context, employeeID string) (attendance.StatusResponse, error) {
	unlock := a.locks.Lock(employeeID)
	defer unlock()

	s, err := a.resolve(ctx, employeeID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	snapshot, err := a.Snapshot(ctx, employeeID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	return a.view(ctx, s, snapshot.Projection, snapshot.Seq, a.now().UTC())
}

// ListStatuses implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListStatuses(ctx context.Context) ([]attendance.StatusResponse, error) {
	active, err := a.projections.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active projections: %w", err)
	}

	now := a.now().UTC()
	statuses := make([]attendance.StatusResponse, 0, len(active))
	for i := range active {
		p := active[i]
		s, err := a.resolve(ctx, p.EmployeeID)
		if err != nil {
			if !errors.Is(err, employee.ErrEmployeeNotFound) {
				return nil, err
			}
			s = subject{employee: employee.Employee{ID: p.EmployeeID}, loc: a.loc}
		}
		status, err := a.lockedView(ctx, s, &p, now)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (a *AttendanceServiceImpl) lockedView(ctx context.Context, s subject, p *attendance.StatusProjection, now time.Time) (attendance.StatusResponse, error) {
	unlock := a.locks.Lock(p.EmployeeID)
	defer unlock()
	return a.view(ctx, s, p, p.LastEventSeq, now)
}

// GetHistory implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetHistory(ctx context.Context, employeeID string, filter attendance.HistoryFilter) (attendance.ListEventResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListEventResponse{}, err
	}
	if _, err := a.resolve(ctx, employeeID); err != nil {
		return attendance.ListEventResponse{}, err
	}

	events, total, err := a.events.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return attendance.ListEventResponse{}, fmt.Errorf("failed to list attendance events: %w", err)
	}

	responses := make([]attendance.EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, toEventResponse(e))
	}

	totalPages, showing := pageInfo(total, filter.Page, filter.Limit)
	return attendance.ListEventResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Events:     responses,
	}, nil
}

// GetSummaries implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetSummaries(ctx context.Context, employeeID string, filter attendance.SummaryFilter) (attendance.ListSummaryResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListSummaryResponse{}, err
	}
	if _, err := a.resolve(ctx, employeeID); err != nil {
		return attendance.ListSummaryResponse{}, err
	}

	summaries, total, err := a.summaries.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return attendance.ListSummaryResponse{}, fmt.Errorf("failed to list attendance summaries: %w", err)
	}

	responses := make([]attendance.SummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		responses = append(responses, toSummaryResponse(sum))
	}

	totalPages, showing := pageInfo(total, filter.Page, filter.Limit)
	return attendance.ListSummaryResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Summaries:  responses,
	}, nil
}

// Snapshot implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Snapshot(ctx context.Context, employeeID string) (attendance.Snapshot, error) {
	projection, err := a.projections.Get(ctx, employeeID)
	if err != nil {
		return attendance.Snapshot{}, fmt.Errorf("failed to get status projection: %w", err)
	}
	seq, err := a.seqOf(ctx, employeeID, projection)
	if err != nil {
		return attendance.Snapshot{}, err
	}
	return attendance.Snapshot{Projection: projection, Seq: seq}, nil
}

// move runs a projection-to-projection transition for the employee.
func (a *AttendanceServiceImpl) move(ctx context.Context, employeeID, action string, check func(subject) error, plan planFunc) (attendance.TransitionResponse, error) {
	unlock := a.locks.Lock(employeeID)
	defer unlock()

	s, err := a.resolve(ctx, employeeID)
	if err != nil {
		return attendance.TransitionResponse{}, err
	}
	if check != nil {
		if err := check(s); err != nil {
			return attendance.TransitionResponse{}, err
		}
	}

	now := a.now().UTC()
	committed, err := a.transit(ctx, s, now, plan)
	return a.finish(ctx, s, action, committed, err, now)
}

// transit applies plan inside one transaction. It returns nil without error
// when the plan does not apply or a concurrent writer got there first.
func (a *AttendanceServiceImpl) transit(ctx context.Context, s subject, now time.Time, plan planFunc) (*committedTransition, error) {
	var committed *committedTransition
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := a.projections.Get(ctx, s.employee.ID)
		if err != nil {
			return fmt.Errorf("failed to get status projection: %w", err)
		}
		if current == nil {
			return nil
		}

		eventType, next, ok := plan(*current, s, now)
		if !ok {
			return nil
		}

		c, err := a.advance(ctx, *current, eventType, next, now)
		if err != nil {
			return err
		}
		committed = &c
		return nil
	})
	if err != nil {
		if errors.Is(err, attendance.ErrStaleProjection) {
			slog.Debug("Transition lost to a concurrent writer", "employee_id", s.employee.ID)
			return nil, nil
		}
		return nil, err
	}
	return committed, nil
}

// advance writes the event and the next projection. A break segment ends
// with any event that follows it.
func (a *AttendanceServiceImpl) advance(ctx context.Context, current attendance.StatusProjection, eventType attendance.EventType, next attendance.Status, now time.Time) (committedTransition, error) {
	if current.Status.IsBreak() {
		if err := a.sessions.AddBreak(ctx, current.SessionID, segment(current, now)); err != nil {
			return committedTransition{}, fmt.Errorf("failed to add break segment: %w", err)
		}
	}

	event, err := a.events.Append(ctx, attendance.AttendanceEvent{
		EmployeeID: current.EmployeeID,
		SessionID:  current.SessionID,
		EventType:  eventType,
		Status:     next,
		Timestamp:  now,
	})
	if err != nil {
		return committedTransition{}, fmt.Errorf("failed to append attendance event: %w", err)
	}

	projection := current
	projection.Status = next
	projection.StateStartTime = now
	projection.LastEventSeq = event.Seq
	projection.UpdatedAt = now

	if err := a.projections.Replace(ctx, projection, current.LastEventSeq); err != nil {
		if errors.Is(err, attendance.ErrStaleProjection) {
			return committedTransition{}, err
		}
		return committedTransition{}, fmt.Errorf("failed to update status projection: %w", err)
	}

	return committedTransition{event: event, projection: &projection}, nil
}

// finish turns the outcome of a transaction into the response. A transition
// that did not apply is reported with the unchanged status.
func (a *AttendanceServiceImpl) finish(ctx context.Context, s subject, action string, committed *committedTransition, err error, now time.Time) (attendance.TransitionResponse, error) {
	if err != nil {
		if !errors.Is(err, attendance.ErrStaleProjection) {
			return attendance.TransitionResponse{}, fmt.Errorf("failed to %s: %w", action, err)
		}
		slog.Debug("Transition lost to a concurrent writer", "employee_id", s.employee.ID, "action", action)
		committed = nil
	}

	if committed == nil {
		slog.Debug("Action not applicable in current status", "employee_id", s.employee.ID, "action", action)
		snapshot, err := a.Snapshot(ctx, s.employee.ID)
		if err != nil {
			return attendance.TransitionResponse{}, err
		}
		status, err := a.view(ctx, s, snapshot.Projection, snapshot.Seq, now)
		if err != nil {
			return attendance.TransitionResponse{}, err
		}
		return attendance.TransitionResponse{Applied: false, Status: status}, nil
	}

	a.afterCommit(ctx, *committed)

	status, err := a.view(ctx, s, committed.projection, committed.event.Seq, now)
	if err != nil {
		return attendance.TransitionResponse{}, err
	}

	event := toEventResponse(committed.event)
	resp := attendance.TransitionResponse{
		Applied: true,
		Status:  status,
		Event:   &event,
	}
	if committed.summary != nil {
		summary := toSummaryResponse(*committed.summary)
		resp.Summary = &summary
	}
	return resp, nil
}

func (a *AttendanceServiceImpl) afterCommit(ctx context.Context, committed committedTransition) {
	a.invalidate(ctx, committed.event.EmployeeID)
	if a.publisher != nil {
		a.publisher.PublishStatus(committed.event, committed.projection)
	}
}

func (a *AttendanceServiceImpl) invalidate(ctx context.Context, employeeID string) {
	if err := a.cache.Invalidate(ctx, employeeID); err != nil {
		slog.Warn("Failed to invalidate session cache", "employee_id", employeeID, "error", err)
	}
}

func (a *AttendanceServiceImpl) scheduleBoundaries(ctx context.Context, s subject, sessionID string, now time.Time) {
	if a.scheduler == nil {
		return
	}
	boundaries := resolver.Boundaries(now, s.schedule(), s.loc)
	if len(boundaries) == 0 {
		return
	}
	if err := a.scheduler.Schedule(ctx, s.employee.ID, sessionID, boundaries); err != nil {
		slog.Warn("Failed to schedule boundary reconcile", "employee_id", s.employee.ID, "session_id", sessionID, "error", err)
	}
}

func (a *AttendanceServiceImpl) cancelBoundaries(ctx context.Context, employeeID, sessionID string) {
	if a.scheduler == nil {
		return
	}
	if err := a.scheduler.Cancel(ctx, employeeID, sessionID, boundaryCount); err != nil {
		slog.Warn("Failed to cancel boundary reconcile", "employee_id", employeeID, "session_id", sessionID, "error", err)
	}
}

// resolve loads the employee and its department. A missing or broken
// department leaves the employee unscheduled.
func (a *AttendanceServiceImpl) resolve(ctx context.Context, employeeID string) (subject, error) {
	emp, err := a.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return subject{}, employee.ErrEmployeeNotFound
		}
		return subject{}, fmt.Errorf("failed to get employee: %w", err)
	}

	s := subject{employee: emp, loc: a.loc}
	s.department = a.departments.Resolve(ctx, emp.DepartmentID)
	if s.department != nil {
		s.loc = s.department.Location(a.loc)
	}
	return s, nil
}

// loadSession reads through the session cache.
func (a *AttendanceServiceImpl) loadSession(ctx context.Context, employeeID, sessionID string) (attendance.Session, error) {
	cached, err := a.cache.Get(ctx, employeeID, sessionID)
	if err != nil {
		slog.Warn("Failed to read session cache", "employee_id", employeeID, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	session, err := a.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, attendance.ErrSessionNotFound) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get attendance session: %w", err)
	}

	if err := a.cache.Set(ctx, session); err != nil {
		slog.Warn("Failed to write session cache", "employee_id", employeeID, "error", err)
	}
	return session, nil
}

// seqOf returns the seq the employee's state reflects.
func (a *AttendanceServiceImpl) seqOf(ctx context.Context, employeeID string, projection *attendance.StatusProjection) (int64, error) {
	if projection != nil {
		return projection.LastEventSeq, nil
	}
	seq, err := a.events.LatestSeq(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest event seq: %w", err)
	}
	return seq, nil
}

func segment(current attendance.StatusProjection, now time.Time) time.Duration {
	d := now.Sub(current.StateStartTime)
	if d < 0 {
		return 0
	}
	return d
}

func NewAttendanceService(
	tx database.Transactor,
	eventRepo attendance.EventRepository,
	statusRepo attendance.StatusRepository,
	sessionRepo attendance.SessionRepository,
	summaryRepo attendance.SummaryRepository,
	employeeRepo employee.EmployeeRepository,
	departmentService schedule.DepartmentService,
	cache attendance.SessionCache,
	publisher StatusPublisher,
	scheduler ReconcileScheduler,
	cfg Config,
) *AttendanceServiceImpl {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &AttendanceServiceImpl{
		tx:          tx,
		events:      eventRepo,
		projections: statusRepo,
		sessions:    sessionRepo,
		summaries:   summaryRepo,
		employees:   employeeRepo,
		departments: departmentService,
		cache:       cache,
		publisher:   publisher,
		scheduler:   scheduler,
		locks:       newKeyedMutex(),
		loc:         cfg.Location,
		now:         cfg.Now,
	}
}
