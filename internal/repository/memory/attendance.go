package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/google/uuid"
)

type eventRepository struct{ s *Store }

func (r *eventRepository) Append(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	st, unlock := r.s.write(ctx)
	defer unlock()

	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceEvent{}, fmt.Errorf("failed to generate event id: %w", err)
		}
		event.ID = id.String()
	}
	st.seq++
	event.Seq = st.seq
	st.events = append(st.events, event)
	return event, nil
}

func (r *eventRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.HistoryFilter) ([]attendance.AttendanceEvent, int64, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	from, to := dayBounds(filter.StartDate, filter.EndDate)

	var matched []attendance.AttendanceEvent
	for i := len(st.events) - 1; i >= 0; i-- {
		e := st.events[i]
		if e.EmployeeID != employeeID {
			continue
		}
		if filter.SessionID != nil && *filter.SessionID != "" && e.SessionID != *filter.SessionID {
			continue
		}
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *eventRepository) ListBySession(ctx context.Context, sessionID string) ([]attendance.AttendanceEvent, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	var events []attendance.AttendanceEvent
	for _, e := range st.events {
		if e.SessionID == sessionID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *eventRepository) LatestSeq(ctx context.Context, employeeID string) (int64, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	for i := len(st.events) - 1; i >= 0; i-- {
		if st.events[i].EmployeeID == employeeID {
			return st.events[i].Seq, nil
		}
	}
	return 0, nil
}

type projectionRepository struct{ s *Store }

func (r *projectionRepository) Get(ctx context.Context, employeeID string) (*attendance.StatusProjection, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	p, ok := st.projections[employeeID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *projectionRepository) Insert(ctx context.Context, p attendance.StatusProjection) error {
	st, unlock := r.s.write(ctx)
	defer unlock()

	if _, ok := st.projections[p.EmployeeID]; ok {
		return attendance.ErrStaleProjection
	}
	st.projections[p.EmployeeID] = p
	return nil
}

func (r *projectionRepository) Replace(ctx context.Context, p attendance.StatusProjection, expectedSeq int64) error {
	st, unlock := r.s.write(ctx)
	defer unlock()

	current, ok := st.projections[p.EmployeeID]
	if !ok || current.LastEventSeq != expectedSeq {
		return attendance.ErrStaleProjection
	}
	st.projections[p.EmployeeID] = p
	return nil
}

func (r *projectionRepository) Delete(ctx context.Context, employeeID string, expectedSeq int64) error {
	st, unlock := r.s.write(ctx)
	defer unlock()

	current, ok := st.projections[employeeID]
	if !ok || current.LastEventSeq != expectedSeq {
		return attendance.ErrStaleProjection
	}
	delete(st.projections, employeeID)
	return nil
}

func (r *projectionRepository) Put(ctx context.Context, p attendance.StatusProjection) error {
	st, unlock := r.s.write(ctx)
	defer unlock()

	st.projections[p.EmployeeID] = p
	return nil
}

func (r *projectionRepository) ListActive(ctx context.Context) ([]attendance.StatusProjection, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	projections := make([]attendance.StatusProjection, 0, len(st.projections))
	for _, p := range st.projections {
		projections = append(projections, p)
	}
	sort.Slice(projections, func(i, j int) bool {
		return projections[i].EmployeeID < projections[j].EmployeeID
	})
	return projections, nil
}

type sessionRepository struct{ s *Store }

func (r *sessionRepository) Create(ctx context.Context, session attendance.Session) error {
	st, unlock := r.s.write(ctx)
	defer unlock()

	if _, ok := st.sessions[session.ID]; ok {
		return fmt.Errorf("failed to create attendance session: duplicate id %s", session.ID)
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	st.sessions[session.ID] = session
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	session, ok := st.sessions[id]
	if !ok {
		return attendance.Session{}, attendance.ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRepository) AddBreak(ctx context.Context, id string, segment time.Duration) error {
	return r.update(ctx, id, func(s *attendance.Session) {
		s.AccumulatedBreak += segment
	})
}

func (r *sessionRepository) SetAccumulatedBreak(ctx context.Context, id string, total time.Duration) error {
	return r.update(ctx, id, func(s *attendance.Session) {
		s.AccumulatedBreak = total
	})
}

func (r *sessionRepository) MarkOvertime(ctx context.Context, id string, minutes int) error {
	return r.update(ctx, id, func(s *attendance.Session) {
		s.IsOvertime = true
		if minutes > s.OvertimeMinutes {
			s.OvertimeMinutes = minutes
		}
	})
}

func (r *sessionRepository) Close(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, func(s *attendance.Session) {
		s.ClosedAt = &at
	})
}

func (r *sessionRepository) update(ctx context.Context, id string, fn func(s *attendance.Session)) error {
	st, unlock := r.s.write(ctx)
	defer unlock()

	session, ok := st.sessions[id]
	if !ok {
		return attendance.ErrSessionNotFound
	}
	fn(&session)
	session.UpdatedAt = time.Now()
	st.sessions[id] = session
	return nil
}

type summaryRepository struct{ s *Store }

func (r *summaryRepository) Create(ctx context.Context, summary attendance.AttendanceSummary) (attendance.AttendanceSummary, error) {
	st, unlock := r.s.write(ctx)
	defer unlock()

	for _, existing := range st.summaries {
		if existing.SessionID == summary.SessionID {
			return attendance.AttendanceSummary{}, fmt.Errorf("failed to create attendance summary: session %s already summarized", summary.SessionID)
		}
	}
	if summary.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceSummary{}, fmt.Errorf("failed to generate summary id: %w", err)
		}
		summary.ID = id.String()
	}
	summary.CreatedAt = time.Now()
	st.summaries = append(st.summaries, summary)
	return summary, nil
}

func (r *summaryRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.SummaryFilter) ([]attendance.AttendanceSummary, int64, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	from, to := dayBounds(filter.StartDate, filter.EndDate)

	var matched []attendance.AttendanceSummary
	for _, s := range st.summaries {
		if s.EmployeeID != employeeID {
			continue
		}
		if !from.IsZero() && s.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !s.Date.Before(to) {
			continue
		}
		matched = append(matched, s)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ClockOutTime.After(matched[j].ClockOutTime)
	})
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

// dayBounds turns optional YYYY-MM-DD bounds into [from, to) instants in UTC.
func dayBounds(start, end *string) (from, to time.Time) {
	if start != nil && *start != "" {
		if t, err := time.Parse("2006-01-02", *start); err == nil {
			from = t
		}
	}
	if end != nil && *end != "" {
		if t, err := time.Parse("2006-01-02", *end); err == nil {
			to = t.AddDate(0, 0, 1)
		}
	}
	return from, to
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
