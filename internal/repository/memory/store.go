package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
)

// Store keeps every repository in process memory. A transaction works on a
// private copy that replaces the committed state only when it succeeds, so
// readers outside it never see its writes.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data state
}

type state struct {
	seq         int64
	events      []attendance.AttendanceEvent
	projections map[string]attendance.StatusProjection
	sessions    map[string]attendance.Session
	summaries   []attendance.AttendanceSummary
	employees   map[string]employee.Employee
	departments map[string]schedule.Department
	signals     map[string]signal.Signal
}

func newState() state {
	return state{
		projections: make(map[string]attendance.StatusProjection),
		sessions:    make(map[string]attendance.Session),
		employees:   make(map[string]employee.Employee),
		departments: make(map[string]schedule.Department),
		signals:     make(map[string]signal.Signal),
	}
}

// clone copies the containers; stored values are never mutated in place.
func (s state) clone() state {
	c := state{
		seq:         s.seq,
		events:      append([]attendance.AttendanceEvent(nil), s.events...),
		projections: make(map[string]attendance.StatusProjection, len(s.projections)),
		sessions:    make(map[string]attendance.Session, len(s.sessions)),
		summaries:   append([]attendance.AttendanceSummary(nil), s.summaries...),
		employees:   make(map[string]employee.Employee, len(s.employees)),
		departments: make(map[string]schedule.Department, len(s.departments)),
		signals:     make(map[string]signal.Signal, len(s.signals)),
	}
	for k, v := range s.projections {
		c.projections[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.departments {
		c.departments[k] = v
	}
	for k, v := range s.signals {
		c.signals[k] = v
	}
	return c
}

func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

type tx struct {
	data state
}

// WithinTx implements database.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	t := &tx{data: s.data.clone()}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = t.data
	s.mu.Unlock()
	return nil
}

// read returns the state visible to ctx: the working copy inside a
// transaction, the committed state otherwise.
func (s *Store) read(ctx context.Context) (*state, func()) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		return &t.data, func() {}
	}
	s.mu.Lock()
	return &s.data, s.mu.Unlock
}

// write is read for mutations. Outside a transaction it also waits for any
// running transaction, whose commit would otherwise drop the change.
func (s *Store) write(ctx context.Context) (*state, func()) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		return &t.data, func() {}
	}
	s.txMu.Lock()
	s.mu.Lock()
	return &s.data, func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) Events() attendance.EventRepository         { return &eventRepository{s: s} }
func (s *Store) Projections() attendance.StatusRepository   { return &projectionRepository{s: s} }
func (s *Store) Sessions() attendance.SessionRepository     { return &sessionRepository{s: s} }
func (s *Store) Summaries() attendance.SummaryRepository    { return &summaryRepository{s: s} }
func (s *Store) Employees() employee.EmployeeRepository     { return &employeeRepository{s: s} }
func (s *Store) Departments() schedule.DepartmentRepository { return &departmentRepository{s: s} }
func (s *Store) Signals() signal.Repository                 { return &signalRepository{s: s} }
