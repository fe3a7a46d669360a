package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	schedulesvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const empID = "emp-1"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(hour, minute int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	y, m, d := c.now.Date()
	c.now = time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

func (c *fakeClock) NextDay(hour, minute int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	y, m, d := c.now.AddDate(0, 0, 1).Date()
	c.now = time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []attendance.AttendanceEvent
}

func (p *fakePublisher) PublishStatus(event attendance.AttendanceEvent, projection *attendance.StatusProjection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string][]time.Time
	cancelled []string
}

func (s *fakeScheduler) Schedule(ctx context.Context, employeeID, sessionID string, boundaries []time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[sessionID] = boundaries
	return nil
}

func (s *fakeScheduler) Cancel(ctx context.Context, employeeID, sessionID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, sessionID)
	return nil
}

// failingEvents fails every append.
type failingEvents struct {
	attendance.EventRepository
}

func (f failingEvents) Append(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	return attendance.AttendanceEvent{}, errors.New("connection reset")
}

// racingProjections behaves as if another writer always got there first.
type racingProjections struct {
	attendance.StatusRepository
}

func (r racingProjections) Replace(ctx context.Context, p attendance.StatusProjection, expectedSeq int64) error {
	return attendance.ErrStaleProjection
}

// pausingSessions parks the next GetByID after arm until release is closed.
type pausingSessions struct {
	attendance.SessionRepository
	mu      sync.Mutex
	armed   bool
	paused  chan struct{}
	release chan struct{}
}

func (p *pausingSessions) arm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = true
	p.paused = make(chan struct{})
	p.release = make(chan struct{})
}

func (p *pausingSessions) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	session, err := p.SessionRepository.GetByID(ctx, id)

	p.mu.Lock()
	armed := p.armed
	p.armed = false
	p.mu.Unlock()

	if armed {
		close(p.paused)
		<-p.release
	}
	return session, err
}

type fixture struct {
	store    *memory.Store
	svc      *AttendanceServiceImpl
	clock    *fakeClock
	pub      *fakePublisher
	sched    *fakeScheduler
	sessions attendance.SessionRepository
}

type option func(f *fixture, events *attendance.EventRepository, projections *attendance.StatusRepository)

func withEvents(wrap func(attendance.EventRepository) attendance.EventRepository) option {
	return func(f *fixture, events *attendance.EventRepository, _ *attendance.StatusRepository) {
		*events = wrap(*events)
	}
}

func withProjections(wrap func(attendance.StatusRepository) attendance.StatusRepository) option {
	return func(f *fixture, _ *attendance.EventRepository, projections *attendance.StatusRepository) {
		*projections = wrap(*projections)
	}
}

func withSessions(wrap func(attendance.SessionRepository) attendance.SessionRepository) option {
	return func(f *fixture, _ *attendance.EventRepository, _ *attendance.StatusRepository) {
		f.sessions = wrap(f.sessions)
	}
}

func officeHours(grace int) *schedule.Schedule {
	return &schedule.Schedule{ClockIn: "09:00", ClockOut: "17:00", GracePeriod: grace, OvertimeThreshold: 15}
}

func newFixture(t *testing.T, sched *schedule.Schedule, opts ...option) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	_, err := store.Departments().Upsert(ctx, schedule.Department{
		ID:         "dept-1",
		Name:       "Operations",
		Timezone:   "UTC",
		Schedule:   sched,
		BreakTypes: attendance.DefaultBreakTypes,
	})
	require.NoError(t, err)

	deptID := "dept-1"
	_, err = store.Employees().Upsert(ctx, employee.Employee{ID: empID, Name: "Ann", DepartmentID: &deptID})
	require.NoError(t, err)

	f := &fixture{
		store: store,
		clock: &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		pub:   &fakePublisher{},
		sched: &fakeScheduler{scheduled: make(map[string][]time.Time)},
	}
	f.sessions = store.Sessions()

	events, projections := store.Events(), store.Projections()
	for _, opt := range opts {
		opt(f, &events, &projections)
	}

	f.svc = NewAttendanceService(
		store,
		events,
		projections,
		f.sessions,
		store.Summaries(),
		store.Employees(),
		schedulesvc.NewDepartmentService(store.Departments()),
		memory.NewSessionCache(),
		f.pub,
		f.sched,
		Config{Location: time.UTC, Now: f.clock.Now},
	)
	return f
}

func (f *fixture) act(t *testing.T, fn func(ctx context.Context) (attendance.TransitionResponse, error)) attendance.TransitionResponse {
	t.Helper()
	resp, err := fn(context.Background())
	require.NoError(t, err)
	return resp
}

func (f *fixture) clockIn(t *testing.T) attendance.TransitionResponse {
	return f.act(t, func(ctx context.Context) (attendance.TransitionResponse, error) {
		return f.svc.ClockIn(ctx, attendance.ActionRequest{EmployeeID: empID})
	})
}

func (f *fixture) clockOut(t *testing.T) attendance.TransitionResponse {
	return f.act(t, func(ctx context.Context) (attendance.TransitionResponse, error) {
		return f.svc.ClockOut(ctx, attendance.ActionRequest{EmployeeID: empID})
	})
}

func (f *fixture) startBreak(t *testing.T, breakType string) attendance.TransitionResponse {
	return f.act(t, func(ctx context.Context) (attendance.TransitionResponse, error) {
		return f.svc.StartBreak(ctx, attendance.BreakRequest{EmployeeID: empID, BreakType: breakType})
	})
}

func (f *fixture) endBreak(t *testing.T, breakType string) attendance.TransitionResponse {
	return f.act(t, func(ctx context.Context) (attendance.TransitionResponse, error) {
		return f.svc.EndBreak(ctx, attendance.BreakRequest{EmployeeID: empID, BreakType: breakType})
	})
}

func (f *fixture) toggleStandby(t *testing.T) attendance.TransitionResponse {
	return f.act(t, func(ctx context.Context) (attendance.TransitionResponse, error) {
		return f.svc.ToggleStandby(ctx, attendance.ActionRequest{EmployeeID: empID})
	})
}

func (f *fixture) resume(t *testing.T) attendance.TransitionResponse {
	return f.act(t, func(ctx context.Context) (attendance.TransitionResponse, error) {
		return f.svc.ResumeWorking(ctx, attendance.ActionRequest{EmployeeID: empID})
	})
}

func (f *fixture) status(t *testing.T) attendance.StatusResponse {
	t.Helper()
	status, err := f.svc.GetStatus(context.Background(), empID)
	require.NoError(t, err)
	return status
}

func (f *fixture) eventCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.store.Events().ListByEmployee(context.Background(), empID, attendance.HistoryFilter{Page: 1, Limit: 100})
	require.NoError(t, err)
	return total
}

func TestClockIn_WithinScheduleStartsWorking(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clock.Set(9, 0)

	resp := f.clockIn(t)

	assert.True(t, resp.Applied)
	assert.Equal(t, "Working", resp.Status.Status)
	require.NotNil(t, resp.Event)
	assert.Equal(t, "clockIn", resp.Event.EventType)
	assert.Equal(t, int64(1), resp.Status.Seq)
	assert.Equal(t, 1, f.pub.count())

	require.NotNil(t, resp.Status.SessionID)
	assert.Len(t, f.sched.scheduled[*resp.Status.SessionID], 3)
}

func TestClockIn_OutsideScheduleStartsStandby(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clock.Set(7, 30)

	resp := f.clockIn(t)

	assert.True(t, resp.Applied)
	assert.Equal(t, "Standby", resp.Status.Status)
	assert.False(t, resp.Status.WithinSchedule)
}

func TestClockIn_WithoutScheduleFailsOpen(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.Set(23, 30)

	resp := f.clockIn(t)

	assert.Equal(t, "Working", resp.Status.Status)
	assert.False(t, resp.Status.IsLate)
	assert.Empty(t, f.sched.scheduled)
}

func TestClockIn_IsIdempotent(t *testing.T) {
	f := newFixture(t, officeHours(10))

	first := f.clockIn(t)
	second := f.clockIn(t)

	assert.True(t, first.Applied)
	assert.False(t, second.Applied)
	assert.Nil(t, second.Event)
	assert.Equal(t, first.Status.Seq, second.Status.Seq)
	assert.Equal(t, int64(1), f.eventCount(t))
}

func TestClockIn_ConcurrentCallersApplyOnce(t *testing.T) {
	f := newFixture(t, officeHours(10))

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.ClockIn(context.Background(), attendance.ActionRequest{EmployeeID: empID})
			assert.NoError(t, err)
			if resp.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, int64(1), f.eventCount(t))
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestClockIn_UnknownEmployee(t *testing.T) {
	f := newFixture(t, officeHours(10))

	_, err := f.svc.ClockIn(context.Background(), attendance.ActionRequest{EmployeeID: "ghost"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestClockIn_ValidationError(t *testing.T) {
	f := newFixture(t, officeHours(10))

	_, err := f.svc.ClockIn(context.Background(), attendance.ActionRequest{})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestClockIn_Lateness(t *testing.T) {
	tests := []struct {
		name        string
		hour, min   int
		wantLate    bool
		wantMinutes int
	}{
		{"on time", 9, 0, false, 0},
		{"within grace", 9, 5, false, 0},
		{"at grace limit", 9, 10, false, 0},
		{"past grace", 9, 11, true, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, officeHours(10))
			f.clock.Set(tt.hour, tt.min)

			resp := f.clockIn(t)

			assert.Equal(t, tt.wantLate, resp.Status.IsLate)
			assert.Equal(t, tt.wantMinutes, resp.Status.LateMinutes)
			require.NotNil(t, resp.Event.Details)
			require.NotNil(t, resp.Event.Details.IsLate)
			assert.Equal(t, tt.wantLate, *resp.Event.Details.IsLate)
		})
	}
}

func TestScenario_OnTimeDayWithLunch(t *testing.T) {
	f := newFixture(t, officeHours(5))

	f.clock.Set(9, 0)
	in := f.clockIn(t)
	assert.False(t, in.Status.IsLate)

	f.clock.Set(12, 0)
	assert.Equal(t, "Lunch", f.startBreak(t, "Lunch").Status.Status)

	f.clock.Set(12, 30)
	end := f.endBreak(t, "Lunch")
	assert.Equal(t, "Working", end.Status.Status)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), end.Status.AccumulatedBreakMs)

	f.clock.Set(17, 0)
	out := f.clockOut(t)

	assert.True(t, out.Applied)
	assert.Equal(t, "Clocked Out", out.Status.Status)
	require.NotNil(t, out.Summary)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), out.Summary.TotalClockTimeMs)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), out.Summary.AccumulatedBreakMs)
	assert.Equal(t, (7*time.Hour + 30*time.Minute).Milliseconds(), out.Summary.WorkedTimeMs)
	assert.False(t, out.Summary.IsLate)
	assert.False(t, out.Summary.IsOvertime)
	assert.Equal(t, "2026-03-02", out.Summary.Date)

	require.NotNil(t, out.Event.Details)
	assert.Equal(t, out.Summary.TotalClockTimeMs, *out.Event.Details.TotalClockTimeMs)

	snapshot, err := f.svc.Snapshot(context.Background(), empID)
	require.NoError(t, err)
	assert.Nil(t, snapshot.Projection)
	assert.Equal(t, out.Event.Seq, snapshot.Seq)

	require.NotNil(t, in.Status.SessionID)
	assert.Equal(t, []string{*in.Status.SessionID}, f.sched.cancelled)
}

func TestScenario_LateDoesNotCarryToNextDay(t *testing.T) {
	f := newFixture(t, officeHours(10))

	f.clock.Set(9, 20)
	in := f.clockIn(t)
	assert.True(t, in.Status.IsLate)
	assert.Equal(t, 20, in.Status.LateMinutes)

	f.clock.Set(17, 0)
	out := f.clockOut(t)
	assert.True(t, out.Summary.IsLate)
	assert.Equal(t, 20, out.Summary.LateMinutes)

	f.clock.NextDay(8, 55)
	next := f.clockIn(t)
	assert.False(t, next.Status.IsLate)
	assert.Equal(t, 0, next.Status.LateMinutes)
}

func TestLateStatus_HiddenOnLaterDayOfSameSession(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clock.Set(9, 30)
	require.True(t, f.clockIn(t).Status.IsLate)

	// the session stays open overnight
	f.clock.NextDay(9, 0)
	assert.False(t, f.status(t).IsLate)
}

func TestRoundTrip_BreakCyclesSumIntoAccumulatedBreak(t *testing.T) {
	f := newFixture(t, officeHours(10))

	f.clock.Set(9, 0)
	f.clockIn(t)

	segments := []struct {
		breakType  string
		start, end [2]int
	}{
		{"Small Break", [2]int{10, 0}, [2]int{10, 10}},
		{"Lunch", [2]int{12, 0}, [2]int{12, 45}},
		{"Pee Break 1", [2]int{15, 0}, [2]int{15, 5}},
	}
	for _, seg := range segments {
		f.clock.Set(seg.start[0], seg.start[1])
		require.True(t, f.startBreak(t, seg.breakType).Applied)
		f.clock.Set(seg.end[0], seg.end[1])
		require.True(t, f.endBreak(t, seg.breakType).Applied)
	}

	f.clock.Set(16, 30)
	out := f.clockOut(t)

	assert.Equal(t, (7*time.Hour + 30*time.Minute).Milliseconds(), out.Summary.TotalClockTimeMs)
	assert.Equal(t, (60 * time.Minute).Milliseconds(), out.Summary.AccumulatedBreakMs)
}

func TestClockOut_DuringBreakFlushesSegment(t *testing.T) {
	f := newFixture(t, officeHours(10))

	f.clock.Set(9, 0)
	f.clockIn(t)
	f.clock.Set(12, 0)
	f.startBreak(t, "Lunch")

	f.clock.Set(12, 20)
	out := f.clockOut(t)

	assert.Equal(t, (20 * time.Minute).Milliseconds(), out.Summary.AccumulatedBreakMs)
}

func TestInvalidTransitions_AreNoOps(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clock.Set(9, 0)

	// clocked out
	assert.False(t, f.clockOut(t).Applied)
	assert.False(t, f.startBreak(t, "Lunch").Applied)
	assert.False(t, f.toggleStandby(t).Applied)
	assert.False(t, f.resume(t).Applied)
	assert.Equal(t, int64(0), f.eventCount(t))

	f.clockIn(t)

	// working
	assert.False(t, f.endBreak(t, "Lunch").Applied)
	assert.False(t, f.resume(t).Applied)

	f.clock.Set(10, 0)
	f.startBreak(t, "Lunch")

	// on lunch
	assert.False(t, f.startBreak(t, "Small Break").Applied)
	assert.False(t, f.endBreak(t, "Small Break").Applied)
	assert.False(t, f.toggleStandby(t).Applied)

	assert.Equal(t, int64(2), f.eventCount(t))
	assert.Equal(t, "Lunch", f.status(t).Status)
}

func TestStartBreak_UnknownBreakType(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clockIn(t)

	_, err := f.svc.StartBreak(context.Background(), attendance.BreakRequest{EmployeeID: empID, BreakType: "Nap"})
	assert.ErrorIs(t, err, attendance.ErrUnknownBreakType)

	_, err = f.svc.StartBreak(context.Background(), attendance.BreakRequest{EmployeeID: empID, BreakType: "Standby"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestToggleStandby_BothWays(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clockIn(t)

	f.clock.Set(10, 0)
	resp := f.toggleStandby(t)
	assert.Equal(t, "start_standby", resp.Event.EventType)
	assert.Equal(t, "Standby", resp.Status.Status)

	f.clock.Set(10, 15)
	resp = f.toggleStandby(t)
	assert.Equal(t, "end_standby", resp.Event.EventType)
	assert.Equal(t, "Working", resp.Status.Status)

	// standby is not a break
	assert.Equal(t, int64(0), resp.Status.AccumulatedBreakMs)
}

func TestResumeWorking_FromBreakFlushesSegment(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clockIn(t)

	f.clock.Set(10, 0)
	f.startBreak(t, "Pee Break 2")
	f.clock.Set(10, 7)

	resp := f.resume(t)
	assert.True(t, resp.Applied)
	assert.Equal(t, "resumeWorking", resp.Event.EventType)
	assert.Equal(t, "Working", resp.Status.Status)
	assert.Equal(t, (7 * time.Minute).Milliseconds(), resp.Status.AccumulatedBreakMs)
}

func TestResumeWorking_FromBreakAfterHoursLandsInStandby(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clock.Set(16, 30)
	f.clockIn(t)
	f.startBreak(t, "Small Break")

	f.clock.Set(17, 10)
	resp := f.resume(t)
	assert.True(t, resp.Applied)
	assert.Equal(t, "Standby", resp.Status.Status)

	// standby outside hours has nowhere else to go
	assert.False(t, f.resume(t).Applied)
}

func TestReconcile_StandbyAutoTransition(t *testing.T) {
	f := newFixture(t, officeHours(10))
	ctx := context.Background()

	f.clock.Set(16, 0)
	f.clockIn(t)

	f.clock.Set(17, 0)
	require.NoError(t, f.svc.Reconcile(ctx, empID))
	assert.Equal(t, "Working", f.status(t).Status, "window end is inclusive")

	f.clock.Set(17, 1)
	require.NoError(t, f.svc.Reconcile(ctx, empID))
	assert.Equal(t, "Standby", f.status(t).Status)

	f.clock.NextDay(9, 0)
	require.NoError(t, f.svc.Reconcile(ctx, empID))
	assert.Equal(t, "Working", f.status(t).Status)

	history, err := f.svc.GetHistory(ctx, empID, attendance.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history.Events, 3)
	assert.Equal(t, "end_standby", history.Events[0].EventType)
	assert.Equal(t, "start_standby", history.Events[1].EventType)
}

func TestReconcile_BreakIsLeftAlone(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.clock.Set(16, 50)
	f.clockIn(t)
	f.startBreak(t, "Lunch")

	f.clock.Set(18, 0)
	require.NoError(t, f.svc.Reconcile(context.Background(), empID))
	assert.Equal(t, "Lunch", f.status(t).Status)
}

func TestReconcile_OvertimeIsSticky(t *testing.T) {
	f := newFixture(t, officeHours(10))
	ctx := context.Background()

	f.clock.Set(9, 0)
	f.clockIn(t)

	f.clock.Set(17, 15)
	require.NoError(t, f.svc.Reconcile(ctx, empID))
	// moved to standby, but not yet in overtime
	status := f.status(t)
	assert.False(t, status.IsOvertime)
	assert.Equal(t, "Standby", status.Status)

	f.toggleStandby(t)
	f.clock.Set(17, 16)
	require.NoError(t, f.svc.Reconcile(ctx, empID))

	status = f.status(t)
	assert.True(t, status.IsOvertime)
	assert.GreaterOrEqual(t, status.OvertimeMinutes, 16)

	// time moving backwards does not clear it
	f.clock.Set(16, 0)
	require.NoError(t, f.svc.Reconcile(ctx, empID))
	assert.True(t, f.status(t).IsOvertime)

	out := f.clockOut(t)
	assert.True(t, out.Summary.IsOvertime)
	assert.GreaterOrEqual(t, out.Summary.OvertimeMinutes, 16)
}

func TestClockOut_FinalOvertimeCheck(t *testing.T) {
	f := newFixture(t, officeHours(10))
	f.svc.scheduler = nil

	f.clock.Set(9, 0)
	f.clockIn(t)

	f.clock.Set(17, 20)
	out := f.clockOut(t)

	assert.True(t, out.Summary.IsOvertime)
	assert.Equal(t, 20, out.Summary.OvertimeMinutes)
}

func TestReconcileAll_VisitsEveryActiveEmployee(t *testing.T) {
	f := newFixture(t, officeHours(10))
	ctx := context.Background()

	deptID := "dept-1"
	_, err := f.store.Employees().Upsert(ctx, employee.Employee{ID: "emp-2", Name: "Bob", DepartmentID: &deptID})
	require.NoError(t, err)

	f.clock.Set(16, 0)
	f.clockIn(t)
	_, err = f.svc.ClockIn(ctx, attendance.ActionRequest{EmployeeID: "emp-2"})
	require.NoError(t, err)

	f.clock.Set(17, 30)
	require.NoError(t, f.svc.ReconcileAll(ctx))

	statuses, err := f.svc.ListStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, "Standby", s.Status)
	}
}

func TestPersistenceFailure_LeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, officeHours(10), withEvents(func(r attendance.EventRepository) attendance.EventRepository {
		return failingEvents{r}
	}))

	_, err := f.svc.ClockIn(context.Background(), attendance.ActionRequest{EmployeeID: empID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clock in")

	p, err := f.store.Projections().Get(context.Background(), empID)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 0, f.pub.count())
	assert.Empty(t, f.sched.scheduled)
}

func TestStaleProjection_ReportedAsNoOp(t *testing.T) {
	f := newFixture(t, officeHours(10), withProjections(func(r attendance.StatusRepository) attendance.StatusRepository {
		return racingProjections{r}
	}))
	f.clockIn(t)

	resp := f.startBreak(t, "Lunch")

	assert.False(t, resp.Applied)
	assert.Equal(t, "Working", resp.Status.Status)
	assert.Equal(t, int64(1), f.eventCount(t), "losing writer's event is rolled back")
	assert.Equal(t, 1, f.pub.count())
}

func TestRebuild_RestoresProjectionFromEventLog(t *testing.T) {
	f := newFixture(t, officeHours(10))
	ctx := context.Background()

	f.clock.Set(9, 0)
	f.clockIn(t)
	f.clock.Set(10, 0)
	f.startBreak(t, "Lunch")
	f.clock.Set(10, 30)
	f.endBreak(t, "Lunch")
	f.clock.Set(11, 0)
	smallBreak := f.startBreak(t, "Small Break")

	// lose the projection and corrupt the break total
	p, err := f.store.Projections().Get(ctx, empID)
	require.NoError(t, err)
	broken := *p
	broken.Status = attendance.StatusStandby
	require.NoError(t, f.store.Projections().Put(ctx, broken))
	require.NoError(t, f.store.Sessions().SetAccumulatedBreak(ctx, p.SessionID, 0))

	f.clock.Set(11, 5)
	status, err := f.svc.Rebuild(ctx, empID)
	require.NoError(t, err)

	assert.Equal(t, "Small Break", status.Status)
	assert.Equal(t, smallBreak.Status.Seq, status.Seq)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), status.AccumulatedBreakMs)
	assert.Equal(t, "00:05:00", status.BreakTimer)
}

func TestRebuild_DropsProjectionAfterClockOut(t *testing.T) {
	f := newFixture(t, officeHours(10))
	ctx := context.Background()

	f.clockIn(t)
	f.clock.Set(17, 0)
	out := f.clockOut(t)

	require.NoError(t, f.store.Projections().Put(ctx, attendance.StatusProjection{
		EmployeeID:   empID,
		SessionID:    "stray",
		Status:       attendance.StatusWorking,
		LastEventSeq: 99,
	}))

	status, err := f.svc.Rebuild(ctx, empID)
	require.NoError(t, err)
	assert.Equal(t, "Clocked Out", status.Status)
	assert.Equal(t, out.Event.Seq, status.Seq)
}

func TestGetStatus_Timers(t *testing.T) {
	f := newFixture(t, officeHours(10))

	f.clock.Set(9, 0)
	f.clockIn(t)
	f.clock.Set(12, 0)
	f.startBreak(t, "Lunch")

	f.clock.Set(12, 10)
	status := f.status(t)
	assert.Equal(t, "03:10:00", status.ClockTimer)
	assert.Equal(t, "00:10:00", status.BreakTimer)

	f.clock.Set(12, 30)
	f.endBreak(t, "Lunch")
	status = f.status(t)
	assert.Equal(t, "00:00:00", status.BreakTimer)
}

func TestGetStatus_ConcurrentTransitionDoesNotCacheStaleSession(t *testing.T) {
	pausing := &pausingSessions{}
	f := newFixture(t, officeHours(10), withSessions(func(r attendance.SessionRepository) attendance.SessionRepository {
		pausing.SessionRepository = r
		return pausing
	}))

	f.clock.Set(9, 0)
	f.clockIn(t)
	f.clock.Set(12, 0)
	f.startBreak(t, "Lunch")
	f.clock.Set(12, 30)

	pausing.arm()
	statusDone := make(chan struct{})
	go func() {
		defer close(statusDone)
		_, err := f.svc.GetStatus(context.Background(), empID)
		assert.NoError(t, err)
	}()
	<-pausing.paused

	endDone := make(chan struct{})
	go func() {
		defer close(endDone)
		_, err := f.svc.EndBreak(context.Background(), attendance.BreakRequest{EmployeeID: empID, BreakType: "Lunch"})
		assert.NoError(t, err)
	}()

	// give the break end a chance to run ahead of the parked read
	time.Sleep(50 * time.Millisecond)
	close(pausing.release)
	<-statusDone
	<-endDone

	assert.Equal(t, (30 * time.Minute).Milliseconds(), f.status(t).AccumulatedBreakMs)

	f.clock.Set(15, 0)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), f.status(t).AccumulatedBreakMs)
}

func TestGetStatus_ClockedOut(t *testing.T) {
	f := newFixture(t, officeHours(10))

	status := f.status(t)
	assert.Equal(t, "Clocked Out", status.Status)
	assert.Nil(t, status.SessionID)
	assert.Equal(t, "00:00:00", status.ClockTimer)
	for _, opt := range status.BreakOptions {
		assert.False(t, opt.Visible)
		assert.True(t, opt.Disabled)
	}

	_, err := f.svc.GetStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestBreakOptions(t *testing.T) {
	types := []string{"Lunch", "Small Break"}

	tests := []struct {
		status attendance.Status
		want   []attendance.BreakOption
	}{
		{attendance.StatusClockedOut, []attendance.BreakOption{
			{BreakType: "Lunch", Disabled: true},
			{BreakType: "Small Break", Disabled: true},
		}},
		{attendance.StatusStandby, []attendance.BreakOption{
			{BreakType: "Lunch", Disabled: true},
			{BreakType: "Small Break", Disabled: true},
		}},
		{attendance.StatusWorking, []attendance.BreakOption{
			{BreakType: "Lunch", Visible: true},
			{BreakType: "Small Break", Visible: true},
		}},
		{attendance.StatusWorkingIdle, []attendance.BreakOption{
			{BreakType: "Lunch", Visible: true},
			{BreakType: "Small Break", Visible: true},
		}},
		{"Lunch", []attendance.BreakOption{
			{BreakType: "Lunch", Visible: true, Active: true},
			{BreakType: "Small Break", Visible: true, Disabled: true},
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, breakOptions(tt.status, types))
		})
	}
}

func TestFormatTimer(t *testing.T) {
	assert.Equal(t, "00:00:00", formatTimer(-time.Second))
	assert.Equal(t, "00:00:59", formatTimer(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "01:02:03", formatTimer(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "26:00:00", formatTimer(26*time.Hour))
}

func TestGetHistoryAndSummaries(t *testing.T) {
	f := newFixture(t, officeHours(10))
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		if day > 0 {
			f.clock.NextDay(9, 0)
		}
		f.clockIn(t)
		f.clock.Set(17, 0)
		f.clockOut(t)
	}

	history, err := f.svc.GetHistory(ctx, empID, attendance.HistoryFilter{Page: 1, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), history.TotalCount)
	assert.Equal(t, 2, history.TotalPages)
	assert.Equal(t, "1-4 of 6", history.Showing)
	require.Len(t, history.Events, 4)
	assert.Equal(t, "clockOut", history.Events[0].EventType)
	assert.Greater(t, history.Events[0].Seq, history.Events[1].Seq)

	start, end := "2026-03-03", "2026-03-04"
	summaries, err := f.svc.GetSummaries(ctx, empID, attendance.SummaryFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summaries.TotalCount)
	require.Len(t, summaries.Summaries, 2)
	assert.Equal(t, "2026-03-04", summaries.Summaries[0].Date)
	assert.Equal(t, "2026-03-03", summaries.Summaries[1].Date)

	bad := "03/03/2026"
	_, err = f.svc.GetSummaries(ctx, empID, attendance.SummaryFilter{StartDate: &bad})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
