// Package repotest holds the behaviour every store backend must share. Each
// backend runs Run against its own repositories.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Repositories struct {
	Tx          database.Transactor
	Events      attendance.EventRepository
	Projections attendance.StatusRepository
	Sessions    attendance.SessionRepository
	Summaries   attendance.SummaryRepository
	Employees   employee.EmployeeRepository
	Departments schedule.DepartmentRepository
	Signals     signal.Repository
}

// Run exercises every repository. IDs are random so that backends sharing a
// database across runs do not need truncation.
func Run(t *testing.T, repos Repositories) {
	t.Run("Events", func(t *testing.T) { testEvents(t, repos) })
	t.Run("Projections", func(t *testing.T) { testProjections(t, repos) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, repos) })
	t.Run("Summaries", func(t *testing.T) { testSummaries(t, repos) })
	t.Run("Employees", func(t *testing.T) { testEmployees(t, repos) })
	t.Run("Departments", func(t *testing.T) { testDepartments(t, repos) })
	t.Run("Signals", func(t *testing.T) { testSignals(t, repos) })
	t.Run("Transactor", func(t *testing.T) { testTransactor(t, repos) })
}

func newID() string {
	return uuid.NewString()
}

// baseTime is truncated to what every backend stores.
func baseTime() time.Time {
	return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func testEvents(t *testing.T, repos Repositories) {
	ctx := context.Background()
	employeeID, sessionID := newID(), newID()
	at := baseTime()

	seq, err := repos.Events.LatestSeq(ctx, employeeID)
	require.NoError(t, err)
	assert.Zero(t, seq)

	department := "dept-1"
	steps := []struct {
		eventType attendance.EventType
		status    attendance.Status
		details   *attendance.EventDetails
	}{
		{attendance.EventClockIn, attendance.StatusWorking, &attendance.EventDetails{
			Late: &attendance.LateStatus{IsLate: true, LateMinutes: 11, Date: "2026-03-02"},
		}},
		{attendance.BreakStartEvent("Lunch"), "Lunch", nil},
		{attendance.BreakEndEvent("Lunch"), attendance.StatusWorking, nil},
		{attendance.EventClockOut, attendance.StatusClockedOut, &attendance.EventDetails{
			Totals: &attendance.SessionTotals{
				ClockInTime:      at,
				ClockOutTime:     at.Add(8 * time.Hour),
				TotalClockTime:   8 * time.Hour,
				AccumulatedBreak: 30 * time.Minute,
				IsLate:           true,
				LateMinutes:      11,
				Department:       &department,
			},
		}},
	}

	var last int64
	for i, step := range steps {
		e, err := repos.Events.Append(ctx, attendance.AttendanceEvent{
			EmployeeID: employeeID,
			SessionID:  sessionID,
			EventType:  step.eventType,
			Status:     step.status,
			Timestamp:  at.Add(time.Duration(i) * time.Hour),
			Details:    step.details,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Greater(t, e.Seq, last, "seq must increase")
		last = e.Seq
	}

	seq, err = repos.Events.LatestSeq(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, last, seq)

	bySession, err := repos.Events.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, bySession, 4)
	assert.Equal(t, attendance.EventClockIn, bySession[0].EventType)
	assert.Equal(t, attendance.EventClockOut, bySession[3].EventType)

	require.NotNil(t, bySession[0].Details)
	require.NotNil(t, bySession[0].Details.Late)
	assert.Equal(t, 11, bySession[0].Details.Late.LateMinutes)
	assert.Equal(t, "2026-03-02", bySession[0].Details.Late.Date)
	assert.Nil(t, bySession[1].Details)

	totals := bySession[3].Details.Totals
	require.NotNil(t, totals)
	assert.Equal(t, 8*time.Hour, totals.TotalClockTime)
	assert.Equal(t, 30*time.Minute, totals.AccumulatedBreak)
	assert.True(t, totals.ClockInTime.Equal(at))
	require.NotNil(t, totals.Department)
	assert.Equal(t, department, *totals.Department)

	page, total, err := repos.Events.ListByEmployee(ctx, employeeID, attendance.HistoryFilter{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 3)
	assert.Equal(t, attendance.EventClockOut, page[0].EventType, "newest first")

	page, _, err = repos.Events.ListByEmployee(ctx, employeeID, attendance.HistoryFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, attendance.EventClockIn, page[0].EventType)

	day := "2026-03-03"
	page, total, err = repos.Events.ListByEmployee(ctx, employeeID, attendance.HistoryFilter{StartDate: &day, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func testProjections(t *testing.T, repos Repositories) {
	ctx := context.Background()
	employeeID := newID()
	at := baseTime()

	got, err := repos.Projections.Get(ctx, employeeID)
	require.NoError(t, err)
	assert.Nil(t, got, "clocked out")

	p := attendance.StatusProjection{
		EmployeeID:     employeeID,
		SessionID:      newID(),
		Status:         attendance.StatusWorking,
		StateStartTime: at,
		ClockInTime:    at,
		LastEventSeq:   1,
		UpdatedAt:      at,
	}
	require.NoError(t, repos.Projections.Insert(ctx, p))
	assert.ErrorIs(t, repos.Projections.Insert(ctx, p), attendance.ErrStaleProjection)

	next := p
	next.Status = "Lunch"
	next.StateStartTime = at.Add(time.Hour)
	next.LastEventSeq = 2
	assert.ErrorIs(t, repos.Projections.Replace(ctx, next, 5), attendance.ErrStaleProjection)
	require.NoError(t, repos.Projections.Replace(ctx, next, 1))

	got, err = repos.Projections.Get(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, attendance.Status("Lunch"), got.Status)
	assert.Equal(t, int64(2), got.LastEventSeq)
	assert.True(t, got.StateStartTime.Equal(at.Add(time.Hour)))
	assert.True(t, got.ClockInTime.Equal(at))

	active, err := repos.Projections.ListActive(ctx)
	require.NoError(t, err)
	assert.True(t, containsProjection(active, employeeID))

	assert.ErrorIs(t, repos.Projections.Delete(ctx, employeeID, 1), attendance.ErrStaleProjection)
	require.NoError(t, repos.Projections.Delete(ctx, employeeID, 2))

	got, err = repos.Projections.Get(ctx, employeeID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Put ignores the expected seq
	p.LastEventSeq = 9
	require.NoError(t, repos.Projections.Put(ctx, p))
	require.NoError(t, repos.Projections.Put(ctx, p))
	got, err = repos.Projections.Get(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.LastEventSeq)
	require.NoError(t, repos.Projections.Delete(ctx, employeeID, 9))
}

func containsProjection(projections []attendance.StatusProjection, employeeID string) bool {
	for _, p := range projections {
		if p.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

func testSessions(t *testing.T, repos Repositories) {
	ctx := context.Background()
	at := baseTime()
	department := "dept-1"

	_, err := repos.Sessions.GetByID(ctx, newID())
	assert.ErrorIs(t, err, attendance.ErrSessionNotFound)
	assert.ErrorIs(t, repos.Sessions.AddBreak(ctx, newID(), time.Minute), attendance.ErrSessionNotFound)

	s := attendance.Session{
		ID:           newID(),
		EmployeeID:   newID(),
		DepartmentID: &department,
		ClockInTime:  at,
		Late:         attendance.LateStatus{IsLate: true, LateMinutes: 6, Date: "2026-03-02"},
	}
	require.NoError(t, repos.Sessions.Create(ctx, s))

	require.NoError(t, repos.Sessions.AddBreak(ctx, s.ID, 10*time.Minute))
	require.NoError(t, repos.Sessions.AddBreak(ctx, s.ID, 20*time.Minute))
	require.NoError(t, repos.Sessions.MarkOvertime(ctx, s.ID, 20))
	require.NoError(t, repos.Sessions.MarkOvertime(ctx, s.ID, 16))

	got, err := repos.Sessions.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.EmployeeID, got.EmployeeID)
	assert.Equal(t, 30*time.Minute, got.AccumulatedBreak)
	assert.Equal(t, s.Late, got.Late)
	assert.True(t, got.IsOvertime)
	assert.Equal(t, 20, got.OvertimeMinutes, "overtime minutes never shrink")
	assert.Nil(t, got.ClosedAt)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, department, *got.DepartmentID)

	require.NoError(t, repos.Sessions.SetAccumulatedBreak(ctx, s.ID, 45*time.Minute))
	require.NoError(t, repos.Sessions.Close(ctx, s.ID, at.Add(8*time.Hour)))

	got, err = repos.Sessions.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, got.AccumulatedBreak)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(at.Add(8*time.Hour)))
}

func testSummaries(t *testing.T, repos Repositories) {
	ctx := context.Background()
	employeeID := newID()
	at := baseTime()

	for day := 0; day < 3; day++ {
		in := at.AddDate(0, 0, day)
		var overtime int
		if day == 2 {
			overtime = 20
		}
		created, err := repos.Summaries.Create(ctx, attendance.AttendanceSummary{
			EmployeeID: employeeID,
			SessionID:  newID(),
			Date:       time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC),
			SessionTotals: attendance.SessionTotals{
				ClockInTime:      in,
				ClockOutTime:     in.Add(8 * time.Hour),
				TotalClockTime:   8 * time.Hour,
				AccumulatedBreak: 30 * time.Minute,
				IsOvertime:       overtime > 0,
				OvertimeMinutes:  overtime,
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
	}

	all, total, err := repos.Summaries.ListByEmployee(ctx, employeeID, attendance.SummaryFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-03-04", all[0].Date.Format("2006-01-02"), "newest first")
	assert.True(t, all[0].IsOvertime)
	assert.Equal(t, 20, all[0].OvertimeMinutes)
	assert.Equal(t, 8*time.Hour, all[0].TotalClockTime)

	start, end := "2026-03-03", "2026-03-03"
	one, total, err := repos.Summaries.ListByEmployee(ctx, employeeID, attendance.SummaryFilter{StartDate: &start, EndDate: &end, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, one, 1)
	assert.Equal(t, "2026-03-03", one[0].Date.Format("2006-01-02"))
}

func testEmployees(t *testing.T, repos Repositories) {
	ctx := context.Background()

	_, err := repos.Employees.GetByID(ctx, newID())
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	dept := upsertDepartment(t, repos, nil)
	e := employee.Employee{ID: newID(), Name: "Ayu", DepartmentID: &dept.ID}
	_, err = repos.Employees.Upsert(ctx, e)
	require.NoError(t, err)

	e.Name = "Ayu Lestari"
	e.IsAdmin = true
	_, err = repos.Employees.Upsert(ctx, e)
	require.NoError(t, err)

	got, err := repos.Employees.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayu Lestari", got.Name)
	assert.True(t, got.IsAdmin)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, dept.ID, *got.DepartmentID)
}

func upsertDepartment(t *testing.T, repos Repositories, sched *schedule.Schedule) schedule.Department {
	t.Helper()
	d, err := repos.Departments.Upsert(context.Background(), schedule.Department{
		ID:         newID(),
		Name:       "Operations",
		Timezone:   "Asia/Jakarta",
		Schedule:   sched,
		BreakTypes: []string{"Lunch", "Prayer"},
	})
	require.NoError(t, err)
	return d
}

func testDepartments(t *testing.T, repos Repositories) {
	ctx := context.Background()

	_, err := repos.Departments.GetByID(ctx, newID())
	assert.ErrorIs(t, err, schedule.ErrDepartmentNotFound)

	unscheduled := upsertDepartment(t, repos, nil)
	scheduled := upsertDepartment(t, repos, &schedule.Schedule{ClockIn: "08:00", ClockOut: "16:30", GracePeriod: 5, OvertimeThreshold: 15})

	got, err := repos.Departments.GetByID(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", got.Timezone)
	assert.Equal(t, []string{"Lunch", "Prayer"}, got.BreakTypes)
	require.NotNil(t, got.Schedule)
	assert.Equal(t, schedule.Schedule{ClockIn: "08:00", ClockOut: "16:30", GracePeriod: 5, OvertimeThreshold: 15}, *got.Schedule)

	got, err = repos.Departments.GetByID(ctx, unscheduled.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Schedule)

	list, err := repos.Departments.List(ctx)
	require.NoError(t, err)
	var found int
	for _, d := range list {
		if d.ID == scheduled.ID || d.ID == unscheduled.ID {
			found++
		}
	}
	assert.Equal(t, 2, found)
}

func testSignals(t *testing.T, repos Repositories) {
	ctx := context.Background()
	employeeID := newID()
	at := baseTime()

	_, err := repos.Signals.Ack(ctx, newID(), at)
	assert.ErrorIs(t, err, signal.ErrSignalNotFound)

	var ids []string
	for i, msg := range []string{"first", "second"} {
		sig, err := repos.Signals.Create(ctx, signal.Signal{
			EmployeeID: employeeID,
			Kind:       signal.KindBuzz,
			SenderID:   "admin-1",
			Message:    msg,
			CreatedAt:  at.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.NotEmpty(t, sig.ID)
		ids = append(ids, sig.ID)
	}

	pending, err := repos.Signals.ListPending(ctx, employeeID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "first", pending[0].Message, "oldest first")

	fired, err := repos.Signals.Ack(ctx, ids[0], at.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, fired)

	fired, err = repos.Signals.Ack(ctx, ids[0], at.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, fired, "acknowledged exactly once")

	got, err := repos.Signals.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, got.AckedAt)
	assert.True(t, got.AckedAt.Equal(at.Add(time.Hour)))

	pending, err = repos.Signals.ListPending(ctx, employeeID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[1], pending[0].ID)
}

func testTransactor(t *testing.T, repos Repositories) {
	ctx := context.Background()
	employeeID := newID()
	boom := errors.New("boom")

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repos.Events.Append(ctx, attendance.AttendanceEvent{
			EmployeeID: employeeID,
			SessionID:  newID(),
			EventType:  attendance.EventClockIn,
			Status:     attendance.StatusWorking,
			Timestamp:  baseTime(),
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	seq, err := repos.Events.LatestSeq(ctx, employeeID)
	require.NoError(t, err)
	assert.Zero(t, seq, "append rolled back")

	err = repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repos.Events.Append(ctx, attendance.AttendanceEvent{
			EmployeeID: employeeID,
			SessionID:  newID(),
			EventType:  attendance.EventClockIn,
			Status:     attendance.StatusWorking,
			Timestamp:  baseTime(),
		})
		return err
	})
	require.NoError(t, err)

	seq, err = repos.Events.LatestSeq(ctx, employeeID)
	require.NoError(t, err)
	assert.NotZero(t, seq)
}

// RunSessionCache exercises a session cache against an empty backend.
func RunSessionCache(t *testing.T, cache attendance.SessionCache) {
	ctx := context.Background()
	employeeID := newID()
	department := "dept-1"
	s := attendance.Session{
		ID:               newID(),
		EmployeeID:       employeeID,
		DepartmentID:     &department,
		ClockInTime:      baseTime(),
		AccumulatedBreak: 90 * time.Second,
		Late:             attendance.LateStatus{IsLate: true, LateMinutes: 7, Date: "2026-03-02"},
		IsOvertime:       true,
		OvertimeMinutes:  16,
	}

	got, err := cache.Get(ctx, employeeID, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "miss")

	require.NoError(t, cache.Set(ctx, s))

	got, err = cache.Get(ctx, employeeID, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 90*time.Second, got.AccumulatedBreak)
	assert.Equal(t, s.Late, got.Late)
	assert.True(t, got.ClockInTime.Equal(s.ClockInTime))
	assert.True(t, got.IsOvertime)
	assert.Equal(t, 16, got.OvertimeMinutes)

	got, err = cache.Get(ctx, employeeID, newID())
	require.NoError(t, err)
	assert.Nil(t, got, "entry of another session")

	require.NoError(t, cache.Invalidate(ctx, employeeID))
	got, err = cache.Get(ctx, employeeID, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Invalidate(ctx, employeeID), "invalidating a missing entry")
}
