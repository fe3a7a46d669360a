package livesync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) all() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}

func newTestChannel(t *testing.T, bufferSize int) (*Channel, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewChannel(sse.NewHub(bufferSize), store.Projections(), store.Events(), store.Signals()), store
}

func appendEvent(t *testing.T, store *memory.Store, employeeID string, eventType attendance.EventType, status attendance.Status) (attendance.AttendanceEvent, *attendance.StatusProjection) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	ev, err := store.Events().Append(ctx, attendance.AttendanceEvent{
		EmployeeID: employeeID,
		SessionID:  "session-1",
		EventType:  eventType,
		Status:     status,
		Timestamp:  now,
	})
	require.NoError(t, err)

	p := attendance.StatusProjection{
		EmployeeID:     employeeID,
		SessionID:      "session-1",
		Status:         status,
		StateStartTime: now,
		ClockInTime:    now,
		LastEventSeq:   ev.Seq,
		UpdatedAt:      now,
	}
	require.NoError(t, store.Projections().Put(ctx, p))
	return ev, &p
}

func TestChannel_SubscribeDeliversSnapshotSynchronously(t *testing.T) {
	ch, store := newTestChannel(t, 8)
	_, _ = appendEvent(t, store, "emp-1", attendance.EventClockIn, attendance.StatusWorking)

	_, err := store.Signals().Create(context.Background(), signal.Signal{
		EmployeeID: "emp-1",
		Kind:       signal.KindBuzz,
		SenderID:   "admin-1",
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)

	rec := &recorder{}
	unsubscribe, err := ch.Subscribe(context.Background(), "emp-1", rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, ChangeSnapshot, got[0].Kind)
	assert.Equal(t, attendance.StatusWorking, got[0].Status())
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Len(t, got[0].Signals, 1)
}

func TestChannel_SnapshotOfClockedOutEmployee(t *testing.T) {
	ch, _ := newTestChannel(t, 8)

	snapshot, err := ch.Snapshot(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusClockedOut, snapshot.Status())
	assert.Equal(t, int64(0), snapshot.Seq)
}

func TestChannel_DeliversChangesInOrderAndSkipsStaleSeq(t *testing.T) {
	ch, store := newTestChannel(t, 8)
	clockIn, p := appendEvent(t, store, "emp-1", attendance.EventClockIn, attendance.StatusWorking)

	rec := &recorder{}
	unsubscribe, err := ch.Subscribe(context.Background(), "emp-1", rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	// already reflected by the snapshot
	ch.PublishStatus(clockIn, p)

	lunch, lp := appendEvent(t, store, "emp-1", attendance.BreakStartEvent("Lunch"), "Lunch")
	ch.PublishStatus(lunch, lp)
	resume, rp := appendEvent(t, store, "emp-1", attendance.EventResumeWorking, attendance.StatusWorking)
	ch.PublishStatus(resume, rp)

	require.Eventually(t, func() bool { return len(rec.all()) == 3 }, time.Second, 5*time.Millisecond)

	got := rec.all()
	assert.Equal(t, ChangeSnapshot, got[0].Kind)
	assert.Equal(t, lunch.Seq, got[1].Seq)
	assert.Equal(t, attendance.Status("Lunch"), got[1].Status())
	assert.Equal(t, resume.Seq, got[2].Seq)
	assert.Equal(t, attendance.StatusWorking, got[2].Status())
}

func TestChannel_ClockOutChangeHasNoProjection(t *testing.T) {
	ch, store := newTestChannel(t, 8)
	_, _ = appendEvent(t, store, "emp-1", attendance.EventClockIn, attendance.StatusWorking)

	rec := &recorder{}
	unsubscribe, err := ch.Subscribe(context.Background(), "emp-1", rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	ch.PublishStatus(attendance.AttendanceEvent{EmployeeID: "emp-1", Seq: 2, EventType: attendance.EventClockOut}, nil)

	require.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, attendance.StatusClockedOut, rec.all()[1].Status())
}

func TestChannel_UnsubscribeIsIdempotent(t *testing.T) {
	ch, _ := newTestChannel(t, 8)

	rec := &recorder{}
	unsubscribe, err := ch.Subscribe(context.Background(), "emp-1", rec.record)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Observers("emp-1"))

	unsubscribe()
	require.NotPanics(t, unsubscribe)
	assert.Equal(t, 0, ch.Observers("emp-1"))

	ch.PublishStatus(attendance.AttendanceEvent{EmployeeID: "emp-1", Seq: 5}, nil)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.all(), 1)
}

func TestChannel_ContextCancelEndsSubscription(t *testing.T) {
	ch, _ := newTestChannel(t, 8)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := ch.Subscribe(ctx, "emp-1", func(Change) {})
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool { return ch.Observers("emp-1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestChannel_MultipleObserversAndSignals(t *testing.T) {
	ch, _ := newTestChannel(t, 8)

	tab, admin := &recorder{}, &recorder{}
	u1, err := ch.Subscribe(context.Background(), "emp-1", tab.record)
	require.NoError(t, err)
	defer u1()
	u2, err := ch.Subscribe(context.Background(), "emp-1", admin.record)
	require.NoError(t, err)
	defer u2()

	ch.PublishSignal(signal.Signal{ID: "sig-1", EmployeeID: "emp-1", Kind: signal.KindBuzz})

	for _, rec := range []*recorder{tab, admin} {
		require.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
		got := rec.all()[1]
		assert.Equal(t, ChangeSignal, got.Kind)
		require.NotNil(t, got.Signal)
		assert.Equal(t, "sig-1", got.Signal.ID)
	}
}

func TestChannel_OverflowResyncsFromSnapshot(t *testing.T) {
	ch, store := newTestChannel(t, 1)
	_, _ = appendEvent(t, store, "emp-1", attendance.EventClockIn, attendance.StatusWorking)

	block := make(chan struct{})
	rec := &recorder{}
	first := true
	unsubscribe, err := ch.Subscribe(context.Background(), "emp-1", func(c Change) {
		rec.record(c)
		if c.Kind == ChangeStatus && first {
			first = false
			<-block
		}
	})
	require.NoError(t, err)
	defer unsubscribe()

	var last attendance.AttendanceEvent
	for i := 0; i < 4; i++ {
		ev, p := appendEvent(t, store, "emp-1", attendance.EventStartStandby, attendance.StatusStandby)
		ch.PublishStatus(ev, p)
		last = ev
		time.Sleep(5 * time.Millisecond)
	}
	close(block)

	require.Eventually(t, func() bool {
		for _, c := range rec.all() {
			if c.Kind == ChangeSnapshot && c.Seq == last.Seq {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	var prev int64
	for _, c := range rec.all() {
		if c.Kind == ChangeStatus {
			assert.Greater(t, c.Seq, prev)
			prev = c.Seq
		}
		if c.Kind == ChangeSnapshot && c.Seq > prev {
			prev = c.Seq
		}
	}
}
