package idle

import (
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMonitor() (*Monitor, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	return newMonitor("emp-1", DefaultThreshold, clock.Now), clock
}

func TestMonitor_IdleAfterThresholdWhileWorking(t *testing.T) {
	m, clock := newTestMonitor()
	m.SetStatus(attendance.StatusWorking)

	clock.Advance(5 * time.Minute)
	m.check()
	assert.False(t, m.Idle(), "exactly the threshold is not idle")

	clock.Advance(time.Second)
	m.check()
	assert.True(t, m.Idle())
	assert.Equal(t, attendance.StatusWorkingIdle, m.Display(attendance.StatusWorking))
}

func TestMonitor_TouchResetsIdle(t *testing.T) {
	m, clock := newTestMonitor()
	m.SetStatus(attendance.StatusWorking)

	clock.Advance(6 * time.Minute)
	m.check()
	require.True(t, m.Idle())

	m.Touch()
	assert.False(t, m.Idle())
	assert.Equal(t, attendance.StatusWorking, m.Display(attendance.StatusWorking))

	clock.Advance(4 * time.Minute)
	m.check()
	assert.False(t, m.Idle())
}

func TestMonitor_NotTrackedOutsideWorking(t *testing.T) {
	m, clock := newTestMonitor()

	for _, status := range []attendance.Status{attendance.StatusStandby, "Lunch", attendance.StatusClockedOut} {
		m.SetStatus(status)
		clock.Advance(10 * time.Minute)
		m.check()
		assert.False(t, m.Idle(), status)
		assert.Equal(t, status, m.Display(status))
	}
}

func TestMonitor_LeavingWorkingClearsIdle(t *testing.T) {
	m, clock := newTestMonitor()
	m.SetStatus(attendance.StatusWorking)
	clock.Advance(6 * time.Minute)
	m.check()
	require.True(t, m.Idle())

	m.SetStatus("Lunch")
	assert.False(t, m.Idle())

	// back from lunch starts a fresh activity window
	clock.Advance(time.Hour)
	m.SetStatus(attendance.StatusWorking)
	m.check()
	assert.False(t, m.Idle())
}

func TestMonitor_WatchReceivesFlips(t *testing.T) {
	m, clock := newTestMonitor()
	ch, stop := m.Watch()
	defer stop()

	m.SetStatus(attendance.StatusWorking)
	clock.Advance(6 * time.Minute)
	m.check()
	assert.True(t, <-ch)

	m.Touch()
	assert.False(t, <-ch)

	stop()
	require.NotPanics(t, stop)
}

func TestRegistry_RefCountedTeardown(t *testing.T) {
	r := NewRegistry(time.Minute, 10*time.Millisecond)
	defer r.Stop()

	m1, release1 := r.Acquire("emp-1")
	m2, release2 := r.Acquire("emp-1")
	assert.Same(t, m1, m2)
	assert.Equal(t, 1, r.Active())
	assert.True(t, r.Touch("emp-1"))

	release1()
	release1()
	assert.Equal(t, 1, r.Active())

	release2()
	assert.Equal(t, 0, r.Active())
	assert.False(t, r.Touch("emp-1"))
}

func TestRegistry_TickMarksIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	r := NewRegistry(time.Minute, 5*time.Millisecond)
	r.now = clock.Now
	defer r.Stop()

	m, release := r.Acquire("emp-1")
	defer release()

	m.SetStatus(attendance.StatusWorking)
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, m.Idle, time.Second, 5*time.Millisecond)
	assert.True(t, r.Idle("emp-1"))
	assert.False(t, r.Idle("emp-2"))
}
