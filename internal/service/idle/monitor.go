package idle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

const (
	DefaultThreshold = 5 * time.Minute
	DefaultTick      = time.Second
)

// Monitor tracks the last activity of one employee. It only affects the
// displayed status and never writes events.
type Monitor struct {
	mu           sync.Mutex
	employeeID   string
	working      bool
	idle         bool
	lastActivity time.Time
	threshold    time.Duration
	now          func() time.Time
	listeners    map[chan bool]struct{}
}

func newMonitor(employeeID string, threshold time.Duration, now func() time.Time) *Monitor {
	return &Monitor{
		employeeID:   employeeID,
		lastActivity: now(),
		threshold:    threshold,
		now:          now,
		listeners:    make(map[chan bool]struct{}),
	}
}

// SetStatus feeds the canonical status. Idle tracking only runs while
// Working; entering Working restarts the activity clock.
func (m *Monitor) SetStatus(status attendance.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := status.IsWorking()
	if working && !m.working {
		m.lastActivity = m.now()
	}
	m.working = working
	if !working {
		m.setIdle(false)
	}
}

// Touch records activity and clears the idle overlay.
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastActivity = m.now()
	m.setIdle(false)
}

func (m *Monitor) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}

// Display applies the idle overlay to a canonical status.
func (m *Monitor) Display(status attendance.Status) attendance.Status {
	if status.IsWorking() && m.Idle() {
		return attendance.StatusWorkingIdle
	}
	return status
}

// Watch returns a channel receiving the idle flag each time it flips.
// Only the latest value is kept for a slow reader.
func (m *Monitor) Watch() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 1)
	m.listeners[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners, ch)
		})
	}
}

func (m *Monitor) check() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.working || m.idle {
		return
	}
	if m.now().Sub(m.lastActivity) > m.threshold {
		m.setIdle(true)
		slog.Debug("Employee went idle", "employee_id", m.employeeID, "last_activity", m.lastActivity)
	}
}

// setIdle must be called with mu held.
func (m *Monitor) setIdle(idle bool) {
	if m.idle == idle {
		return
	}
	m.idle = idle
	for ch := range m.listeners {
		select {
		case ch <- idle:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- idle
		}
	}
}

func (m *Monitor) run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}
