package idle

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	monitor *Monitor
	refs    int
	cancel  context.CancelFunc
}

// Registry owns one Monitor per observed employee. A monitor is started by
// the first Acquire and stopped when the last holder releases it.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*entry
	threshold time.Duration
	tick      time.Duration
	now       func() time.Time
}

func NewRegistry(threshold, tick time.Duration) *Registry {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Registry{
		entries:   make(map[string]*entry),
		threshold: threshold,
		tick:      tick,
		now:       time.Now,
	}
}

// Acquire returns the employee's monitor and a release function that is safe
// to call more than once.
func (r *Registry) Acquire(employeeID string) (*Monitor, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[employeeID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		e = &entry{
			monitor: newMonitor(employeeID, r.threshold, r.now),
			cancel:  cancel,
		}
		r.entries[employeeID] = e
		go e.monitor.run(ctx, r.tick)
	}
	e.refs++

	var once sync.Once
	return e.monitor, func() {
		once.Do(func() { r.release(employeeID, e) })
	}
}

func (r *Registry) release(employeeID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.refs--
	if e.refs > 0 {
		return
	}
	e.cancel()
	if r.entries[employeeID] == e {
		delete(r.entries, employeeID)
	}
}

// Touch records activity for an observed employee. It reports false when
// nobody is watching the employee.
func (r *Registry) Touch(employeeID string) bool {
	r.mu.Lock()
	e, ok := r.entries[employeeID]
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.monitor.Touch()
	return true
}

// Idle reports whether an observed employee is currently idle.
func (r *Registry) Idle(employeeID string) bool {
	r.mu.Lock()
	e, ok := r.entries[employeeID]
	r.mu.Unlock()

	return ok && e.monitor.Idle()
}

// Active returns the number of running monitors.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stop tears down every monitor.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		e.cancel()
		delete(r.entries, id)
	}
}
