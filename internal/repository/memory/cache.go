package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

type cacheEntry struct {
	session  attendance.Session
	cachedOn string
}

// SessionCache is the in-process attendance.SessionCache used when Redis is
// not configured. Entries written on an earlier UTC day are dropped on read.
type SessionCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry // by employee ID
	now     func() time.Time
}

func NewSessionCache() *SessionCache {
	return &SessionCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *SessionCache) today() string {
	return c.now().UTC().Format("2006-01-02")
}

func (c *SessionCache) Get(ctx context.Context, employeeID, sessionID string) (*attendance.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[employeeID]
	if !ok {
		return nil, nil
	}
	if e.cachedOn != c.today() {
		delete(c.entries, employeeID)
		return nil, nil
	}
	if e.session.ID != sessionID {
		return nil, nil
	}
	s := e.session
	return &s, nil
}

func (c *SessionCache) Set(ctx context.Context, session attendance.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[session.EmployeeID] = cacheEntry{session: session, cachedOn: c.today()}
	return nil
}

func (c *SessionCache) Invalidate(ctx context.Context, employeeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, employeeID)
	return nil
}
