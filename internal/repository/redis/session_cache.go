package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "timeclock:session:"

// cachedSession is the JSON value stored per employee.
type cachedSession struct {
	ID                 string    `json:"id"`
	EmployeeID         string    `json:"employee_id"`
	DepartmentID       *string   `json:"department_id,omitempty"`
	ClockInTime        time.Time `json:"clock_in_time"`
	AccumulatedBreakMs int64     `json:"accumulated_break_ms"`
	IsLate             bool      `json:"is_late"`
	LateMinutes        int       `json:"late_minutes"`
	LateDate           string    `json:"late_date"`
	IsOvertime         bool      `json:"is_overtime"`
	OvertimeMinutes    int       `json:"overtime_minutes"`
	CachedOn           string    `json:"cached_on"`
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionCache returns a Redis backed attendance.SessionCache. Entries
// expire after ttl and are ignored when written on an earlier UTC day.
func NewSessionCache(client *redis.Client, ttl time.Duration) attendance.SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionCache{client: client, ttl: ttl, now: time.Now}
}

func (c *sessionCache) key(employeeID string) string {
	return keyPrefix + employeeID
}

func (c *sessionCache) today() string {
	return c.now().UTC().Format("2006-01-02")
}

// Get implements attendance.SessionCache.
func (c *sessionCache) Get(ctx context.Context, employeeID, sessionID string) (*attendance.Session, error) {
	raw, err := c.client.Get(ctx, c.key(employeeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}

	var v cachedSession
	if err := json.Unmarshal(raw, &v); err != nil {
		c.drop(ctx, employeeID, "undecodable entry")
		return nil, nil
	}
	if v.CachedOn != c.today() {
		c.drop(ctx, employeeID, "entry from an earlier day")
		return nil, nil
	}
	if v.ID != sessionID {
		return nil, nil
	}

	return &attendance.Session{
		ID:               v.ID,
		EmployeeID:       v.EmployeeID,
		DepartmentID:     v.DepartmentID,
		ClockInTime:      v.ClockInTime,
		AccumulatedBreak: time.Duration(v.AccumulatedBreakMs) * time.Millisecond,
		Late: attendance.LateStatus{
			IsLate:      v.IsLate,
			LateMinutes: v.LateMinutes,
			Date:        v.LateDate,
		},
		IsOvertime:      v.IsOvertime,
		OvertimeMinutes: v.OvertimeMinutes,
	}, nil
}

// Set implements attendance.SessionCache.
func (c *sessionCache) Set(ctx context.Context, s attendance.Session) error {
	raw, err := json.Marshal(cachedSession{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		DepartmentID:       s.DepartmentID,
		ClockInTime:        s.ClockInTime,
		AccumulatedBreakMs: s.AccumulatedBreak.Milliseconds(),
		IsLate:             s.Late.IsLate,
		LateMinutes:        s.Late.LateMinutes,
		LateDate:           s.Late.Date,
		IsOvertime:         s.IsOvertime,
		OvertimeMinutes:    s.OvertimeMinutes,
		CachedOn:           c.today(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(s.EmployeeID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session cache: %w", err)
	}
	return nil
}

// Invalidate implements attendance.SessionCache.
func (c *sessionCache) Invalidate(ctx context.Context, employeeID string) error {
	if err := c.client.Del(ctx, c.key(employeeID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate session cache: %w", err)
	}
	return nil
}

// drop evicts an entry Get refuses to serve. A failed eviction only costs
// another miss, so it is logged rather than returned.
func (c *sessionCache) drop(ctx context.Context, employeeID, reason string) {
	if err := c.Invalidate(ctx, employeeID); err != nil {
		slog.Warn("Failed to drop session cache entry", "employee_id", employeeID, "reason", reason, "error", err)
	}
}
