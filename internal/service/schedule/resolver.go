package schedule

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

// The functions in this file are pure. A nil schedule or one whose times do
// not parse is treated as "no schedule": always within hours, never late,
// never in overtime. Bounds are taken on the calendar day of now in loc, so
// a window whose clock-in is after its clock-out never contains now.

// parseClock parses "HH:MM".
func parseClock(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// bounds returns today's scheduled clock-in and clock-out instants.
func bounds(now time.Time, s *schedule.Schedule, loc *time.Location) (in, out time.Time, ok bool) {
	if s == nil {
		return time.Time{}, time.Time{}, false
	}
	inH, inM, okIn := parseClock(s.ClockIn)
	outH, outM, okOut := parseClock(s.ClockOut)
	if !okIn || !okOut {
		return time.Time{}, time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	y, m, d := now.In(loc).Date()
	in = time.Date(y, m, d, inH, inM, 0, 0, loc)
	out = time.Date(y, m, d, outH, outM, 0, 0, loc)
	return in, out, true
}

// floorMinutes is the floor of a duration expressed in minutes.
func floorMinutes(d time.Duration) int {
	return int(math.Floor(float64(d) / float64(time.Minute)))
}

// IsWithinSchedule reports whether now falls in [clockIn, clockOut] today.
func IsWithinSchedule(now time.Time, s *schedule.Schedule, loc *time.Location) bool {
	in, out, ok := bounds(now, s, loc)
	if !ok {
		return true
	}
	return !now.Before(in) && !now.After(out)
}

// MinutesFromScheduledClockIn is negative before the scheduled clock-in.
func MinutesFromScheduledClockIn(now time.Time, s *schedule.Schedule, loc *time.Location) int {
	in, _, ok := bounds(now, s, loc)
	if !ok {
		return 0
	}
	return floorMinutes(now.Sub(in))
}

// MinutesPastScheduledClockOut is negative before the scheduled clock-out.
func MinutesPastScheduledClockOut(now time.Time, s *schedule.Schedule, loc *time.Location) int {
	_, out, ok := bounds(now, s, loc)
	if !ok {
		return 0
	}
	return floorMinutes(now.Sub(out))
}

// Lateness evaluates a clock-in at now. Late only when the delay is strictly
// greater than the grace period; the reported minutes are the full delay.
func Lateness(now time.Time, s *schedule.Schedule, loc *time.Location) (late bool, minutes int) {
	if _, _, ok := bounds(now, s, loc); !ok {
		return false, 0
	}
	minutes = MinutesFromScheduledClockIn(now, s, loc)
	if minutes > s.GracePeriod {
		return true, minutes
	}
	return false, 0
}

// Overtime reports whether now is strictly beyond the overtime threshold
// past the scheduled clock-out.
func Overtime(now time.Time, s *schedule.Schedule, loc *time.Location) (overtime bool, minutes int) {
	if _, _, ok := bounds(now, s, loc); !ok {
		return false, 0
	}
	minutes = MinutesPastScheduledClockOut(now, s, loc)
	if minutes > s.OvertimeThreshold {
		return true, minutes
	}
	return false, 0
}

// Boundaries returns the instants at which the schedule-driven transitions
// of the current day become due: window start, just past window end, and
// just past the overtime threshold.
func Boundaries(now time.Time, s *schedule.Schedule, loc *time.Location) []time.Time {
	in, out, ok := bounds(now, s, loc)
	if !ok {
		return nil
	}
	return []time.Time{
		in,
		out.Add(time.Minute),
		out.Add(time.Duration(s.OvertimeThreshold+1) * time.Minute),
	}
}

// DateString formats the calendar day of t in loc.
func DateString(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}
