package schedule

import "time"

// Department owns the work schedule and the break types of its employees.
type Department struct {
	ID         string
	Name       string
	Timezone   string // IANA name, e.g. Asia/Jakarta
	Schedule   *Schedule
	BreakTypes []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Schedule is a daily work window. Times are "HH:MM" in the department
// timezone; a window with ClockIn after ClockOut does not cross midnight.
type Schedule struct {
	ClockIn           string
	ClockOut          string
	GracePeriod       int // minutes
	OvertimeThreshold int // minutes
}

// Location resolves the department timezone, falling back to fallback
// when it is empty or unknown.
func (d Department) Location(fallback *time.Location) *time.Location {
	if d.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// HasBreakType reports whether breakType belongs to the department's set.
func (d Department) HasBreakType(breakType string) bool {
	for _, b := range d.BreakTypes {
		if b == breakType {
			return true
		}
	}
	return false
}
