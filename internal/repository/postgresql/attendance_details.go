package postgresql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

// detailsRecord is the JSONB shape of attendance_events.details.
type detailsRecord struct {
	Late   *lateRecord   `json:"late,omitempty"`
	Totals *totalsRecord `json:"totals,omitempty"`
}

type lateRecord struct {
	IsLate      bool   `json:"is_late"`
	LateMinutes int    `json:"late_minutes"`
	Date        string `json:"date"`
}

type totalsRecord struct {
	ClockInTime        time.Time `json:"clock_in_time"`
	ClockOutTime       time.Time `json:"clock_out_time"`
	TotalClockTimeMs   int64     `json:"total_clock_time_ms"`
	AccumulatedBreakMs int64     `json:"accumulated_break_ms"`
	IsLate             bool      `json:"is_late"`
	LateMinutes        int       `json:"late_minutes"`
	IsOvertime         bool      `json:"is_overtime"`
	OvertimeMinutes    int       `json:"overtime_minutes"`
	Department         *string   `json:"department,omitempty"`
}

// encodeDetails returns nil for events without details so the column stays NULL.
func encodeDetails(d *attendance.EventDetails) (any, error) {
	if d == nil {
		return nil, nil
	}

	var rec detailsRecord
	if d.Late != nil {
		rec.Late = &lateRecord{
			IsLate:      d.Late.IsLate,
			LateMinutes: d.Late.LateMinutes,
			Date:        d.Late.Date,
		}
	}
	if t := d.Totals; t != nil {
		rec.Totals = &totalsRecord{
			ClockInTime:        t.ClockInTime,
			ClockOutTime:       t.ClockOutTime,
			TotalClockTimeMs:   t.TotalClockTime.Milliseconds(),
			AccumulatedBreakMs: t.AccumulatedBreak.Milliseconds(),
			IsLate:             t.IsLate,
			LateMinutes:        t.LateMinutes,
			IsOvertime:         t.IsOvertime,
			OvertimeMinutes:    t.OvertimeMinutes,
			Department:         t.Department,
		}
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event details: %w", err)
	}
	return b, nil
}

func decodeDetails(raw []byte) (*attendance.EventDetails, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var rec detailsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event details: %w", err)
	}

	d := &attendance.EventDetails{}
	if rec.Late != nil {
		d.Late = &attendance.LateStatus{
			IsLate:      rec.Late.IsLate,
			LateMinutes: rec.Late.LateMinutes,
			Date:        rec.Late.Date,
		}
	}
	if t := rec.Totals; t != nil {
		d.Totals = &attendance.SessionTotals{
			ClockInTime:      t.ClockInTime,
			ClockOutTime:     t.ClockOutTime,
			TotalClockTime:   time.Duration(t.TotalClockTimeMs) * time.Millisecond,
			AccumulatedBreak: time.Duration(t.AccumulatedBreakMs) * time.Millisecond,
			IsLate:           t.IsLate,
			LateMinutes:      t.LateMinutes,
			IsOvertime:       t.IsOvertime,
			OvertimeMinutes:  t.OvertimeMinutes,
			Department:       t.Department,
		}
	}
	return d, nil
}
