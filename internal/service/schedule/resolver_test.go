package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var office = &schedule.Schedule{ClockIn: "09:00", ClockOut: "17:00", GracePeriod: 10, OvertimeThreshold: 15}

func utc(hour, minute, second int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, second, 0, time.UTC)
}

func TestIsWithinSchedule(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", utc(8, 59, 59), false},
		{"at start", utc(9, 0, 0), true},
		{"midday", utc(12, 0, 0), true},
		{"at end", utc(17, 0, 0), true},
		{"after end", utc(17, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinSchedule(tt.now, office, time.UTC))
		})
	}
}

func TestIsWithinSchedule_FailsOpen(t *testing.T) {
	assert.True(t, IsWithinSchedule(utc(3, 0, 0), nil, time.UTC))
	assert.True(t, IsWithinSchedule(utc(3, 0, 0), &schedule.Schedule{ClockIn: "9am", ClockOut: "17:00"}, time.UTC))
	assert.True(t, IsWithinSchedule(utc(3, 0, 0), &schedule.Schedule{ClockIn: "09:00", ClockOut: "24:00"}, time.UTC))
}

func TestIsWithinSchedule_OvernightWindowNeverContains(t *testing.T) {
	night := &schedule.Schedule{ClockIn: "22:00", ClockOut: "06:00"}
	assert.False(t, IsWithinSchedule(utc(23, 0, 0), night, time.UTC))
	assert.False(t, IsWithinSchedule(utc(5, 0, 0), night, time.UTC))
}

func TestIsWithinSchedule_UsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	// 02:30 UTC is 09:30 in Jakarta
	assert.True(t, IsWithinSchedule(utc(2, 30, 0), office, jakarta))
	assert.False(t, IsWithinSchedule(utc(12, 0, 0), office, jakarta))
}

func TestLateness(t *testing.T) {
	tests := []struct {
		name        string
		now         time.Time
		wantLate    bool
		wantMinutes int
	}{
		{"early", utc(8, 30, 0), false, 0},
		{"within grace", utc(9, 5, 0), false, 0},
		{"grace boundary", utc(9, 10, 59), false, 0},
		{"past grace", utc(9, 11, 0), true, 11},
		{"afternoon", utc(13, 0, 0), true, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			late, minutes := Lateness(tt.now, office, time.UTC)
			assert.Equal(t, tt.wantLate, late)
			assert.Equal(t, tt.wantMinutes, minutes)
		})
	}

	late, minutes := Lateness(utc(13, 0, 0), nil, time.UTC)
	assert.False(t, late)
	assert.Zero(t, minutes)
}

func TestOvertime(t *testing.T) {
	tests := []struct {
		name         string
		now          time.Time
		wantOvertime bool
		wantMinutes  int
	}{
		{"during the day", utc(12, 0, 0), false, 0},
		{"at threshold", utc(17, 15, 59), false, 0},
		{"past threshold", utc(17, 16, 0), true, 16},
		{"evening", utc(19, 0, 0), true, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overtime, minutes := Overtime(tt.now, office, time.UTC)
			assert.Equal(t, tt.wantOvertime, overtime)
			assert.Equal(t, tt.wantMinutes, minutes)
		})
	}
}

func TestMinutesFloor(t *testing.T) {
	assert.Equal(t, -1, MinutesFromScheduledClockIn(utc(8, 59, 30), office, time.UTC))
	assert.Equal(t, 0, MinutesFromScheduledClockIn(utc(9, 0, 59), office, time.UTC))
	assert.Equal(t, 2, MinutesPastScheduledClockOut(utc(17, 2, 30), office, time.UTC))
}

func TestBoundaries(t *testing.T) {
	got := Boundaries(utc(7, 0, 0), office, time.UTC)
	assert.Equal(t, []time.Time{utc(9, 0, 0), utc(17, 1, 0), utc(17, 16, 0)}, got)

	assert.Nil(t, Boundaries(utc(7, 0, 0), nil, time.UTC))
}

func TestDateString(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	assert.Equal(t, "2026-03-02", DateString(utc(20, 0, 0), time.UTC))
	assert.Equal(t, "2026-03-03", DateString(utc(20, 0, 0), jakarta))
	assert.Equal(t, "2026-03-02", DateString(utc(20, 0, 0), nil))
}

func TestDepartmentService_Resolve(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewDepartmentService(store.Departments())

	_, err := store.Departments().Upsert(ctx, schedule.Department{ID: "ops", Name: "Operations", Schedule: office})
	require.NoError(t, err)

	dept := svc.Resolve(ctx, strPtr("ops"))
	require.NotNil(t, dept)
	assert.Equal(t, attendance.DefaultBreakTypes, dept.BreakTypes)
	assert.Equal(t, office, dept.Schedule)

	assert.Nil(t, svc.Resolve(ctx, nil))
	assert.Nil(t, svc.Resolve(ctx, strPtr("")))
	assert.Nil(t, svc.Resolve(ctx, strPtr("missing")))
}

func TestDepartmentService_Upsert(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewDepartmentService(store.Departments())

	resp, err := svc.UpsertDepartment(ctx, schedule.UpsertDepartmentRequest{
		ID:       "ops",
		Name:     "Operations",
		Timezone: "Asia/Jakarta",
		Schedule: &schedule.ScheduleRequest{ClockIn: "08:00", ClockOut: "16:00", GracePeriod: 5, OvertimeThreshold: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.DefaultBreakTypes, resp.BreakTypes)
	require.NotNil(t, resp.Schedule)
	assert.Equal(t, "08:00", resp.Schedule.ClockIn)

	got, err := svc.GetDepartment(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", got.Timezone)

	_, err = svc.GetDepartment(ctx, "missing")
	assert.ErrorIs(t, err, schedule.ErrDepartmentNotFound)
}

func TestDepartmentService_UpsertValidation(t *testing.T) {
	svc := NewDepartmentService(memory.NewStore().Departments())

	_, err := svc.UpsertDepartment(context.Background(), schedule.UpsertDepartmentRequest{
		ID:         "ops",
		Name:       "Operations",
		Timezone:   "Mars/Olympus",
		Schedule:   &schedule.ScheduleRequest{ClockIn: "9:00", ClockOut: "17:00"},
		BreakTypes: []string{"Lunch", "Standby"},
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"timezone", "schedule.clock_in", "break_types"}, fields)
}

func strPtr(s string) *string { return &s }
