package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type attendanceSummaryRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceSummaryRepository(db *database.DB) attendance.SummaryRepository {
	return &attendanceSummaryRepositoryImpl{db: db}
}

// Create implements attendance.SummaryRepository.
func (r *attendanceSummaryRepositoryImpl) Create(ctx context.Context, s attendance.AttendanceSummary) (attendance.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceSummary{}, fmt.Errorf("failed to generate summary id: %w", err)
		}
		s.ID = id.String()
	}

	query := `
		INSERT INTO attendance_summaries (
			id, employee_id, session_id, date, clock_in_time, clock_out_time,
			total_clock_time_ms, accumulated_break_ms, is_late, late_minutes,
			is_overtime, overtime_minutes, department
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query,
		s.ID,
		s.EmployeeID,
		s.SessionID,
		s.Date,
		s.ClockInTime,
		s.ClockOutTime,
		s.TotalClockTime.Milliseconds(),
		s.AccumulatedBreak.Milliseconds(),
		s.IsLate,
		s.LateMinutes,
		s.IsOvertime,
		s.OvertimeMinutes,
		s.Department,
	).Scan(&s.CreatedAt)
	if err != nil {
		return attendance.AttendanceSummary{}, fmt.Errorf("failed to create attendance summary: %w", err)
	}
	return s, nil
}

// ListByEmployee implements attendance.SummaryRepository.
func (r *attendanceSummaryRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter attendance.SummaryFilter) ([]attendance.AttendanceSummary, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "employee_id = $1"
	args := []interface{}{employeeID}
	argIdx := 2

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_summaries WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance summaries: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT id, employee_id, session_id, date, clock_in_time, clock_out_time,
			total_clock_time_ms, accumulated_break_ms, is_late, late_minutes,
			is_overtime, overtime_minutes, department, created_at
		FROM attendance_summaries
		WHERE %s
		ORDER BY date DESC, clock_out_time DESC
		LIMIT $%d OFFSET $%d
	`, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance summaries: %w", err)
	}
	defer rows.Close()

	var summaries []attendance.AttendanceSummary
	for rows.Next() {
		var (
			s                attendance.AttendanceSummary
			totalMs, breakMs int64
		)
		err := rows.Scan(
			&s.ID,
			&s.EmployeeID,
			&s.SessionID,
			&s.Date,
			&s.ClockInTime,
			&s.ClockOutTime,
			&totalMs,
			&breakMs,
			&s.IsLate,
			&s.LateMinutes,
			&s.IsOvertime,
			&s.OvertimeMinutes,
			&s.Department,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		s.TotalClockTime = time.Duration(totalMs) * time.Millisecond
		s.AccumulatedBreak = time.Duration(breakMs) * time.Millisecond
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendance summaries: %w", err)
	}

	return summaries, total, nil
}
