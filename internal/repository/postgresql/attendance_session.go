package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceSessionRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceSessionRepository(db *database.DB) attendance.SessionRepository {
	return &attendanceSessionRepositoryImpl{db: db}
}

// Create implements attendance.SessionRepository.
func (r *attendanceSessionRepositoryImpl) Create(ctx context.Context, s attendance.Session) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_sessions (
			id, employee_id, department_id, clock_in_time, accumulated_break_ms,
			is_late, late_minutes, late_date, is_overtime, overtime_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.Exec(ctx, query,
		s.ID,
		s.EmployeeID,
		s.DepartmentID,
		s.ClockInTime,
		s.AccumulatedBreak.Milliseconds(),
		s.Late.IsLate,
		s.Late.LateMinutes,
		s.Late.Date,
		s.IsOvertime,
		s.OvertimeMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance session: %w", err)
	}
	return nil
}

// GetByID implements attendance.SessionRepository.
func (r *attendanceSessionRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, department_id, clock_in_time, accumulated_break_ms,
			is_late, late_minutes, late_date, is_overtime, overtime_minutes,
			closed_at, created_at, updated_at
		FROM attendance_sessions
		WHERE id = $1
	`
	var (
		s       attendance.Session
		breakMs int64
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.EmployeeID,
		&s.DepartmentID,
		&s.ClockInTime,
		&breakMs,
		&s.Late.IsLate,
		&s.Late.LateMinutes,
		&s.Late.Date,
		&s.IsOvertime,
		&s.OvertimeMinutes,
		&s.ClosedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get attendance session: %w", err)
	}
	s.AccumulatedBreak = time.Duration(breakMs) * time.Millisecond
	return s, nil
}

// AddBreak implements attendance.SessionRepository.
func (r *attendanceSessionRepositoryImpl) AddBreak(ctx context.Context, id string, segment time.Duration) error {
	return r.update(ctx, "add break to attendance session",
		`UPDATE attendance_sessions SET accumulated_break_ms = accumulated_break_ms + $2, updated_at = NOW() WHERE id = $1`,
		id, segment.Milliseconds())
}

// SetAccumulatedBreak implements attendance.SessionRepository.
func (r *attendanceSessionRepositoryImpl) SetAccumulatedBreak(ctx context.Context, id string, total time.Duration) error {
	return r.update(ctx, "set accumulated break",
		`UPDATE attendance_sessions SET accumulated_break_ms = $2, updated_at = NOW() WHERE id = $1`,
		id, total.Milliseconds())
}

// MarkOvertime implements attendance.SessionRepository.
func (r *attendanceSessionRepositoryImpl) MarkOvertime(ctx context.Context, id string, minutes int) error {
	return r.update(ctx, "mark overtime",
		`UPDATE attendance_sessions SET is_overtime = TRUE, overtime_minutes = GREATEST(overtime_minutes, $2), updated_at = NOW() WHERE id = $1`,
		id, minutes)
}

// Close implements attendance.SessionRepository.
func (r *attendanceSessionRepositoryImpl) Close(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "close attendance session",
		`UPDATE attendance_sessions SET closed_at = $2, updated_at = NOW() WHERE id = $1`,
		id, at)
}

func (r *attendanceSessionRepositoryImpl) update(ctx context.Context, action, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrSessionNotFound
	}
	return nil
}
