package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type departmentRepositoryImpl struct {
	db *database.DB
}

func NewDepartmentRepository(db *database.DB) schedule.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

const departmentColumns = `id, name, timezone, schedule_clock_in, schedule_clock_out, grace_period, overtime_threshold, break_types, created_at, updated_at`

// GetByID implements schedule.DepartmentRepository.
func (r *departmentRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.Department, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanDepartment(q.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Department{}, schedule.ErrDepartmentNotFound
		}
		return schedule.Department{}, fmt.Errorf("failed to get department: %w", err)
	}
	return d, nil
}

// List implements schedule.DepartmentRepository.
func (r *departmentRepositoryImpl) List(ctx context.Context) ([]schedule.Department, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var departments []schedule.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate departments: %w", err)
	}
	return departments, nil
}

// Upsert implements schedule.DepartmentRepository.
func (r *departmentRepositoryImpl) Upsert(ctx context.Context, d schedule.Department) (schedule.Department, error) {
	q := GetQuerier(ctx, r.db)

	var (
		clockIn, clockOut     *string
		grace, overtimeThresh int
	)
	if d.Schedule != nil {
		clockIn, clockOut = &d.Schedule.ClockIn, &d.Schedule.ClockOut
		grace, overtimeThresh = d.Schedule.GracePeriod, d.Schedule.OvertimeThreshold
	}
	breakTypes := d.BreakTypes
	if breakTypes == nil {
		breakTypes = []string{}
	}

	query := `
		INSERT INTO departments (id, name, timezone, schedule_clock_in, schedule_clock_out, grace_period, overtime_threshold, break_types)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			schedule_clock_in = EXCLUDED.schedule_clock_in,
			schedule_clock_out = EXCLUDED.schedule_clock_out,
			grace_period = EXCLUDED.grace_period,
			overtime_threshold = EXCLUDED.overtime_threshold,
			break_types = EXCLUDED.break_types,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query, d.ID, d.Name, d.Timezone, clockIn, clockOut, grace, overtimeThresh, breakTypes).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return schedule.Department{}, fmt.Errorf("failed to upsert department: %w", err)
	}
	d.BreakTypes = breakTypes
	return d, nil
}

func scanDepartment(row pgx.Row) (schedule.Department, error) {
	var (
		d                 schedule.Department
		clockIn, clockOut *string
		grace, threshold  int
	)
	err := row.Scan(&d.ID, &d.Name, &d.Timezone, &clockIn, &clockOut, &grace, &threshold, &d.BreakTypes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return schedule.Department{}, err
	}
	if clockIn != nil && clockOut != nil {
		d.Schedule = &schedule.Schedule{
			ClockIn:           *clockIn,
			ClockOut:          *clockOut,
			GracePeriod:       grace,
			OvertimeThreshold: threshold,
		}
	}
	return d, nil
}
