package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type statusProjectionRepositoryImpl struct {
	db *database.DB
}

func NewStatusProjectionRepository(db *database.DB) attendance.StatusRepository {
	return &statusProjectionRepositoryImpl{db: db}
}

const projectionColumns = `employee_id, session_id, status, state_start_time, clock_in_time, last_event_seq, updated_at`

// Get implements attendance.StatusRepository.
func (r *statusProjectionRepositoryImpl) Get(ctx context.Context, employeeID string) (*attendance.StatusProjection, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + projectionColumns + ` FROM status_projections WHERE employee_id = $1`
	p, err := scanProjection(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get status projection: %w", err)
	}
	return &p, nil
}

// Insert implements attendance.StatusRepository.
func (r *statusProjectionRepositoryImpl) Insert(ctx context.Context, p attendance.StatusProjection) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO status_projections (` + projectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id) DO NOTHING
	`
	tag, err := q.Exec(ctx, query, p.EmployeeID, p.SessionID, string(p.Status), p.StateStartTime, p.ClockInTime, p.LastEventSeq, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert status projection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrStaleProjection
	}
	return nil
}

// Replace implements attendance.StatusRepository.
func (r *statusProjectionRepositoryImpl) Replace(ctx context.Context, p attendance.StatusProjection, expectedSeq int64) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE status_projections
		SET session_id = $2, status = $3, state_start_time = $4, clock_in_time = $5, last_event_seq = $6, updated_at = $7
		WHERE employee_id = $1 AND last_event_seq = $8
	`
	tag, err := q.Exec(ctx, query, p.EmployeeID, p.SessionID, string(p.Status), p.StateStartTime, p.ClockInTime, p.LastEventSeq, p.UpdatedAt, expectedSeq)
	if err != nil {
		return fmt.Errorf("failed to update status projection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrStaleProjection
	}
	return nil
}

// Delete implements attendance.StatusRepository.
func (r *statusProjectionRepositoryImpl) Delete(ctx context.Context, employeeID string, expectedSeq int64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM status_projections WHERE employee_id = $1 AND last_event_seq = $2`, employeeID, expectedSeq)
	if err != nil {
		return fmt.Errorf("failed to delete status projection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrStaleProjection
	}
	return nil
}

// Put implements attendance.StatusRepository.
func (r *statusProjectionRepositoryImpl) Put(ctx context.Context, p attendance.StatusProjection) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO status_projections (` + projectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			status = EXCLUDED.status,
			state_start_time = EXCLUDED.state_start_time,
			clock_in_time = EXCLUDED.clock_in_time,
			last_event_seq = EXCLUDED.last_event_seq,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := q.Exec(ctx, query, p.EmployeeID, p.SessionID, string(p.Status), p.StateStartTime, p.ClockInTime, p.LastEventSeq, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to put status projection: %w", err)
	}
	return nil
}

// ListActive implements attendance.StatusRepository.
func (r *statusProjectionRepositoryImpl) ListActive(ctx context.Context) ([]attendance.StatusProjection, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+projectionColumns+` FROM status_projections ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list status projections: %w", err)
	}
	defer rows.Close()

	var projections []attendance.StatusProjection
	for rows.Next() {
		p, err := scanProjection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status projection: %w", err)
		}
		projections = append(projections, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status projections: %w", err)
	}
	return projections, nil
}

func scanProjection(row pgx.Row) (attendance.StatusProjection, error) {
	var (
		p      attendance.StatusProjection
		status string
	)
	err := row.Scan(&p.EmployeeID, &p.SessionID, &status, &p.StateStartTime, &p.ClockInTime, &p.LastEventSeq, &p.UpdatedAt)
	p.Status = attendance.Status(status)
	return p, err
}
