package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type attendanceEventRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceEventRepository(db *database.DB) attendance.EventRepository {
	return &attendanceEventRepositoryImpl{db: db}
}

// Append implements attendance.EventRepository.
func (r *attendanceEventRepositoryImpl) Append(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceEvent{}, fmt.Errorf("failed to generate event id: %w", err)
		}
		event.ID = id.String()
	}

	details, err := encodeDetails(event.Details)
	if err != nil {
		return attendance.AttendanceEvent{}, err
	}

	query := `
		INSERT INTO attendance_events (id, employee_id, session_id, event_type, status, occurred_at, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`
	err = q.QueryRow(ctx, query,
		event.ID,
		event.EmployeeID,
		event.SessionID,
		string(event.EventType),
		string(event.Status),
		event.Timestamp,
		details,
	).Scan(&event.Seq)
	if err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("failed to append attendance event: %w", err)
	}

	return event, nil
}

// ListByEmployee implements attendance.EventRepository.
func (r *attendanceEventRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter attendance.HistoryFilter) ([]attendance.AttendanceEvent, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "employee_id = $1"
	args := []interface{}{employeeID}
	argIdx := 2

	if filter.SessionID != nil && *filter.SessionID != "" {
		baseWhere += fmt.Sprintf(" AND session_id = $%d", argIdx)
		args = append(args, *filter.SessionID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND occurred_at >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND occurred_at < $%d::date + 1", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM attendance_events WHERE " + baseWhere
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance events: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT id, seq, employee_id, session_id, event_type, status, occurred_at, details
		FROM attendance_events
		WHERE %s
		ORDER BY seq DESC
		LIMIT $%d OFFSET $%d
	`, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListBySession implements attendance.EventRepository.
func (r *attendanceEventRepositoryImpl) ListBySession(ctx context.Context, sessionID string) ([]attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, seq, employee_id, session_id, event_type, status, occurred_at, details
		FROM attendance_events
		WHERE session_id = $1
		ORDER BY seq ASC
	`
	rows, err := q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// LatestSeq implements attendance.EventRepository.
func (r *attendanceEventRepositoryImpl) LatestSeq(ctx context.Context, employeeID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var seq int64
	err := q.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM attendance_events WHERE employee_id = $1`, employeeID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest event seq: %w", err)
	}
	return seq, nil
}

func scanEvents(rows pgx.Rows) ([]attendance.AttendanceEvent, error) {
	var events []attendance.AttendanceEvent
	for rows.Next() {
		var (
			e         attendance.AttendanceEvent
			eventType string
			status    string
			details   []byte
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.EmployeeID, &e.SessionID, &eventType, &status, &e.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		e.EventType = attendance.EventType(eventType)
		e.Status = attendance.Status(status)

		d, err := decodeDetails(details)
		if err != nil {
			return nil, err
		}
		e.Details = d
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}
	return events, nil
}
