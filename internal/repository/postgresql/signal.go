package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type signalRepository struct {
	db *database.DB
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *database.DB) signal.Repository {
	return &signalRepository{db: db}
}

// Create creates a new signal
func (r *signalRepository) Create(ctx context.Context, s signal.Signal) (signal.Signal, error) {
	q := GetQuerier(ctx, r.db)

	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return signal.Signal{}, fmt.Errorf("failed to generate signal id: %w", err)
		}
		s.ID = id.String()
	}

	query := `
		INSERT INTO signals (id, employee_id, kind, sender_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := q.Exec(ctx, query, s.ID, s.EmployeeID, string(s.Kind), s.SenderID, s.Message, s.CreatedAt); err != nil {
		return signal.Signal{}, fmt.Errorf("failed to create signal: %w", err)
	}
	return s, nil
}

// GetByID retrieves a signal by ID
func (r *signalRepository) GetByID(ctx context.Context, id string) (signal.Signal, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT id, employee_id, kind, sender_id, message, created_at, acked_at FROM signals WHERE id = $1`
	s, err := scanSignal(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return signal.Signal{}, signal.ErrSignalNotFound
		}
		return signal.Signal{}, fmt.Errorf("failed to get signal: %w", err)
	}
	return s, nil
}

// Ack marks a signal acknowledged if nobody did before
func (r *signalRepository) Ack(ctx context.Context, id string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE signals SET acked_at = $2 WHERE id = $1 AND acked_at IS NULL`, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to ack signal: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// Distinguish an already acknowledged signal from a missing one
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ListPending returns unacknowledged signals of an employee
func (r *signalRepository) ListPending(ctx context.Context, employeeID string) ([]signal.Signal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, kind, sender_id, message, created_at, acked_at
		FROM signals
		WHERE employee_id = $1 AND acked_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending signals: %w", err)
	}
	defer rows.Close()

	var signals []signal.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signals: %w", err)
	}
	return signals, nil
}

func scanSignal(row pgx.Row) (signal.Signal, error) {
	var (
		s    signal.Signal
		kind string
	)
	err := row.Scan(&s.ID, &s.EmployeeID, &kind, &s.SenderID, &s.Message, &s.CreatedAt, &s.AckedAt)
	s.Kind = signal.Kind(kind)
	return s, err
}
