package signal

import (
	"context"
	"time"
)

// Repository defines the signal outbox repository interface
type Repository interface {
	Create(ctx context.Context, signal Signal) (Signal, error)
	GetByID(ctx context.Context, id string) (Signal, error)

	// Ack sets AckedAt only if it is unset and reports whether this call set it
	Ack(ctx context.Context, id string, at time.Time) (bool, error)

	// ListPending returns unacknowledged signals, oldest first
	ListPending(ctx context.Context, employeeID string) ([]Signal, error)
}
