package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/google/uuid"
)

type signalRepository struct{ s *Store }

func (r *signalRepository) Create(ctx context.Context, sig signal.Signal) (signal.Signal, error) {
	st, unlock := r.s.write(ctx)
	defer unlock()

	if sig.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return signal.Signal{}, fmt.Errorf("failed to generate signal id: %w", err)
		}
		sig.ID = id.String()
	}
	st.signals[sig.ID] = sig
	return sig, nil
}

func (r *signalRepository) GetByID(ctx context.Context, id string) (signal.Signal, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	sig, ok := st.signals[id]
	if !ok {
		return signal.Signal{}, signal.ErrSignalNotFound
	}
	return sig, nil
}

func (r *signalRepository) Ack(ctx context.Context, id string, at time.Time) (bool, error) {
	st, unlock := r.s.write(ctx)
	defer unlock()

	sig, ok := st.signals[id]
	if !ok {
		return false, signal.ErrSignalNotFound
	}
	if sig.AckedAt != nil {
		return false, nil
	}
	sig.AckedAt = &at
	st.signals[id] = sig
	return true, nil
}

func (r *signalRepository) ListPending(ctx context.Context, employeeID string) ([]signal.Signal, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	var pending []signal.Signal
	for _, sig := range st.signals {
		if sig.EmployeeID == employeeID && sig.AckedAt == nil {
			pending = append(pending, sig)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}
