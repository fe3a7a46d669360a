package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/google/uuid"
)

// Publisher pushes stored signals to live observers.
type Publisher interface {
	PublishSignal(sig signal.Signal)
	PublishSignalAcked(sig signal.Signal)
}

type SignalServiceImpl struct {
	signal.Repository
	employee.EmployeeRepository
	publisher Publisher
	now       func() time.Time
}

// NewSignalService creates the buzz outbox service
func NewSignalService(repo signal.Repository, employeeRepo employee.EmployeeRepository, publisher Publisher) signal.Service {
	return &SignalServiceImpl{
		Repository:         repo,
		EmployeeRepository: employeeRepo,
		publisher:          publisher,
		now:                time.Now,
	}
}

// Buzz implements signal.Service.
func (s *SignalServiceImpl) Buzz(ctx context.Context, req signal.BuzzRequest) (signal.SignalResponse, error) {
	if err := req.Validate(); err != nil {
		return signal.SignalResponse{}, err
	}

	if _, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return signal.SignalResponse{}, employee.ErrEmployeeNotFound
		}
		return signal.SignalResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return signal.SignalResponse{}, fmt.Errorf("failed to generate signal id: %w", err)
	}

	created, err := s.Repository.Create(ctx, signal.Signal{
		ID:         id.String(),
		EmployeeID: req.EmployeeID,
		Kind:       signal.KindBuzz,
		SenderID:   req.SenderID,
		Message:    req.Message,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return signal.SignalResponse{}, fmt.Errorf("failed to create signal: %w", err)
	}

	s.publisher.PublishSignal(created)
	slog.Info("Buzz sent", "signal_id", created.ID, "employee_id", created.EmployeeID, "sender_id", created.SenderID)

	return ToSignalResponse(created), nil
}

// Ack implements signal.Service. Only the call that flips AckedAt reports
// Fired, so the side effect happens once however many observers ack.
func (s *SignalServiceImpl) Ack(ctx context.Context, req signal.AckRequest) (signal.AckResponse, error) {
	if err := req.Validate(); err != nil {
		return signal.AckResponse{}, err
	}

	sig, err := s.Repository.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, signal.ErrSignalNotFound) {
			return signal.AckResponse{}, signal.ErrSignalNotFound
		}
		return signal.AckResponse{}, fmt.Errorf("failed to get signal: %w", err)
	}
	if req.EmployeeID != "" && sig.EmployeeID != req.EmployeeID {
		return signal.AckResponse{}, signal.ErrSignalNotFound
	}

	at := s.now().UTC()
	fired, err := s.Repository.Ack(ctx, req.ID, at)
	if err != nil {
		if errors.Is(err, signal.ErrSignalNotFound) {
			return signal.AckResponse{}, signal.ErrSignalNotFound
		}
		return signal.AckResponse{}, fmt.Errorf("failed to ack signal: %w", err)
	}

	if fired {
		sig.AckedAt = &at
		s.publisher.PublishSignalAcked(sig)
	}

	return signal.AckResponse{ID: req.ID, Fired: fired}, nil
}

// ListPending implements signal.Service.
func (s *SignalServiceImpl) ListPending(ctx context.Context, employeeID string) ([]signal.SignalResponse, error) {
	pending, err := s.Repository.ListPending(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending signals: %w", err)
	}

	responses := make([]signal.SignalResponse, len(pending))
	for i, sig := range pending {
		responses[i] = ToSignalResponse(sig)
	}
	return responses, nil
}

// ToSignalResponse converts a Signal entity to SignalResponse
func ToSignalResponse(sig signal.Signal) signal.SignalResponse {
	resp := signal.SignalResponse{
		ID:         sig.ID,
		EmployeeID: sig.EmployeeID,
		Kind:       sig.Kind,
		SenderID:   sig.SenderID,
		Message:    sig.Message,
		CreatedAt:  sig.CreatedAt.Format(time.RFC3339),
	}
	if sig.AckedAt != nil {
		acked := sig.AckedAt.Format(time.RFC3339)
		resp.AckedAt = &acked
	}
	return resp
}
