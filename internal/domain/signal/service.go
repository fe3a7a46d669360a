package signal

import "context"

// Service defines the signal service interface
type Service interface {
	// Buzz stores a buzz for the employee and pushes it to live observers
	Buzz(ctx context.Context, req BuzzRequest) (SignalResponse, error)

	// Ack acknowledges a signal; Fired is true only for the first ack
	Ack(ctx context.Context, req AckRequest) (AckResponse, error)

	ListPending(ctx context.Context, employeeID string) ([]SignalResponse, error)
}
