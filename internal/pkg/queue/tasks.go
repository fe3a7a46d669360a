package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const TypeReconcile = "attendance:reconcile"

// ReconcilePayload identifies the session whose schedule boundary was reached.
type ReconcilePayload struct {
	EmployeeID string `json:"employee_id"`
	SessionID  string `json:"session_id"`
	Boundary   int    `json:"boundary"`
}

func NewReconcileTask(p ReconcilePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReconcile, payload), nil
}

// reconcileTaskID is stable per session and boundary so re-scheduling the same
// boundary collides instead of duplicating.
func reconcileTaskID(sessionID string, boundary int) string {
	return fmt.Sprintf("reconcile-%s-%d", sessionID, boundary)
}

// HandleReconcile adapts an employee reconcile function to an asynq handler.
func HandleReconcile(reconcile func(ctx context.Context, employeeID string) error) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			slog.Error("Failed to decode reconcile payload", "error", err)
			return fmt.Errorf("failed to decode reconcile payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.EmployeeID == "" {
			return fmt.Errorf("reconcile payload without employee_id: %w", asynq.SkipRetry)
		}

		if err := reconcile(ctx, payload.EmployeeID); err != nil {
			slog.Error("Boundary reconcile failed",
				"employee_id", payload.EmployeeID,
				"session_id", payload.SessionID,
				"boundary", payload.Boundary,
				"error", err,
			)
			return err
		}
		return nil
	}
}
