package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const defaultQueue = "default"

// Scheduler enqueues reconcile tasks at the schedule boundaries of a session
// and removes them again when the session ends.
type Scheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	now       func() time.Time
}

func NewScheduler(opt asynq.RedisClientOpt) *Scheduler {
	return &Scheduler{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		now:       time.Now,
	}
}

// Schedule enqueues one task per boundary. Boundaries already in the past are
// skipped; an already scheduled boundary is left untouched.
func (s *Scheduler) Schedule(ctx context.Context, employeeID, sessionID string, boundaries []time.Time) error {
	now := s.now()
	for i, runAt := range boundaries {
		if !runAt.After(now) {
			continue
		}

		task, err := NewReconcileTask(ReconcilePayload{
			EmployeeID: employeeID,
			SessionID:  sessionID,
			Boundary:   i,
		})
		if err != nil {
			return fmt.Errorf("failed to create reconcile task: %w", err)
		}

		_, err = s.client.EnqueueContext(ctx, task,
			asynq.ProcessAt(runAt),
			asynq.TaskID(reconcileTaskID(sessionID, i)),
			asynq.Queue(defaultQueue),
			asynq.MaxRetry(3),
		)
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			return fmt.Errorf("failed to enqueue reconcile task: %w", err)
		}
	}
	return nil
}

// Cancel deletes every pending boundary task of the session.
func (s *Scheduler) Cancel(ctx context.Context, employeeID, sessionID string, count int) error {
	var errs []error
	for i := 0; i < count; i++ {
		taskID := reconcileTaskID(sessionID, i)
		err := s.inspector.DeleteTask(defaultQueue, taskID)
		if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
			slog.Warn("Failed to delete reconcile task", "task_id", taskID, "employee_id", employeeID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) Close() error {
	return errors.Join(s.client.Close(), s.inspector.Close())
}
