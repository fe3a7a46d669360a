package queue

import (
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker runs asynq task handlers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(opt asynq.RedisClientOpt, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Worker{
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{defaultQueue: 1},
			LogLevel:    asynq.WarnLevel,
		}),
		mux: asynq.NewServeMux(),
	}
}

// Handle registers a handler for a task type.
func (w *Worker) Handle(taskType string, handler asynq.HandlerFunc) {
	w.mux.HandleFunc(taskType, handler)
	slog.Info("Task handler registered", "type", taskType)
}

// Start begins processing in background goroutines.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	slog.Info("Task worker started")
	return nil
}

// Shutdown waits for active tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
	slog.Info("Task worker stopped")
}
