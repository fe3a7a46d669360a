package cron

import (
	"context"
	"time"
)

// Reconciler re-evaluates the schedule of every clocked-in employee.
type Reconciler interface {
	ReconcileAll(ctx context.Context) error
}

// ReconcileJobs polls the schedule so that Working/Standby and overtime
// follow the clock even when no boundary task fires.
type ReconcileJobs struct {
	reconciler Reconciler
	interval   time.Duration
}

func NewReconcileJobs(reconciler Reconciler, interval time.Duration) *ReconcileJobs {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileJobs{
		reconciler: reconciler,
		interval:   interval,
	}
}

func (j *ReconcileJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_schedules", j.interval, j.ReconcileSchedules)
}

func (j *ReconcileJobs) ReconcileSchedules(ctx context.Context) error {
	return j.reconciler.ReconcileAll(ctx)
}
