package livesync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
)

type ChangeKind string

const (
	ChangeSnapshot    ChangeKind = "snapshot"
	ChangeStatus      ChangeKind = "status"
	ChangeSignal      ChangeKind = "signal"
	ChangeSignalAcked ChangeKind = "signal_acked"
)

// Change is delivered to subscribers. Snapshot changes carry the projection
// and the pending signals, status changes the projection after the event,
// signal changes the signal alone.
type Change struct {
	Kind       ChangeKind
	EmployeeID string
	Seq        int64
	EventType  attendance.EventType
	Projection *attendance.StatusProjection
	Signals    []signal.Signal
	Signal     *signal.Signal
}

// Status returns the canonical status carried by a snapshot or status change.
func (c Change) Status() attendance.Status {
	if c.Projection == nil {
		return attendance.StatusClockedOut
	}
	return c.Projection.Status
}

// Channel fans committed changes out to every observer of an employee.
type Channel struct {
	hub        *sse.Hub
	statusRepo attendance.StatusRepository
	eventRepo  attendance.EventRepository
	signalRepo signal.Repository
}

func NewChannel(hub *sse.Hub, statusRepo attendance.StatusRepository, eventRepo attendance.EventRepository, signalRepo signal.Repository) *Channel {
	return &Channel{
		hub:        hub,
		statusRepo: statusRepo,
		eventRepo:  eventRepo,
		signalRepo: signalRepo,
	}
}

// PublishStatus announces a committed transition. projection is nil after
// clock-out.
func (c *Channel) PublishStatus(event attendance.AttendanceEvent, projection *attendance.StatusProjection) {
	var p *attendance.StatusProjection
	if projection != nil {
		cp := *projection
		p = &cp
	}
	c.hub.Publish(event.EmployeeID, sse.Event{
		Event: string(ChangeStatus),
		Seq:   event.Seq,
		Data: Change{
			Kind:       ChangeStatus,
			EmployeeID: event.EmployeeID,
			Seq:        event.Seq,
			EventType:  event.EventType,
			Projection: p,
		},
	})
}

func (c *Channel) PublishSignal(sig signal.Signal) {
	c.publishSignal(ChangeSignal, sig)
}

func (c *Channel) PublishSignalAcked(sig signal.Signal) {
	c.publishSignal(ChangeSignalAcked, sig)
}

func (c *Channel) publishSignal(kind ChangeKind, sig signal.Signal) {
	c.hub.Publish(sig.EmployeeID, sse.Event{
		Event: string(kind),
		Data: Change{
			Kind:       kind,
			EmployeeID: sig.EmployeeID,
			Signal:     &sig,
		},
	})
}

// Snapshot reads the current projection, the seq it reflects and the pending
// signals of the employee.
func (c *Channel) Snapshot(ctx context.Context, employeeID string) (Change, error) {
	projection, err := c.statusRepo.Get(ctx, employeeID)
	if err != nil {
		return Change{}, fmt.Errorf("failed to get status projection: %w", err)
	}

	var seq int64
	if projection != nil {
		seq = projection.LastEventSeq
	} else {
		seq, err = c.eventRepo.LatestSeq(ctx, employeeID)
		if err != nil {
			return Change{}, fmt.Errorf("failed to get latest event seq: %w", err)
		}
	}

	pending, err := c.signalRepo.ListPending(ctx, employeeID)
	if err != nil {
		return Change{}, fmt.Errorf("failed to list pending signals: %w", err)
	}

	return Change{
		Kind:       ChangeSnapshot,
		EmployeeID: employeeID,
		Seq:        seq,
		Projection: projection,
		Signals:    pending,
	}, nil
}

// Subscribe calls onChange once with the current snapshot before returning,
// then from a single goroutine for every later change, in order. Status
// changes not newer than the last delivered seq are skipped. A subscriber
// that falls behind is resynced from a fresh snapshot. The returned function
// is safe to call more than once; the subscription also ends with ctx.
func (c *Channel) Subscribe(ctx context.Context, employeeID string, onChange func(Change)) (func(), error) {
	// Register before reading the snapshot so no change committed in between
	// is lost; anything already reflected is dropped by seq.
	sub, cleanup := c.hub.Subscribe(employeeID)

	snapshot, err := c.Snapshot(ctx, employeeID)
	if err != nil {
		cleanup()
		return nil, err
	}
	onChange(snapshot)

	var closed atomic.Bool
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			closed.Store(true)
			cleanup()
		})
	}

	go c.drain(ctx, sub, employeeID, snapshot.Seq, &closed, onChange, unsubscribe)

	return unsubscribe, nil
}

func (c *Channel) drain(ctx context.Context, sub *sse.Subscriber, employeeID string, lastSeq int64, closed *atomic.Bool, onChange func(Change), unsubscribe func()) {
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			change, isChange := ev.Data.(Change)
			if !isChange {
				continue
			}
			if change.Kind == ChangeStatus && change.Seq <= lastSeq {
				continue
			}
			if closed.Load() {
				return
			}
			onChange(change)
			if change.Kind == ChangeStatus {
				lastSeq = change.Seq
			}

			if sub.TakeDropped() {
				snapshot, err := c.Snapshot(ctx, employeeID)
				if err != nil {
					slog.Error("Failed to resync live subscriber", "employee_id", employeeID, "error", err)
					return
				}
				if closed.Load() {
					return
				}
				onChange(snapshot)
				if snapshot.Seq > lastSeq {
					lastSeq = snapshot.Seq
				}
			}
		}
	}
}

// Observers returns the number of live subscriptions for an employee.
func (c *Channel) Observers(employeeID string) int {
	return c.hub.SubscriberCount(employeeID)
}
