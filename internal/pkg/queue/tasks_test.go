package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileTaskID_StablePerBoundary(t *testing.T) {
	assert.Equal(t, "reconcile-s1-0", reconcileTaskID("s1", 0))
	assert.Equal(t, reconcileTaskID("s1", 2), reconcileTaskID("s1", 2))
	assert.NotEqual(t, reconcileTaskID("s1", 1), reconcileTaskID("s2", 1))
}

func TestHandleReconcile_CallsReconcileForEmployee(t *testing.T) {
	var got string
	handler := HandleReconcile(func(ctx context.Context, employeeID string) error {
		got = employeeID
		return nil
	})

	task, err := NewReconcileTask(ReconcilePayload{EmployeeID: "emp-1", SessionID: "s1", Boundary: 1})
	require.NoError(t, err)
	assert.Equal(t, TypeReconcile, task.Type())

	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, "emp-1", got)
}

func TestHandleReconcile_BadPayloadSkipsRetry(t *testing.T) {
	called := false
	handler := HandleReconcile(func(ctx context.Context, employeeID string) error {
		called = true
		return nil
	})

	err := handler(context.Background(), asynq.NewTask(TypeReconcile, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = handler(context.Background(), asynq.NewTask(TypeReconcile, []byte(`{"session_id":"s1"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.False(t, called)
}

func TestHandleReconcile_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	handler := HandleReconcile(func(ctx context.Context, employeeID string) error { return boom })

	task, err := NewReconcileTask(ReconcilePayload{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.ErrorIs(t, handler(context.Background(), task), boom)
}
