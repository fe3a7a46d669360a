package signal

import (
	"context"
	"sync"
	"testing"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu    sync.Mutex
	sent  []signal.Signal
	acked []signal.Signal
}

func (p *fakePublisher) PublishSignal(sig signal.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sig)
}

func (p *fakePublisher) PublishSignalAcked(sig signal.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acked = append(p.acked, sig)
}

func setup(t *testing.T) (signal.Service, *fakePublisher) {
	t.Helper()
	store := memory.NewStore()
	_, err := store.Employees().Upsert(context.Background(), employee.Employee{ID: "emp-1", Name: "Ann"})
	require.NoError(t, err)

	pub := &fakePublisher{}
	return NewSignalService(store.Signals(), store.Employees(), pub), pub
}

func TestBuzz_StoresAndPublishes(t *testing.T) {
	svc, pub := setup(t)
	ctx := context.Background()

	resp, err := svc.Buzz(ctx, signal.BuzzRequest{EmployeeID: "emp-1", SenderID: "admin-1", Message: "call me"})
	require.NoError(t, err)
	assert.Equal(t, signal.KindBuzz, resp.Kind)
	assert.Nil(t, resp.AckedAt)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, resp.ID, pub.sent[0].ID)

	pending, err := svc.ListPending(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestBuzz_UnknownEmployee(t *testing.T) {
	svc, pub := setup(t)

	_, err := svc.Buzz(context.Background(), signal.BuzzRequest{EmployeeID: "ghost", SenderID: "admin-1"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	assert.Empty(t, pub.sent)
}

func TestBuzz_ValidationError(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Buzz(context.Background(), signal.BuzzRequest{SenderID: "admin-1"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestAck_FiresExactlyOnce(t *testing.T) {
	svc, pub := setup(t)
	ctx := context.Background()

	sig, err := svc.Buzz(ctx, signal.BuzzRequest{EmployeeID: "emp-1", SenderID: "admin-1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	fired := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Ack(ctx, signal.AckRequest{ID: sig.ID, EmployeeID: "emp-1"})
			assert.NoError(t, err)
			if resp.Fired {
				mu.Lock()
				fired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fired)
	assert.Len(t, pub.acked, 1)

	pending, err := svc.ListPending(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAck_NotFound(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Ack(ctx, signal.AckRequest{ID: "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, signal.ErrSignalNotFound)

	sig, err := svc.Buzz(ctx, signal.BuzzRequest{EmployeeID: "emp-1", SenderID: "admin-1"})
	require.NoError(t, err)

	// another employee cannot ack it
	_, err = svc.Ack(ctx, signal.AckRequest{ID: sig.ID, EmployeeID: "emp-2"})
	assert.ErrorIs(t, err, signal.ErrSignalNotFound)
}

func TestAck_MalformedID(t *testing.T) {
	svc, pub := setup(t)

	_, err := svc.Ack(context.Background(), signal.AckRequest{ID: "missing", EmployeeID: "emp-1"})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Equal(t, "id", validationErrs[0].Field)
	assert.Empty(t, pub.acked)
}
