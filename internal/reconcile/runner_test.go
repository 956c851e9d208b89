package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripperbot/tripper/internal/domain"
)

type stubReconciler struct {
	fn func(ctx context.Context, userID string, force bool) (Report, error)
}

func (s *stubReconciler) Run(ctx context.Context, userID string, force bool) (Report, error) {
	return s.fn(ctx, userID, force)
}

func TestRunner_passesReportThrough(t *testing.T) {
	want := Report{RunID: "r1", UserID: "u1", Actions: []Action{{Kind: ActionCreate}}}
	r := NewRunner(&stubReconciler{fn: func(ctx context.Context, userID string, force bool) (Report, error) {
		return want, nil
	}}, nil)

	got, err := r.Reconcile(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunner_retriesWhileOracleUnavailable(t *testing.T) {
	var calls int
	var forces []bool
	r := NewRunner(&stubReconciler{fn: func(ctx context.Context, userID string, force bool) (Report, error) {
		calls++
		forces = append(forces, force)
		if calls == 1 {
			return Report{RunID: "r1", OracleErrors: 2}, nil
		}
		return Report{RunID: "r2"}, nil
	}}, nil)
	r.retryBackoff = time.Millisecond

	got, err := r.Reconcile(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "r2", got.RunID)
	assert.Equal(t, []bool{true, false}, forces, "the forced wipe must not repeat on retry")
}

func TestRunner_givesUpAfterMaxRetries(t *testing.T) {
	var calls int
	r := NewRunner(&stubReconciler{fn: func(ctx context.Context, userID string, force bool) (Report, error) {
		calls++
		return Report{RunID: "r1", OracleErrors: 1}, nil
	}}, nil)
	r.retryBackoff = time.Millisecond

	got, err := r.Reconcile(context.Background(), "u1", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, got.OracleErrors, "the last report is still returned")
}

func TestRunner_fatalRunErrorIsNotRetried(t *testing.T) {
	var calls int
	boom := errors.New("token revoked")
	r := NewRunner(&stubReconciler{fn: func(ctx context.Context, userID string, force bool) (Report, error) {
		calls++
		return Report{}, boom
	}}, nil)
	r.retryBackoff = time.Millisecond

	_, err := r.Reconcile(context.Background(), "u1", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRunner_serializesRunsPerUser(t *testing.T) {
	var inflight, violations atomic.Int32
	r := NewRunner(&stubReconciler{fn: func(ctx context.Context, userID string, force bool) (Report, error) {
		if inflight.Add(1) > 1 {
			violations.Add(1)
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return Report{}, nil
	}}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Reconcile(context.Background(), "u1", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Zero(t, violations.Load())
}
