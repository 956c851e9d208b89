package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/tripperbot/tripper/internal/domain"
)

// Reconciler runs one reconciliation. Satisfied by *Engine.
type Reconciler interface {
	Run(ctx context.Context, userID string, force bool) (Report, error)
}

// Runner serializes reconciliation runs per user and owns the retry policy
// for oracle outages — the engine itself never retries.
//
// Concurrent triggers for the same user race on the calendar service and the
// route cache, so at most one run per user may be in flight; triggers for
// different users proceed in parallel.
type Runner struct {
	eng Reconciler
	log *slog.Logger

	mu    sync.Mutex
	users map[string]*sync.Mutex

	maxRetries   uint64
	retryBackoff time.Duration
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default.
func NewRunner(eng Reconciler, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		eng:          eng,
		log:          log,
		users:        make(map[string]*sync.Mutex),
		maxRetries:   2,
		retryBackoff: 2 * time.Second,
	}
}

// Reconcile runs a reconciliation for userID, holding the user's lock for
// the duration. When the run completes but some appointments were skipped
// because the oracle was unavailable, the whole run is retried with
// fibonacci backoff; the route cache keeps the retries cheap for the
// appointments that already succeeded.
func (r *Runner) Reconcile(ctx context.Context, userID string, force bool) (Report, error) {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var report Report
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewFibonacci(r.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		rep, err := r.eng.Run(ctx, userID, force)
		if err != nil {
			return err
		}
		report = rep
		// The forced wipe already happened; a retry must not redo it.
		force = false

		if rep.OracleErrors > 0 {
			r.log.WarnContext(ctx, "run incomplete, oracle unavailable",
				"user_id", userID, "run_id", rep.RunID, "skipped", rep.OracleErrors)
			return retry.RetryableError(fmt.Errorf("%d appointments skipped: %w", rep.OracleErrors, domain.ErrOracleUnavailable))
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("reconcile.Runner.Reconcile: user %s: %w", userID, err)
	}
	return report, nil
}

// userLock returns the mutex for userID, creating it on first use.
// Locks are never evicted; one mutex per user is cheap and a reconciliation
// for a user who triggered once is likely to trigger again.
func (r *Runner) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.users[userID] = lock
	}
	return lock
}
