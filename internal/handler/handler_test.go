package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/handler"
	"github.com/tripperbot/tripper/internal/reconcile"
)

// mockRunner is a test double for handler.ReconcileRunner.
type mockRunner struct {
	reconcile func(ctx context.Context, userID string, force bool) (reconcile.Report, error)
}

func (m *mockRunner) Reconcile(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
	return m.reconcile(ctx, userID, force)
}

var _ handler.ReconcileRunner = (*mockRunner)(nil)

// mockPrefs is a test double for handler.PreferenceService.
// Set only the method fields your test needs.
type mockPrefs struct {
	get    func(ctx context.Context, userID string) (domain.Preferences, error)
	update func(ctx context.Context, p domain.Preferences) (domain.Preferences, error)
}

func (m *mockPrefs) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	return m.get(ctx, userID)
}

func (m *mockPrefs) Update(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
	return m.update(ctx, p)
}

var _ handler.PreferenceService = (*mockPrefs)(nil)

// newHTTPHandler wires a Server with the given mocks into the chi router,
// mirroring how main.go wires it in production.
func newHTTPHandler(runner handler.ReconcileRunner, prefs handler.PreferenceService) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(runner, prefs, log).Routes()
}
