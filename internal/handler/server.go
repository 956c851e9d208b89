// Package handler implements the HTTP surface of the Tripper API: the
// reconcile trigger, the preferences resource, and the calendar push
// notification webhook. Handlers are methods on Server, split into files per
// resource, all sharing the same struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/reconcile"
)

// ReconcileRunner defines the reconciliation operation the handlers depend
// on. Defining the interface here (in the consumer package) lets handler
// tests inject a mock without touching the engine or any external service.
type ReconcileRunner interface {
	Reconcile(ctx context.Context, userID string, force bool) (reconcile.Report, error)
}

// PreferenceService defines the preference operations the handlers depend on.
// The production implementation is *prefs.Service.
type PreferenceService interface {
	Get(ctx context.Context, userID string) (domain.Preferences, error)
	Update(ctx context.Context, p domain.Preferences) (domain.Preferences, error)
}

// Server holds the handler dependencies. Wire it in main.go via Routes().
type Server struct {
	runner ReconcileRunner
	prefs  PreferenceService
	log    *slog.Logger

	// launch runs webhook-triggered reconciliations. The default spawns a
	// goroutine so the webhook can answer within Google's deadline; tests
	// replace it with a synchronous call.
	launch func(fn func())
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default.
func NewServer(runner ReconcileRunner, prefs PreferenceService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		runner: runner,
		prefs:  prefs,
		log:    log,
		launch: func(fn func()) { go fn() },
	}
}

// Routes returns the chi router with all endpoints registered. Middleware is
// applied by the caller, not here.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/users/{userID}/reconcile", s.PostReconcile)
		r.Get("/users/{userID}/preferences", s.GetPreferences)
		r.Put("/users/{userID}/preferences", s.PutPreferences)
		r.Post("/notifications", s.PostNotification)
	})
	return r
}
