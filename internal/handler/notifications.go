package handler

import (
	"context"
	"net/http"
	"time"
)

// notificationTimeout bounds a webhook-triggered reconciliation. The webhook
// itself answers immediately; this applies to the background run.
const notificationTimeout = 2 * time.Minute

// PostNotification handles POST /v1/notifications, the Google Calendar push
// webhook. The channel token set at watch time carries the user ID; the
// resource state distinguishes the initial sync handshake from real changes.
//
// The response is sent before the reconciliation runs: Google retries (and
// eventually disables) channels whose endpoint answers slowly, so the actual
// work happens in the background.
func (s *Server) PostNotification(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-Goog-Channel-Token")
	state := r.Header.Get("X-Goog-Resource-State")

	if state == "" {
		requestError(w, "missing X-Goog-Resource-State header")
		return
	}
	if state == "sync" {
		// Handshake sent when the watch channel is created. Nothing changed.
		w.WriteHeader(http.StatusOK)
		return
	}
	if userID == "" {
		requestError(w, "missing X-Goog-Channel-Token header")
		return
	}

	channelID := r.Header.Get("X-Goog-Channel-ID")
	s.log.InfoContext(r.Context(), "calendar change notification",
		"user_id", userID, "state", state, "channel_id", channelID)

	s.launch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if _, err := s.runner.Reconcile(ctx, userID, false); err != nil {
			s.log.Error("notification-triggered reconciliation failed", "user_id", userID, "error", err)
		}
	})

	w.WriteHeader(http.StatusAccepted)
}
