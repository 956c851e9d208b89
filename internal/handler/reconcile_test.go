package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/reconcile"
)

func TestPostReconcile(t *testing.T) {
	runner := &mockRunner{reconcile: func(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
		assert.Equal(t, "u1", userID)
		assert.False(t, force)
		return reconcile.Report{
			RunID:  "run-1",
			UserID: userID,
			Actions: []reconcile.Action{
				{Kind: reconcile.ActionCreate, CalendarID: "travel", EntryID: "ev-1", Title: "Tripper: 6 mins of bicycling"},
			},
		}, nil
	}}
	h := newHTTPHandler(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/reconcile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report reconcile.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, reconcile.ActionCreate, report.Actions[0].Kind)
}

func TestPostReconcile_force(t *testing.T) {
	var gotForce bool
	runner := &mockRunner{reconcile: func(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
		gotForce = force
		return reconcile.Report{RunID: "run-1", UserID: userID}, nil
	}}
	h := newHTTPHandler(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/reconcile?force=true", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotForce)
}

func TestPostReconcile_badForceValue(t *testing.T) {
	h := newHTTPHandler(&mockRunner{reconcile: func(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
		t.Fatal("runner must not be called")
		return reconcile.Report{}, nil
	}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/reconcile?force=banana", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostReconcile_unknownUser(t *testing.T) {
	runner := &mockRunner{reconcile: func(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
		return reconcile.Report{}, fmt.Errorf("load preferences: %w", domain.ErrNotFound)
	}}
	h := newHTTPHandler(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/ghost/reconcile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestPostReconcile_oracleDown(t *testing.T) {
	runner := &mockRunner{reconcile: func(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
		return reconcile.Report{}, fmt.Errorf("2 appointments skipped: %w", domain.ErrOracleUnavailable)
	}}
	h := newHTTPHandler(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/reconcile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "oracle_unavailable")
}

func TestPostReconcile_internalError(t *testing.T) {
	runner := &mockRunner{reconcile: func(ctx context.Context, userID string, force bool) (reconcile.Report, error) {
		return reconcile.Report{}, errors.New("token exchange blew up")
	}}
	h := newHTTPHandler(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/reconcile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "token exchange", "internal details must not leak")
}
