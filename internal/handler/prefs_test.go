package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/handler"
)

func prefsFixture() domain.Preferences {
	maxWalk := 2000
	return domain.Preferences{
		UserID:           "u1",
		HomeAddress:      "Homestreet 1, 3511 AA Utrecht",
		HomeLat:          52.0907,
		HomeLng:          5.1214,
		ExcludedModes:    []domain.Mode{domain.ModeDriving},
		MaxWalkingMeters: &maxWalk,
		CreatedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetPreferences(t *testing.T) {
	svc := &mockPrefs{get: func(ctx context.Context, userID string) (domain.Preferences, error) {
		assert.Equal(t, "u1", userID)
		return prefsFixture(), nil
	}}
	h := newHTTPHandler(nil, svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/u1/preferences", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got handler.PreferencesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Homestreet 1, 3511 AA Utrecht", got.HomeAddress)
	assert.Equal(t, []string{"driving"}, got.ExcludedModes)
	require.NotNil(t, got.MaxWalkingMeters)
	assert.Equal(t, 2000, *got.MaxWalkingMeters)
	assert.Nil(t, got.MaxBicyclingMeters)
}

func TestGetPreferences_notFound(t *testing.T) {
	svc := &mockPrefs{get: func(ctx context.Context, userID string) (domain.Preferences, error) {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Get: %w", domain.ErrNotFound)
	}}
	h := newHTTPHandler(nil, svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/ghost/preferences", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutPreferences(t *testing.T) {
	var received domain.Preferences
	svc := &mockPrefs{update: func(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
		received = p
		stored := prefsFixture()
		stored.HomeAddress = p.HomeAddress
		return stored, nil
	}}
	h := newHTTPHandler(nil, svc)

	body := `{"home_address":"Homestreet 1, Utrecht","excluded_modes":["driving"],"max_walking_meters":2000}`
	req := httptest.NewRequest(http.MethodPut, "/v1/users/u1/preferences", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", received.UserID, "user ID comes from the path, not the body")
	assert.Equal(t, "Homestreet 1, Utrecht", received.HomeAddress)
	assert.Equal(t, []domain.Mode{domain.ModeDriving}, received.ExcludedModes)
	require.NotNil(t, received.MaxWalkingMeters)
	assert.Equal(t, 2000, *received.MaxWalkingMeters)
}

func TestPutPreferences_invalidJSON(t *testing.T) {
	h := newHTTPHandler(nil, &mockPrefs{update: func(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
		t.Fatal("service must not be called")
		return domain.Preferences{}, nil
	}})

	req := httptest.NewRequest(http.MethodPut, "/v1/users/u1/preferences", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutPreferences_validationError(t *testing.T) {
	svc := &mockPrefs{update: func(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: unknown mode %q: %w", "teleport", domain.ErrValidation)
	}}
	h := newHTTPHandler(nil, svc)

	body := `{"home_address":"x","excluded_modes":["teleport"]}`
	req := httptest.NewRequest(http.MethodPut, "/v1/users/u1/preferences", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
	assert.Contains(t, rec.Body.String(), "teleport")
}
