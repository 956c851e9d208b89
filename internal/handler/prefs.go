package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripperbot/tripper/internal/domain"
)

// PreferencesRequest is the PUT /v1/users/{userID}/preferences body.
// The home address may be free-form; it is geocoded and stored in the
// geocoder's formatted form.
type PreferencesRequest struct {
	HomeAddress        string   `json:"home_address"`
	ExcludedModes      []string `json:"excluded_modes,omitempty"`
	MaxWalkingMeters   *int     `json:"max_walking_meters,omitempty"`
	MaxBicyclingMeters *int     `json:"max_bicycling_meters,omitempty"`
}

// PreferencesResponse is the JSON shape of a stored preference record.
type PreferencesResponse struct {
	UserID             string    `json:"user_id"`
	HomeAddress        string    `json:"home_address"`
	HomeLat            float64   `json:"home_lat"`
	HomeLng            float64   `json:"home_lng"`
	ExcludedModes      []string  `json:"excluded_modes"`
	MaxWalkingMeters   *int      `json:"max_walking_meters,omitempty"`
	MaxBicyclingMeters *int      `json:"max_bicycling_meters,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// GetPreferences handles GET /v1/users/{userID}/preferences.
func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	p, err := s.prefs.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prefsToResponse(p))
}

// PutPreferences handles PUT /v1/users/{userID}/preferences.
// The resource is a full replacement: fields absent from the body are reset.
func (s *Server) PutPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "invalid JSON body")
		return
	}

	stored, err := s.prefs.Update(r.Context(), requestToPrefs(userID, body))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prefsToResponse(stored))
}

// --- mapping helpers --------------------------------------------------------

func requestToPrefs(userID string, body PreferencesRequest) domain.Preferences {
	p := domain.Preferences{
		UserID:             userID,
		HomeAddress:        body.HomeAddress,
		MaxWalkingMeters:   body.MaxWalkingMeters,
		MaxBicyclingMeters: body.MaxBicyclingMeters,
	}
	for _, m := range body.ExcludedModes {
		p.ExcludedModes = append(p.ExcludedModes, domain.Mode(m))
	}
	return p
}

func prefsToResponse(p domain.Preferences) PreferencesResponse {
	resp := PreferencesResponse{
		UserID:             p.UserID,
		HomeAddress:        p.HomeAddress,
		HomeLat:            p.HomeLat,
		HomeLng:            p.HomeLng,
		ExcludedModes:      []string{},
		MaxWalkingMeters:   p.MaxWalkingMeters,
		MaxBicyclingMeters: p.MaxBicyclingMeters,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	for _, m := range p.ExcludedModes {
		resp.ExcludedModes = append(resp.ExcludedModes, string(m))
	}
	return resp
}
