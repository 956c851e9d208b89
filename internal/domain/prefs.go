package domain

import "time"

// Preferences holds one user's travel preferences.
// MaxWalkingMeters and MaxBicyclingMeters are nil when the user has set no cap.
type Preferences struct {
	UserID string

	// HomeAddress is the geocoded formatted address used as the trip origin
	// when no usable previous appointment exists.
	HomeAddress string
	HomeLat     float64
	HomeLng     float64

	// ExcludedModes are never considered by mode selection.
	ExcludedModes []Mode

	MaxWalkingMeters   *int
	MaxBicyclingMeters *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Excludes reports whether mode is on the user's exclusion list.
func (p Preferences) Excludes(mode Mode) bool {
	for _, m := range p.ExcludedModes {
		if m == mode {
			return true
		}
	}
	return false
}

// CandidateModes returns AllModes minus the user's excluded modes.
func (p Preferences) CandidateModes() []Mode {
	var out []Mode
	for _, m := range AllModes() {
		if !p.Excludes(m) {
			out = append(out, m)
		}
	}
	return out
}
