package prefs

import (
	"context"
	"fmt"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/location"
)

// Service implements validation and geocoding on top of the preferences repo.
type Service struct {
	repo     Repo
	geocoder location.Geocoder
}

// NewService constructs a Service backed by the provided Repo and Geocoder.
func NewService(r Repo, g location.Geocoder) *Service {
	return &Service{repo: r, geocoder: g}
}

// Get returns one user's stored preferences.
// Returns domain.ErrNotFound for a user who never stored any; callers that
// want to reconcile must have the user store preferences first, because
// without a home address no trip origin exists.
func (s *Service) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Get: %w", err)
	}
	return p, nil
}

// Update validates and persists preferences for p.UserID. A non-empty home
// address is geocoded: the stored address is the geocoder's formatted form,
// not the user's raw input, so the reconciler compares like with like.
func (s *Service) Update(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
	if p.UserID == "" {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: empty user id: %w", domain.ErrValidation)
	}
	for _, m := range p.ExcludedModes {
		if !m.Valid() {
			return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: unknown mode %q: %w", m, domain.ErrValidation)
		}
	}
	if p.MaxWalkingMeters != nil && *p.MaxWalkingMeters <= 0 {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: max walking meters must be positive: %w", domain.ErrValidation)
	}
	if p.MaxBicyclingMeters != nil && *p.MaxBicyclingMeters <= 0 {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: max bicycling meters must be positive: %w", domain.ErrValidation)
	}

	if p.HomeAddress != "" {
		geo, err := s.geocoder.Geocode(ctx, p.HomeAddress)
		if err != nil {
			return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: geocode home address: %w", err)
		}
		p.HomeAddress = geo.Address
		p.HomeLat = geo.Lat
		p.HomeLng = geo.Lng
	} else {
		p.HomeLat, p.HomeLng = 0, 0
	}

	stored, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("prefs.Service.Update: %w", err)
	}
	return stored, nil
}
