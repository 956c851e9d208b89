package route

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tripperbot/tripper/internal/domain"
)

// Fixed per-mode overhead not reflected by the oracle: finding parking, or
// unlocking and stowing a bike. Applied to the duration used for ranking
// only — never to the returned or cached route.
const (
	drivingBias   = 180 * time.Second
	bicyclingBias = 90 * time.Second
)

// Selector picks the best travel mode between two addresses, memoizing
// oracle answers through a shared Cache.
type Selector struct {
	oracle Oracle
	cache  *Cache
	log    *slog.Logger
}

// NewSelector constructs a Selector. A nil logger falls back to slog.Default.
func NewSelector(oracle Oracle, cache *Cache, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{oracle: oracle, cache: cache, log: log}
}

// Best returns the route with the minimum biased duration for the trip
// arriving at arrival.
//
// Candidate modes are the full mode set minus the user's exclusions. All
// candidates are answered from the cache when possible; any miss triggers
// one batched oracle query for every candidate. A single not-found answer
// fails the whole selection with domain.ErrRouteNotFound — never a partial
// result. Oracle outages surface as domain.ErrOracleUnavailable.
func (s *Selector) Best(ctx context.Context, origin, destination string, arrival time.Time, prefs domain.Preferences) (Route, error) {
	candidates := prefs.CandidateModes()
	if len(candidates) == 0 {
		return Route{}, fmt.Errorf("route.Selector.Best: every mode excluded: %w", domain.ErrRouteNotFound)
	}

	routes, err := s.lookup(ctx, origin, destination, candidates, arrival)
	if err != nil {
		return Route{}, fmt.Errorf("route.Selector.Best: %w", err)
	}

	for _, r := range routes {
		if r.NotFound {
			return Route{}, fmt.Errorf("route.Selector.Best: from %q to %q: %w", origin, destination, domain.ErrRouteNotFound)
		}
	}

	// Distance caps drop modes from the candidate list, but the ranking
	// below runs over every computed route, so a capped mode can still win.
	// Preserved as-is; TestSelector_capDoesNotFilterRanking pins it.
	candidates = applyCaps(candidates, routes, prefs)
	s.log.DebugContext(ctx, "mode candidates after caps", "modes", modeNames(candidates))

	best := Route{}
	bestBiased := time.Duration(-1)
	for _, m := range domain.AllModes() {
		r, ok := routes[m]
		if !ok {
			continue
		}
		biased := r.Duration + bias(m)
		if bestBiased < 0 || biased < bestBiased {
			best = r
			bestBiased = biased
		}
	}
	return best, nil
}

// lookup answers every candidate mode from the cache, or issues one batched
// oracle query for all of them when any mode misses.
func (s *Selector) lookup(ctx context.Context, origin, destination string, candidates []domain.Mode, arrival time.Time) (map[domain.Mode]Route, error) {
	cached := make(map[domain.Mode]Route, len(candidates))
	for _, m := range candidates {
		r, ok := s.cache.Get(origin, destination, m)
		if !ok {
			return s.query(ctx, origin, destination, candidates, arrival)
		}
		cached[m] = r
	}
	return cached, nil
}

func (s *Selector) query(ctx context.Context, origin, destination string, candidates []domain.Mode, arrival time.Time) (map[domain.Mode]Route, error) {
	routes, err := s.oracle.DistanceMatrix(ctx, origin, destination, candidates, arrival)
	if err != nil {
		return nil, err
	}
	for _, r := range routes {
		s.cache.Put(r)
	}
	return routes, nil
}

func bias(m domain.Mode) time.Duration {
	switch m {
	case domain.ModeDriving:
		return drivingBias
	case domain.ModeBicycling:
		return bicyclingBias
	}
	return 0
}

// applyCaps removes modes whose route distance exceeds the user's walking or
// bicycling cap from the candidate list.
func applyCaps(candidates []domain.Mode, routes map[domain.Mode]Route, prefs domain.Preferences) []domain.Mode {
	out := candidates[:0:0]
	for _, m := range candidates {
		r, ok := routes[m]
		if ok {
			switch {
			case m == domain.ModeWalking && prefs.MaxWalkingMeters != nil && r.DistanceMeters > *prefs.MaxWalkingMeters:
				continue
			case m == domain.ModeBicycling && prefs.MaxBicyclingMeters != nil && r.DistanceMeters > *prefs.MaxBicyclingMeters:
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func modeNames(modes []domain.Mode) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}
