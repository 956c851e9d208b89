// Package route computes and caches travel routes and picks the best travel
// mode for a trip under the user's preferences.
package route

import (
	"context"
	"time"

	"github.com/tripperbot/tripper/internal/domain"
)

// Query is the cache key: an exact (origin, destination, mode) triple.
// Arrival time is deliberately not part of the key — a query for the same
// triple at a different time of day reuses the cached result for the
// lifetime of the process.
type Query struct {
	Origin      string
	Destination string
	Mode        domain.Mode
}

// Route is one oracle answer. Origin and Destination are the oracle's
// resolved address strings, which may differ from the query's raw input.
// NotFound marks the oracle's "no route exists" sentinel; such results carry
// no distance or duration and are never cached.
type Route struct {
	Origin         string
	Destination    string
	Mode           domain.Mode
	DistanceMeters int
	Duration       time.Duration
	NotFound       bool
}

// Oracle is the external distance/duration service. One call answers all
// requested modes for a single origin/destination pair at the given arrival
// instant. Transport failures and non-OK statuses must be reported as errors
// wrapping domain.ErrOracleUnavailable.
type Oracle interface {
	DistanceMatrix(ctx context.Context, origin, destination string, modes []domain.Mode, arrival time.Time) (map[domain.Mode]Route, error)
}
