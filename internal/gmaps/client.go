// Package gmaps adapts the Google Maps web services to the route.Oracle and
// location.Geocoder contracts.
package gmaps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"googlemaps.github.io/maps"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/location"
	"github.com/tripperbot/tripper/internal/route"
)

// Client wraps a maps.Client. One instance is shared process-wide; it holds
// no per-user state.
type Client struct {
	maps   *maps.Client
	region string
}

// New constructs a Client with the given API key. region biases geocoding
// results (ccTLD form, e.g. "nl").
func New(apiKey, region string) (*Client, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gmaps.New: %w", err)
	}
	return &Client{maps: c, region: region}, nil
}

// compile-time checks against the consumer contracts.
var (
	_ route.Oracle      = (*Client)(nil)
	_ location.Geocoder = (*Client)(nil)
)

// DistanceMatrix answers every requested mode for the origin/destination
// pair, arriving at arrival. The Distance Matrix API takes one mode per
// request, so modes are queried sequentially; a transport failure on any of
// them fails the whole call with domain.ErrOracleUnavailable. A NOT_FOUND or
// ZERO_RESULTS element becomes a not-found sentinel route instead.
func (c *Client) DistanceMatrix(ctx context.Context, origin, destination string, modes []domain.Mode, arrival time.Time) (map[domain.Mode]route.Route, error) {
	out := make(map[domain.Mode]route.Route, len(modes))
	for _, m := range modes {
		r, err := c.singleMode(ctx, origin, destination, m, arrival)
		if err != nil {
			return nil, err
		}
		out[m] = r
	}
	return out, nil
}

func (c *Client) singleMode(ctx context.Context, origin, destination string, mode domain.Mode, arrival time.Time) (route.Route, error) {
	resp, err := c.maps.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         travelMode(mode),
		ArrivalTime:  strconv.FormatInt(arrival.Unix(), 10),
	})
	if err != nil {
		return route.Route{}, fmt.Errorf("gmaps.Client.DistanceMatrix: mode %s: %v: %w", mode, err, domain.ErrOracleUnavailable)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return route.Route{}, fmt.Errorf("gmaps.Client.DistanceMatrix: mode %s: empty response: %w", mode, domain.ErrOracleUnavailable)
	}

	elem := resp.Rows[0].Elements[0]
	switch elem.Status {
	case "OK":
	case "NOT_FOUND", "ZERO_RESULTS":
		return route.Route{Mode: mode, NotFound: true}, nil
	default:
		return route.Route{}, fmt.Errorf("gmaps.Client.DistanceMatrix: mode %s: element status %s: %w", mode, elem.Status, domain.ErrOracleUnavailable)
	}

	duration := elem.Duration
	if duration == 0 {
		// Origin and destination geocode to the same place; give the trip a
		// nominal half minute instead of a zero-length window.
		duration = 30 * time.Second
	}

	return route.Route{
		Origin:         resp.OriginAddresses[0],
		Destination:    resp.DestinationAddresses[0],
		Mode:           mode,
		DistanceMeters: elem.Distance.Meters,
		Duration:       duration,
	}, nil
}

// Geocode resolves free text to a formatted address and coordinates, biased
// towards the configured region.
func (c *Client) Geocode(ctx context.Context, address string) (location.Geocoded, error) {
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  c.region,
	})
	if err != nil {
		return location.Geocoded{}, fmt.Errorf("gmaps.Client.Geocode: %v: %w", err, domain.ErrOracleUnavailable)
	}
	if len(results) == 0 {
		return location.Geocoded{}, fmt.Errorf("gmaps.Client.Geocode: %q: %w", address, domain.ErrNotFound)
	}
	return location.Geocoded{
		Address: results[0].FormattedAddress,
		Lat:     results[0].Geometry.Location.Lat,
		Lng:     results[0].Geometry.Location.Lng,
	}, nil
}

func travelMode(m domain.Mode) maps.Mode {
	switch m {
	case domain.ModeWalking:
		return maps.TravelModeWalking
	case domain.ModeBicycling:
		return maps.TravelModeBicycling
	case domain.ModeTransit:
		return maps.TravelModeTransit
	default:
		return maps.TravelModeDriving
	}
}
