// Package location maps free-form or coded location strings to addresses.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Resolver translates campus building codes like "EWI-Lecture Hall D" into
// street addresses. Lookup is fail-open: a string that matches no known code
// passes through unchanged, on the assumption it is already an address the
// oracle can geocode.
type Resolver struct {
	codes map[string]string
}

// NewResolver builds a Resolver over the given code table. Keys are matched
// case-insensitively against the segment before the first "-".
func NewResolver(codes map[string]string) *Resolver {
	lowered := make(map[string]string, len(codes))
	for k, v := range codes {
		lowered[strings.ToLower(k)] = v
	}
	return &Resolver{codes: lowered}
}

// LoadResolver reads a JSON object of code → address pairs from path.
// An empty path yields a Resolver with no codes, which passes everything
// through.
func LoadResolver(path string) (*Resolver, error) {
	if path == "" {
		return NewResolver(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("location.LoadResolver: %w", err)
	}
	var codes map[string]string
	if err := json.Unmarshal(raw, &codes); err != nil {
		return nil, fmt.Errorf("location.LoadResolver: parse %s: %w", path, err)
	}
	return NewResolver(codes), nil
}

// Resolve returns the address for a coded location, or the input unchanged
// when the code is unknown. The code is the lowercased segment before the
// first "-", so "EWI-Hall A" and "ewi" resolve identically.
func (r *Resolver) Resolve(loc string) string {
	if loc == "" {
		return ""
	}
	code := strings.ToLower(strings.SplitN(loc, "-", 2)[0])
	if addr, ok := r.codes[code]; ok {
		return addr
	}
	return loc
}

// Geocoded is a geocoder answer: the formatted address plus its coordinates.
type Geocoded struct {
	Address string
	Lat     float64
	Lng     float64
}

// Geocoder resolves free-form text to a geocoded address. The production
// implementation is internal/gmaps.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Geocoded, error)
}
