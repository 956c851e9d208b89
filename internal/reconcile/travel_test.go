package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripperbot/tripper/internal/domain"
)

func TestTravelTitle(t *testing.T) {
	assert.Equal(t, "Tripper: 6 mins of bicycling", travelTitle(418*time.Second, domain.ModeBicycling))
	assert.Equal(t, "Tripper: 34 mins of walking", travelTitle(2071*time.Second, domain.ModeWalking))
	assert.Equal(t, "Tripper: 1 mins of driving", travelTitle(20*time.Second, domain.ModeDriving),
		"sub-minute trips round up")
}

func TestDescriptionRoundTrip(t *testing.T) {
	desc := buildDescription("Homestreet 1, Utrecht", "Museumplein 6, Amsterdam", domain.ModeTransit)

	origin, destination, ok := parseDescription(desc)
	require.True(t, ok)
	assert.Equal(t, "Homestreet 1, Utrecht", origin)
	assert.Equal(t, "Museumplein 6, Amsterdam", destination)
}

func TestParseDescription_malformed(t *testing.T) {
	for _, desc := range []string{
		"",
		"just a note someone typed",
		"header\nto:\nA\nfrom:\nB",
		"header\nfrom:\nonly an origin",
	} {
		_, _, ok := parseDescription(desc)
		assert.False(t, ok, "desc %q", desc)
	}
}

func TestNavigationURL(t *testing.T) {
	u := navigationURL("Homestreet 1, Utrecht", "Museumplein 6, Amsterdam", domain.ModeBicycling)

	assert.Contains(t, u, "https://www.google.com/maps/dir/?")
	assert.Contains(t, u, "api=1")
	assert.Contains(t, u, "travelmode=bicycling")
	assert.Contains(t, u, "dir_action=navigate")
	assert.Contains(t, u, "origin=Homestreet+1%2C+Utrecht")
	assert.Contains(t, u, "destination=Museumplein+6%2C+Amsterdam")
}
