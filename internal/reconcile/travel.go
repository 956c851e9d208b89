package reconcile

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tripperbot/tripper/internal/domain"
)

const (
	// travelCalendarSummary identifies the dedicated calendar holding all
	// synthetic travel entries.
	travelCalendarSummary = "Tripper Travel Time"

	// calendarMarker opts a calendar in for scanning: it must appear in the
	// calendar's summary, summary override, or description.
	calendarMarker = "[Tripper]"

	travelCalendarTimeZone    = "Europe/Amsterdam"
	travelCalendarDescription = "Use Tripper to never run late and start walking, so you won't get overweight.\n" +
		"Add Tripper now to your Google account and receive a 20% discount!"

	descriptionHeader = "Tripper Travel Time, Never Too Late!"
)

// travelTitle renders the travel entry summary, e.g. "Tripper: 8 mins of
// bicycling". Sub-minute trips round up to one minute so the title never
// reads "0 mins".
func travelTitle(duration time.Duration, mode domain.Mode) string {
	mins := int(duration / time.Minute)
	if mins == 0 {
		mins = 1
	}
	return fmt.Sprintf("Tripper: %d mins of %s", mins, mode)
}

// buildDescription renders the travel entry description. The origin and
// destination occupy fixed line positions because parseDescription reads
// them back during the stale-route check — the description doubles as the
// entry's route record.
func buildDescription(origin, destination string, mode domain.Mode) string {
	return fmt.Sprintf("%s\nfrom:\n%s\nto:\n%s\n\nnavigation link: %s",
		descriptionHeader, origin, destination, navigationURL(origin, destination, mode))
}

// parseDescription extracts the recorded origin and destination from a
// travel entry description. ok is false when the description does not have
// the expected shape, which callers treat as a stale route.
func parseDescription(desc string) (origin, destination string, ok bool) {
	lines := strings.Split(desc, "\n")
	if len(lines) < 5 || lines[1] != "from:" || lines[3] != "to:" {
		return "", "", false
	}
	return lines[2], lines[4], true
}

// navigationURL builds a Google Maps directions link for the trip.
func navigationURL(origin, destination string, mode domain.Mode) string {
	q := url.Values{
		"api":         {"1"},
		"origin":      {origin},
		"destination": {destination},
		"travelmode":  {string(mode)},
		"dir_action":  {"navigate"},
	}
	u := url.URL{Scheme: "https", Host: "www.google.com", Path: "/maps/dir/", RawQuery: q.Encode()}
	return u.String()
}
