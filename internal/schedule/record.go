package schedule

import (
	"context"
	"time"
)

// EventTime is one temporal bound of a server-side record. AllDay marks
// date-only bounds; all-day entries are always skipped by the engine.
type EventTime struct {
	DateTime time.Time
	TimeZone string
	AllDay   bool
}

// Record is the provider-independent shape of one calendar entry as returned
// by the calendar service. Adapters translate their wire format into this.
type Record struct {
	ID                 string
	Summary            string
	Location           string
	Description        string
	ColorID            string
	Locked             bool
	EndTimeUnspecified bool
	Start              EventTime
	End                EventTime
	// Private holds the entry's private extended properties, including the
	// prev/next refs travel entries carry.
	Private map[string]string
}

// Calendar describes one calendar from the user's calendar list.
type Calendar struct {
	ID              string
	Summary         string
	SummaryOverride string
	Description     string
	TimeZone        string
}

// CalendarAPI is the calendar service contract the engine and entries consume.
// The production implementation is internal/googlecal; tests use in-memory fakes.
type CalendarAPI interface {
	ListCalendars(ctx context.Context) ([]Calendar, error)
	InsertCalendar(ctx context.Context, summary, description, timeZone string) (Calendar, error)

	// ListEvents returns non-recurring event instances starting at or after
	// timeMin, ordered by start time, at most maxResults of them.
	ListEvents(ctx context.Context, calendarID string, timeMin time.Time, maxResults int64) ([]Record, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (Record, error)
	InsertEvent(ctx context.Context, calendarID string, p Patch) (Record, error)
	PatchEvent(ctx context.Context, calendarID, eventID string, p Patch) (Record, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
