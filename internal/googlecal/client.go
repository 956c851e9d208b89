// Package googlecal adapts the Google Calendar API to the schedule.CalendarAPI
// contract the engine and entries consume.
package googlecal

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/tripperbot/tripper/internal/schedule"
)

// Client implements schedule.CalendarAPI over an authenticated calendar
// service. Construct one per user via Factory.
type Client struct {
	srv *calendar.Service
}

// New wraps an already-authenticated calendar service.
func New(srv *calendar.Service) *Client {
	return &Client{srv: srv}
}

var _ schedule.CalendarAPI = (*Client)(nil)

// ListCalendars returns the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]schedule.Calendar, error) {
	list, err := c.srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("googlecal.Client.ListCalendars: %w", err)
	}
	out := make([]schedule.Calendar, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, schedule.Calendar{
			ID:              item.Id,
			Summary:         item.Summary,
			SummaryOverride: item.SummaryOverride,
			Description:     item.Description,
			TimeZone:        item.TimeZone,
		})
	}
	return out, nil
}

// InsertCalendar creates a new secondary calendar.
func (c *Client) InsertCalendar(ctx context.Context, summary, description, timeZone string) (schedule.Calendar, error) {
	created, err := c.srv.Calendars.Insert(&calendar.Calendar{
		Summary:     summary,
		Description: description,
		TimeZone:    timeZone,
	}).Context(ctx).Do()
	if err != nil {
		return schedule.Calendar{}, fmt.Errorf("googlecal.Client.InsertCalendar: %w", err)
	}
	return schedule.Calendar{
		ID:          created.Id,
		Summary:     created.Summary,
		Description: created.Description,
		TimeZone:    created.TimeZone,
	}, nil
}

// ListEvents returns expanded single events ordered by start time.
// singleEvents=true flattens recurring events so the engine never sees a
// recurrence master.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin time.Time, maxResults int64) ([]schedule.Record, error) {
	events, err := c.srv.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("googlecal.Client.ListEvents: %w", err)
	}
	out := make([]schedule.Record, 0, len(events.Items))
	for _, ev := range events.Items {
		rec, err := toRecord(ev)
		if err != nil {
			return nil, fmt.Errorf("googlecal.Client.ListEvents: event %s: %w", ev.Id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetEvent fetches one event.
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (schedule.Record, error) {
	ev, err := c.srv.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return schedule.Record{}, fmt.Errorf("googlecal.Client.GetEvent: %w", err)
	}
	rec, err := toRecord(ev)
	if err != nil {
		return schedule.Record{}, fmt.Errorf("googlecal.Client.GetEvent: event %s: %w", eventID, err)
	}
	return rec, nil
}

// InsertEvent creates an event from the patch message.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, p schedule.Patch) (schedule.Record, error) {
	created, err := c.srv.Events.Insert(calendarID, fromPatch(p)).Context(ctx).Do()
	if err != nil {
		return schedule.Record{}, fmt.Errorf("googlecal.Client.InsertEvent: %w", err)
	}
	rec, err := toRecord(created)
	if err != nil {
		return schedule.Record{}, fmt.Errorf("googlecal.Client.InsertEvent: %w", err)
	}
	return rec, nil
}

// PatchEvent applies a partial update. Patch semantics on the wire: absent
// fields are left untouched by the server.
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, p schedule.Patch) (schedule.Record, error) {
	patched, err := c.srv.Events.Patch(calendarID, eventID, fromPatch(p)).Context(ctx).Do()
	if err != nil {
		return schedule.Record{}, fmt.Errorf("googlecal.Client.PatchEvent: %w", err)
	}
	rec, err := toRecord(patched)
	if err != nil {
		return schedule.Record{}, fmt.Errorf("googlecal.Client.PatchEvent: %w", err)
	}
	return rec, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.srv.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("googlecal.Client.DeleteEvent: %w", err)
	}
	return nil
}

// toRecord translates a wire event into the provider-independent record.
func toRecord(ev *calendar.Event) (schedule.Record, error) {
	rec := schedule.Record{
		ID:                 ev.Id,
		Summary:            ev.Summary,
		Location:           ev.Location,
		Description:        ev.Description,
		ColorID:            ev.ColorId,
		Locked:             ev.Locked,
		EndTimeUnspecified: ev.EndTimeUnspecified,
	}
	var err error
	if rec.Start, err = toEventTime(ev.Start); err != nil {
		return schedule.Record{}, fmt.Errorf("start: %w", err)
	}
	if rec.End, err = toEventTime(ev.End); err != nil {
		return schedule.Record{}, fmt.Errorf("end: %w", err)
	}
	if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private != nil {
		rec.Private = ev.ExtendedProperties.Private
	}
	return rec, nil
}

func toEventTime(t *calendar.EventDateTime) (schedule.EventTime, error) {
	if t == nil {
		return schedule.EventTime{}, nil
	}
	if t.Date != "" {
		// All-day bound: date only, no instant.
		return schedule.EventTime{TimeZone: t.TimeZone, AllDay: true}, nil
	}
	out := schedule.EventTime{TimeZone: t.TimeZone}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return schedule.EventTime{}, err
		}
		out.DateTime = parsed
	}
	return out, nil
}

// fromPatch translates a patch message into the wire event. Explicit empty
// strings go via ForceSendFields so the server distinguishes "clear this
// field" from "field not sent".
func fromPatch(p schedule.Patch) *calendar.Event {
	ev := &calendar.Event{}

	setString := func(dst *string, src *string, field string) {
		if src == nil {
			return
		}
		*dst = *src
		if *src == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, field)
		}
	}

	setString(&ev.Summary, p.Summary, "Summary")
	setString(&ev.Location, p.Location, "Location")
	setString(&ev.Description, p.Description, "Description")
	setString(&ev.ColorId, p.ColorID, "ColorId")

	if p.Start != nil {
		ev.Start = fromPatchTime(p.Start)
	}
	if p.End != nil {
		ev.End = fromPatchTime(p.End)
	}
	if p.Private != nil {
		ev.ExtendedProperties = &calendar.EventExtendedProperties{Private: p.Private}
	}
	return ev
}

func fromPatchTime(t *schedule.PatchTime) *calendar.EventDateTime {
	out := &calendar.EventDateTime{}
	if t.DateTime != nil {
		out.DateTime = *t.DateTime
	}
	if t.TimeZone != nil {
		out.TimeZone = *t.TimeZone
	}
	return out
}
