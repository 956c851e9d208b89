// Package reconcile implements the reconciliation engine: one run diffs a
// user's appointments against the existing synthetic travel entries and
// creates, shifts, or deletes travel entries until the schedule is
// consistent. Runs are idempotent — a second pass over an unchanged schedule
// performs no calendar mutations.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripperbot/tripper/internal/domain"
	"github.com/tripperbot/tripper/internal/location"
	"github.com/tripperbot/tripper/internal/route"
	"github.com/tripperbot/tripper/internal/schedule"
)

const (
	defaultHorizon   = 14 * 24 * time.Hour
	defaultMaxEvents = 20
)

// CalendarFactory builds a per-user calendar client. The production
// implementation is googlecal.Factory.
type CalendarFactory interface {
	For(ctx context.Context, userID string) (schedule.CalendarAPI, error)
}

// RouteSelector picks the best travel mode for a trip. The production
// implementation is route.Selector.
type RouteSelector interface {
	Best(ctx context.Context, origin, destination string, arrival time.Time, prefs domain.Preferences) (route.Route, error)
}

// PreferenceSource reads one user's travel preferences.
type PreferenceSource interface {
	Get(ctx context.Context, userID string) (domain.Preferences, error)
}

// Engine runs reconciliations. It is stateless across runs apart from the
// route cache inside the selector; one instance serves all users.
type Engine struct {
	calendars CalendarFactory
	selector  RouteSelector
	resolver  *location.Resolver
	prefs     PreferenceSource
	log       *slog.Logger

	now       func() time.Time
	horizon   time.Duration
	maxEvents int64
}

// NewEngine constructs an Engine. A nil logger falls back to slog.Default.
func NewEngine(calendars CalendarFactory, selector RouteSelector, resolver *location.Resolver, prefs PreferenceSource, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		calendars: calendars,
		selector:  selector,
		resolver:  resolver,
		prefs:     prefs,
		log:       log,
		now:       time.Now,
		horizon:   defaultHorizon,
		maxEvents: defaultMaxEvents,
	}
}

// WithClock overrides the engine's time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithLimits overrides the planning horizon and the per-calendar listing cap.
// Non-positive values keep the defaults.
func (e *Engine) WithLimits(horizon time.Duration, maxEvents int64) *Engine {
	if horizon > 0 {
		e.horizon = horizon
	}
	if maxEvents > 0 {
		e.maxEvents = maxEvents
	}
	return e
}

// Run performs one reconciliation for userID. force deletes every existing
// travel entry first and rebuilds from scratch.
//
// Failures that prevent reading the base appointment sequence (preferences,
// calendar discovery, event listing) are fatal and returned as errors.
// Per-appointment failures never abort the run: they are recorded on the
// report with a reason, and oracle outages additionally bump
// Report.OracleErrors so the caller can retry the run.
func (e *Engine) Run(ctx context.Context, userID string, force bool) (Report, error) {
	report := Report{RunID: uuid.NewString(), UserID: userID}
	log := e.log.With("run_id", report.RunID, "user_id", userID)

	prefs, err := e.prefs.Get(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("reconcile.Engine.Run: load preferences: %w", err)
	}

	api, err := e.calendars.For(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("reconcile.Engine.Run: %w", err)
	}

	travelCal, listenCals, err := e.ensureCalendars(ctx, api)
	if err != nil {
		return report, fmt.Errorf("reconcile.Engine.Run: %w", err)
	}
	if len(listenCals) == 0 {
		log.InfoContext(ctx, "no calendars opted in", "marker", calendarMarker)
	}

	appointments, err := e.loadEntries(ctx, api, listenCals)
	if err != nil {
		return report, fmt.Errorf("reconcile.Engine.Run: %w", err)
	}
	travels, err := e.loadEntries(ctx, api, []schedule.Calendar{travelCal})
	if err != nil {
		return report, fmt.Errorf("reconcile.Engine.Run: %w", err)
	}

	if force {
		for _, tr := range travels {
			if err := tr.Delete(ctx, api); err != nil {
				return report, fmt.Errorf("reconcile.Engine.Run: forced refresh: %w", err)
			}
			report.add(Action{Kind: ActionDelete, CalendarID: tr.CalendarID(), EntryID: tr.EntryID(), Title: tr.Title(), Reason: "forced refresh"})
		}
		travels = nil
	}

	e.sweep(ctx, log, api, travelCal.ID, appointments, travels, prefs, &report)

	log.InfoContext(ctx, "reconciliation finished",
		"appointments", len(appointments),
		"travel_entries", len(travels),
		"created", report.Count(ActionCreate),
		"updated", report.Count(ActionUpdate),
		"deleted", report.Count(ActionDelete),
		"rejected", report.Count(ActionReject),
		"skipped", report.Count(ActionSkip),
	)
	return report, nil
}

// ensureCalendars scans the calendar list for opted-in calendars and the
// dedicated travel calendar, creating the latter when missing.
func (e *Engine) ensureCalendars(ctx context.Context, api schedule.CalendarAPI) (schedule.Calendar, []schedule.Calendar, error) {
	calendars, err := api.ListCalendars(ctx)
	if err != nil {
		return schedule.Calendar{}, nil, err
	}

	var travelCal schedule.Calendar
	var listen []schedule.Calendar
	for _, cal := range calendars {
		if marked(cal) {
			listen = append(listen, cal)
		}
		if strings.Contains(cal.Summary, travelCalendarSummary) {
			travelCal = cal
		}
	}

	if travelCal.ID == "" {
		travelCal, err = api.InsertCalendar(ctx, travelCalendarSummary, travelCalendarDescription, travelCalendarTimeZone)
		if err != nil {
			return schedule.Calendar{}, nil, fmt.Errorf("create travel calendar: %w", err)
		}
	}
	return travelCal, listen, nil
}

func marked(cal schedule.Calendar) bool {
	return strings.Contains(cal.SummaryOverride, calendarMarker) ||
		strings.Contains(cal.Description, calendarMarker) ||
		strings.Contains(cal.Summary, calendarMarker)
}

// loadEntries lists upcoming events from the given calendars, skipping
// all-day entries and anything beyond the planning horizon, and returns them
// sorted by start instant.
func (e *Engine) loadEntries(ctx context.Context, api schedule.CalendarAPI, calendars []schedule.Calendar) ([]*schedule.Entry, error) {
	now := e.now()
	cutoff := now.Add(e.horizon)

	var entries []*schedule.Entry
	for _, cal := range calendars {
		records, err := api.ListEvents(ctx, cal.ID, now, e.maxEvents)
		if err != nil {
			return nil, fmt.Errorf("list events in %s: %w", cal.ID, err)
		}
		for _, rec := range records {
			if rec.Start.AllDay {
				continue
			}
			if !rec.Start.DateTime.Before(cutoff) {
				continue
			}
			entries = append(entries, schedule.FromRecord(cal.ID, rec))
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Before(entries[j]) })
	return entries, nil
}

// sweep is the single pass over the merged, time-sorted arena of
// appointments and travel entries. Each entry's immediate predecessor in the
// arena serves as "previous appointment" — a local, not global, consistency
// check: only adjacent conflicts are detected.
func (e *Engine) sweep(ctx context.Context, log *slog.Logger, api schedule.CalendarAPI, travelCalID string, appointments, travels []*schedule.Entry, prefs domain.Preferences, report *Report) {
	byID := make(map[string]*schedule.Entry, len(appointments))
	for _, a := range appointments {
		byID[a.EntryID()] = a
	}

	// listened holds the travel entries themselves plus every appointment
	// already paired with one; anything else eligible is missing a trip.
	listened := make(map[string]bool, 2*len(travels))
	for _, tr := range travels {
		listened[tr.EntryID()] = true
		listened[tr.NextRef().EntryID] = true
	}

	arena := make([]*schedule.Entry, 0, len(travels)+len(appointments))
	arena = append(arena, travels...)
	arena = append(arena, appointments...)
	sort.SliceStable(arena, func(i, j int) bool { return arena[i].Before(arena[j]) })

	for i, cur := range arena {
		var prev *schedule.Entry
		if i > 0 {
			prev = arena[i-1]
		}

		if cur.CalendarID() == travelCalID {
			e.updateTravel(ctx, log, api, travelCalID, cur, prev, arena, byID, prefs, report)
			continue
		}

		if listened[cur.EntryID()] {
			continue
		}
		if !e.needsTravel(cur) {
			report.add(Action{Kind: ActionSkip, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
				Reason: "no location set or event start in the past"})
			continue
		}
		e.createTravel(ctx, log, api, travelCalID, cur, prev, prefs, report)
	}
}

// needsTravel reports eligibility: the entry has a resolvable location and
// starts in the future.
func (e *Engine) needsTravel(entry *schedule.Entry) bool {
	if e.resolver.Resolve(entry.Location()) == "" {
		return false
	}
	return entry.Start().Time.After(e.now())
}

// previousLocation picks the trip origin: the previous appointment's
// resolved location when it has one and ends on the same calendar day as the
// destination starts, the user's home address otherwise.
func (e *Engine) previousLocation(dest *schedule.Entry, home string, prev *schedule.Entry) string {
	if prev == nil || prev.Location() == "" {
		return home
	}
	dy, dm, dd := dest.Start().Time.Date()
	py, pm, pd := prev.End().Time.Date()
	if dy != py || dm != pm || dd != pd {
		return home
	}
	return e.resolver.Resolve(prev.Location())
}

// createTravel computes and inserts the travel entry preceding dest.
func (e *Engine) createTravel(ctx context.Context, log *slog.Logger, api schedule.CalendarAPI, travelCalID string, dest, prev *schedule.Entry, prefs domain.Preferences, report *Report) {
	origin := e.previousLocation(dest, prefs.HomeAddress, prev)
	destination := e.resolver.Resolve(dest.Location())

	r, err := e.selector.Best(ctx, origin, destination, dest.Start().Time, prefs)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRouteNotFound):
			report.add(Action{Kind: ActionReject, CalendarID: dest.CalendarID(), EntryID: dest.EntryID(), Title: dest.Title(),
				Reason: fmt.Sprintf("route not found from %q to %q", origin, destination)})
		case errors.Is(err, domain.ErrOracleUnavailable):
			report.OracleErrors++
			report.add(Action{Kind: ActionSkip, CalendarID: dest.CalendarID(), EntryID: dest.EntryID(), Title: dest.Title(),
				Reason: "distance oracle unavailable"})
		default:
			report.add(Action{Kind: ActionSkip, CalendarID: dest.CalendarID(), EntryID: dest.EntryID(), Title: dest.Title(),
				Reason: err.Error()})
		}
		return
	}
	if r.Duration < time.Minute {
		log.DebugContext(ctx, "very short route", "duration", r.Duration, "origin", origin, "destination", destination)
	}

	start := dest.Start().Time.Add(-r.Duration)
	if prev != nil && !start.After(prev.Start().Time) {
		report.add(Action{Kind: ActionReject, CalendarID: dest.CalendarID(), EntryID: dest.EntryID(), Title: dest.Title(),
			Reason: "travel would start at or before the previous appointment's start"})
		return
	}

	entry := schedule.New(travelCalID).
		SetTitle(travelTitle(r.Duration, r.Mode)).
		SetStartDateTime(start).
		SetEndDateTime(dest.Start().Time).
		SetDescription(buildDescription(origin, destination, r.Mode)).
		SetColorID(r.Mode.ColorID()).
		SetNextRef(dest.Ref())
	if prev != nil {
		entry.SetPrevRef(prev.Ref())
	}

	if err := entry.Commit(ctx, api); err != nil {
		report.add(Action{Kind: ActionSkip, CalendarID: dest.CalendarID(), EntryID: dest.EntryID(), Title: dest.Title(),
			Reason: fmt.Sprintf("insert travel entry: %v", err)})
		return
	}
	report.add(Action{Kind: ActionCreate, CalendarID: travelCalID, EntryID: entry.EntryID(), Title: entry.Title()})
}

// updateTravel brings one existing travel entry in line with its paired
// appointment: orphans are deleted, drifted entries are shifted, and entries
// whose recorded route no longer matches are replaced.
func (e *Engine) updateTravel(ctx context.Context, log *slog.Logger, api schedule.CalendarAPI, travelCalID string, cur, prev *schedule.Entry, arena []*schedule.Entry, byID map[string]*schedule.Entry, prefs domain.Preferences, report *Report) {
	paired, live := byID[cur.NextRef().EntryID]
	if !live || !e.needsTravel(paired) {
		// Orphan: the appointment this entry served is gone or no longer
		// eligible. Delete, never replace — if the appointment reappears a
		// later run creates a fresh entry.
		if err := cur.Delete(ctx, api); err != nil {
			report.add(Action{Kind: ActionSkip, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
				Reason: fmt.Sprintf("delete orphaned travel entry: %v", err)})
			return
		}
		report.add(Action{Kind: ActionDelete, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
			Reason: "paired appointment no longer exists"})
		return
	}

	// Drift: the appointment moved; shift the travel window by the same
	// delta so it still ends exactly at the appointment's start.
	moved := false
	if !paired.Start().Time.Equal(cur.End().Time) {
		duration := cur.End().Time.Sub(cur.Start().Time)
		cur.SetStartDateTime(paired.Start().Time.Add(-duration)).
			SetEndDateTime(paired.Start().Time)
		if err := cur.Commit(ctx, api); err != nil {
			report.add(Action{Kind: ActionSkip, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
				Reason: fmt.Sprintf("shift travel entry: %v", err)})
			return
		}
		report.add(Action{Kind: ActionUpdate, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
			Reason: "shifted to follow appointment"})
		moved = true
	}
	if moved {
		// Shifting may change which entry now precedes the travel window.
		prev = predecessor(arena, cur)
	}

	// Stale route: the recorded origin/destination no longer match what a
	// fresh computation would use. Mode and duration must be recomputed, so
	// the entry is replaced rather than patched.
	recordedOrigin, recordedDest, parsed := parseDescription(cur.Description())
	wantOrigin := e.previousLocation(paired, prefs.HomeAddress, prev)
	wantDest := e.resolver.Resolve(paired.Location())
	if parsed && recordedOrigin == wantOrigin && recordedDest == wantDest {
		return
	}

	if prev != nil && !cur.Start().Time.After(prev.Start().Time) {
		report.add(Action{Kind: ActionReject, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
			Reason: "travel would start at or before the previous appointment's start"})
		return
	}
	if err := cur.Delete(ctx, api); err != nil {
		report.add(Action{Kind: ActionSkip, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
			Reason: fmt.Sprintf("delete stale travel entry: %v", err)})
		return
	}
	report.add(Action{Kind: ActionDelete, CalendarID: cur.CalendarID(), EntryID: cur.EntryID(), Title: cur.Title(),
		Reason: "origin or destination changed"})
	e.createTravel(ctx, log, api, travelCalID, paired, prev, prefs, report)
}

// predecessor returns the entry immediately before target in start order,
// or nil when target is first. Used after a drift shift moved target.
func predecessor(arena []*schedule.Entry, target *schedule.Entry) *schedule.Entry {
	sorted := make([]*schedule.Entry, len(arena))
	copy(sorted, arena)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	for i, entry := range sorted {
		if entry.Same(target) {
			if i == 0 {
				return nil
			}
			return sorted[i-1]
		}
	}
	return nil
}
