// Package schedule models calendar entries — real appointments and the
// synthetic travel entries Tripper maintains — with field-level dirty
// tracking and partial-update generation for write-back.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/tripperbot/tripper/internal/domain"
)

// Ref points at an adjacent appointment a travel entry serves. It is
// persisted as private metadata on the entry itself, not in a separate store.
type Ref struct {
	CalendarID string
	EntryID    string
}

// IsZero reports whether the ref points at nothing.
func (r Ref) IsZero() bool {
	return r.CalendarID == "" && r.EntryID == ""
}

func (r Ref) String() string {
	return r.CalendarID + "/" + r.EntryID
}

// DateTimeZone pairs an instant with the textual timezone the server stores
// next to it. A zero Time means the bound is unset.
type DateTimeZone struct {
	Time     time.Time
	TimeZone string
}

// Entry is the in-memory representation of one calendar entry.
//
// Setters return the receiver so entries can be built by chaining. A setter
// refused by the server-asserted lock mutates nothing, marks nothing dirty,
// and records the first such violation; Err exposes it and Commit refuses to
// run while it is set. Only title, location, description, start, and end are
// lock-guarded — color and the prev/next refs are not. That asymmetry is
// load-bearing: travel entries on locked calendars still get their refs
// rewritten.
type Entry struct {
	calendarID string
	entryID    string

	title       string
	location    string
	description string
	colorID     string

	start              DateTimeZone
	end                DateTimeZone
	endTimeUnspecified bool

	locked      bool
	preExisting bool
	dirty       map[Field]struct{}

	nextRef Ref
	prevRef Ref

	err error
}

// New returns an empty entry destined for a future insert into calendarID.
func New(calendarID string) *Entry {
	return &Entry{
		calendarID: calendarID,
		dirty:      make(map[Field]struct{}),
	}
}

// FromRecord hydrates an entry from a server-returned record.
// The entry is marked pre-existing and starts with an empty dirty set.
func FromRecord(calendarID string, rec Record) *Entry {
	e := New(calendarID)
	e.preExisting = true
	e.applyRecord(rec)
	return e
}

// Get fetches one event from the service and hydrates an entry from it.
func Get(ctx context.Context, api CalendarAPI, calendarID, eventID string) (*Entry, error) {
	rec, err := api.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return nil, fmt.Errorf("schedule.Get: %w", err)
	}
	return FromRecord(calendarID, rec), nil
}

// ---- accessors -------------------------------------------------------------

func (e *Entry) CalendarID() string  { return e.calendarID }
func (e *Entry) EntryID() string     { return e.entryID }
func (e *Entry) Title() string       { return e.title }
func (e *Entry) Location() string    { return e.location }
func (e *Entry) Description() string { return e.description }
func (e *Entry) ColorID() string     { return e.colorID }
func (e *Entry) Start() DateTimeZone { return e.start }
func (e *Entry) End() DateTimeZone   { return e.end }
func (e *Entry) Locked() bool        { return e.locked }
func (e *Entry) PreExisting() bool   { return e.preExisting }
func (e *Entry) NextRef() Ref        { return e.nextRef }
func (e *Entry) PrevRef() Ref        { return e.prevRef }

// EndTimeUnspecified reports the server's "end time unspecified" flag.
func (e *Entry) EndTimeUnspecified() bool { return e.endTimeUnspecified }

// Err returns the first lock violation recorded by a chained setter, or nil.
func (e *Entry) Err() error { return e.err }

// Dirty reports whether the field has an uncommitted local mutation.
func (e *Entry) Dirty(f Field) bool {
	_, ok := e.dirty[f]
	return ok
}

// DirtyCount returns the number of uncommitted field mutations.
func (e *Entry) DirtyCount() int { return len(e.dirty) }

// Ref returns a Ref pointing at this entry.
func (e *Entry) Ref() Ref {
	return Ref{CalendarID: e.calendarID, EntryID: e.entryID}
}

// Before orders entries by start instant.
func (e *Entry) Before(o *Entry) bool {
	return e.start.Time.Before(o.start.Time)
}

// Same reports identity: two entries are the same calendar entry when their
// (calendarID, entryID) pairs match.
func (e *Entry) Same(o *Entry) bool {
	return e.entryID == o.entryID && e.calendarID == o.calendarID
}

// ---- setters ---------------------------------------------------------------

// lockGuard records a lock violation for a guarded field. It returns false
// when the mutation must be skipped.
func (e *Entry) lockGuard(f Field) bool {
	if !e.locked {
		return true
	}
	if e.err == nil {
		e.err = fmt.Errorf("schedule.Entry: set %s: %w", f, domain.ErrLockedField)
	}
	return false
}

func (e *Entry) set(f Field, apply func()) *Entry {
	apply()
	e.dirty[f] = struct{}{}
	return e
}

// SetTitle sets the entry title. Lock-guarded.
func (e *Entry) SetTitle(title string) *Entry {
	if !e.lockGuard(FieldTitle) {
		return e
	}
	return e.set(FieldTitle, func() { e.title = title })
}

// SetStartDateTime sets the start instant. Lock-guarded.
func (e *Entry) SetStartDateTime(t time.Time) *Entry {
	if !e.lockGuard(FieldStartDateTime) {
		return e
	}
	return e.set(FieldStartDateTime, func() { e.start.Time = t })
}

// SetStartTimeZone sets the textual start timezone. Lock-guarded.
func (e *Entry) SetStartTimeZone(tz string) *Entry {
	if !e.lockGuard(FieldStartTimeZone) {
		return e
	}
	return e.set(FieldStartTimeZone, func() { e.start.TimeZone = tz })
}

// SetEndDateTime sets the end instant. Lock-guarded.
func (e *Entry) SetEndDateTime(t time.Time) *Entry {
	if !e.lockGuard(FieldEndDateTime) {
		return e
	}
	return e.set(FieldEndDateTime, func() { e.end.Time = t })
}

// SetEndTimeZone sets the textual end timezone. Lock-guarded.
func (e *Entry) SetEndTimeZone(tz string) *Entry {
	if !e.lockGuard(FieldEndTimeZone) {
		return e
	}
	return e.set(FieldEndTimeZone, func() { e.end.TimeZone = tz })
}

// SetLocation sets the location. Lock-guarded.
func (e *Entry) SetLocation(location string) *Entry {
	if !e.lockGuard(FieldLocation) {
		return e
	}
	return e.set(FieldLocation, func() { e.location = location })
}

// SetDescription sets the description. Lock-guarded.
func (e *Entry) SetDescription(description string) *Entry {
	if !e.lockGuard(FieldDescription) {
		return e
	}
	return e.set(FieldDescription, func() { e.description = description })
}

// SetColorID sets the color tag. Not lock-guarded.
func (e *Entry) SetColorID(colorID string) *Entry {
	return e.set(FieldColorID, func() { e.colorID = colorID })
}

// SetNextRef points the entry at the appointment it precedes. Not lock-guarded.
func (e *Entry) SetNextRef(ref Ref) *Entry {
	return e.set(FieldNextRef, func() { e.nextRef = ref })
}

// SetPrevRef points the entry at the appointment before it. Not lock-guarded.
func (e *Entry) SetPrevRef(ref Ref) *Entry {
	return e.set(FieldPrevRef, func() { e.prevRef = ref })
}

// ---- write-back ------------------------------------------------------------

// Commit flushes the dirty fields to the calendar service: a partial update
// for pre-existing entries, an insert otherwise. Inserts require both start
// and end instants to be set (domain.ErrMissingTemporalBounds) and make no
// network call when they are not. On success the entry is re-hydrated from
// the server's canonical response and the dirty set is cleared.
func (e *Entry) Commit(ctx context.Context, api CalendarAPI) error {
	if e.err != nil {
		return e.err
	}

	patch, err := e.BuildPatch()
	if err != nil {
		return err
	}

	var rec Record
	if e.preExisting {
		rec, err = api.PatchEvent(ctx, e.calendarID, e.entryID, patch)
		if err != nil {
			return fmt.Errorf("schedule.Entry.Commit: patch: %w", err)
		}
	} else {
		if e.start.Time.IsZero() || e.end.Time.IsZero() {
			return fmt.Errorf("schedule.Entry.Commit: %w", domain.ErrMissingTemporalBounds)
		}
		rec, err = api.InsertEvent(ctx, e.calendarID, patch)
		if err != nil {
			return fmt.Errorf("schedule.Entry.Commit: insert: %w", err)
		}
		e.preExisting = true
	}

	e.applyRecord(rec)
	return nil
}

// Delete removes the entry from the calendar service.
func (e *Entry) Delete(ctx context.Context, api CalendarAPI) error {
	if err := api.DeleteEvent(ctx, e.calendarID, e.entryID); err != nil {
		return fmt.Errorf("schedule.Entry.Delete: %w", err)
	}
	return nil
}

// applyRecord overwrites the entry's exposed fields with the server's
// canonical response and clears the dirty set. The refs are only replaced
// when the response carries the metadata keys, so a response without
// extended properties does not drop them.
func (e *Entry) applyRecord(rec Record) {
	if rec.ID != "" {
		e.entryID = rec.ID
	}
	e.title = rec.Summary
	e.location = rec.Location
	e.description = rec.Description
	e.colorID = rec.ColorID
	e.locked = rec.Locked
	e.endTimeUnspecified = rec.EndTimeUnspecified
	e.start = DateTimeZone{Time: rec.Start.DateTime, TimeZone: rec.Start.TimeZone}
	e.end = DateTimeZone{Time: rec.End.DateTime, TimeZone: rec.End.TimeZone}

	if rec.Private != nil {
		if v, ok := rec.Private[propNextCalendarID]; ok {
			e.nextRef.CalendarID = v
		}
		if v, ok := rec.Private[propNextEventID]; ok {
			e.nextRef.EntryID = v
		}
		if v, ok := rec.Private[propPrevCalendarID]; ok {
			e.prevRef.CalendarID = v
		}
		if v, ok := rec.Private[propPrevEventID]; ok {
			e.prevRef.EntryID = v
		}
	}

	clear(e.dirty)
}
