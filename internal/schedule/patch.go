package schedule

import (
	"fmt"

	"github.com/tripperbot/tripper/internal/domain"
)

// wireTimeLayout is the datetime format the calendar service speaks:
// RFC 3339 without fractional seconds, offset included.
const wireTimeLayout = "2006-01-02T15:04:05-07:00"

// Private extended-property keys carrying the prev/next appointment refs.
// These names are wire-compatible with existing travel entries, so a new
// deployment picks up entries written by earlier versions.
const (
	propNextCalendarID = "tripperNextEvent_CalendarID"
	propNextEventID    = "tripperNextEvent_EventID"
	propPrevCalendarID = "tripperPrevEvent_CalendarID"
	propPrevEventID    = "tripperPrevEvent_EventID"
)

// PatchTime is the start or end fragment of a Patch. Either half may be nil
// when only the other was touched.
type PatchTime struct {
	DateTime *string
	TimeZone *string
}

// Patch is a partial update message for one calendar entry. Nil fields were
// not touched and must not be sent. Private carries extended-property
// key/value pairs; an empty map means no metadata change.
type Patch struct {
	Summary     *string
	Start       *PatchTime
	End         *PatchTime
	Location    *string
	Description *string
	ColorID     *string
	Private     map[string]string
}

// startFragment returns the patch's start fragment, allocating it on first use
// so that start_datetime and start_timezone merge into one top-level key.
func (p *Patch) startFragment() *PatchTime {
	if p.Start == nil {
		p.Start = &PatchTime{}
	}
	return p.Start
}

func (p *Patch) endFragment() *PatchTime {
	if p.End == nil {
		p.End = &PatchTime{}
	}
	return p.End
}

func (p *Patch) private() map[string]string {
	if p.Private == nil {
		p.Private = make(map[string]string)
	}
	return p.Private
}

// patchBuilders maps every Field to the function that writes its fragment
// into a Patch. BuildPatch fails with domain.ErrUnsupportedField for any tag
// missing here; a test iterates AllFields to keep the table exhaustive.
var patchBuilders = map[Field]func(*Patch, *Entry){
	FieldTitle: func(p *Patch, e *Entry) {
		p.Summary = ptr(e.title)
	},
	FieldStartDateTime: func(p *Patch, e *Entry) {
		p.startFragment().DateTime = ptr(e.start.Time.Format(wireTimeLayout))
	},
	FieldStartTimeZone: func(p *Patch, e *Entry) {
		p.startFragment().TimeZone = ptr(e.start.TimeZone)
	},
	FieldEndDateTime: func(p *Patch, e *Entry) {
		p.endFragment().DateTime = ptr(e.end.Time.Format(wireTimeLayout))
	},
	FieldEndTimeZone: func(p *Patch, e *Entry) {
		p.endFragment().TimeZone = ptr(e.end.TimeZone)
	},
	FieldLocation: func(p *Patch, e *Entry) {
		p.Location = ptr(e.location)
	},
	FieldDescription: func(p *Patch, e *Entry) {
		p.Description = ptr(e.description)
	},
	FieldColorID: func(p *Patch, e *Entry) {
		p.ColorID = ptr(e.colorID)
	},
	FieldNextRef: func(p *Patch, e *Entry) {
		priv := p.private()
		priv[propNextCalendarID] = e.nextRef.CalendarID
		priv[propNextEventID] = e.nextRef.EntryID
	},
	FieldPrevRef: func(p *Patch, e *Entry) {
		priv := p.private()
		priv[propPrevCalendarID] = e.prevRef.CalendarID
		priv[propPrevEventID] = e.prevRef.EntryID
	},
}

// BuildPatch maps the entry's dirty fields to a partial update message.
// Fields are assembled in AllFields order so output is deterministic.
// A dirty tag without a builder fails with domain.ErrUnsupportedField —
// a programming error, never recovered.
func (e *Entry) BuildPatch() (Patch, error) {
	var p Patch
	for f := range e.dirty {
		if _, ok := patchBuilders[f]; !ok {
			return Patch{}, fmt.Errorf("schedule.Entry.BuildPatch: field %q: %w", f, domain.ErrUnsupportedField)
		}
	}
	for _, f := range AllFields() {
		if _, dirty := e.dirty[f]; !dirty {
			continue
		}
		patchBuilders[f](&p, e)
	}
	return p, nil
}

func ptr[T any](v T) *T { return &v }
