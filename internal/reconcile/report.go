package reconcile

// ActionKind classifies one reconciliation outcome.
type ActionKind string

const (
	// ActionCreate: a travel entry was inserted for an appointment.
	ActionCreate ActionKind = "create"
	// ActionUpdate: an existing travel entry was shifted in time.
	ActionUpdate ActionKind = "update"
	// ActionDelete: a travel entry was removed (orphaned, stale, or forced).
	ActionDelete ActionKind = "delete"
	// ActionReject: a travel entry was deliberately not created; Reason says why.
	ActionReject ActionKind = "reject"
	// ActionSkip: an appointment was passed over due to a recoverable failure.
	ActionSkip ActionKind = "skip"
)

// Action records one outcome of a run, attached to the specific calendar
// entry it concerns. Reason is human-readable and always set for rejects and
// skips.
type Action struct {
	Kind       ActionKind `json:"kind"`
	CalendarID string     `json:"calendar_id"`
	EntryID    string     `json:"entry_id,omitempty"`
	Title      string     `json:"title,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Report is the result of one reconciliation run for one user.
type Report struct {
	RunID  string `json:"run_id"`
	UserID string `json:"user_id"`

	Actions []Action `json:"actions"`

	// OracleErrors counts appointments skipped because the distance oracle
	// was unavailable. The run still completes; callers use this to decide
	// whether a retry is worthwhile.
	OracleErrors int `json:"oracle_errors,omitempty"`
}

func (r *Report) add(a Action) {
	r.Actions = append(r.Actions, a)
}

// Count returns the number of actions of the given kind.
func (r *Report) Count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Mutations returns the number of create, update, and delete actions — the
// operations that touched the calendar.
func (r *Report) Mutations() int {
	return r.Count(ActionCreate) + r.Count(ActionUpdate) + r.Count(ActionDelete)
}
