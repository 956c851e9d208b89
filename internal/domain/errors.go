// Package domain contains the core data types for Tripper.
// This package has zero external dependencies and is imported by every other
// internal package (schedule, route, reconcile, prefs, handler).
package domain

import "errors"

// ErrLockedField is returned by schedule entry setters when the entry is
// locked by the calendar server and the field is lock-guarded.
// The entry is left unchanged and the field is not marked dirty.
var ErrLockedField = errors.New("field is locked")

// ErrUnsupportedField is returned by patch generation when a dirty field tag
// has no patch builder. This indicates a programming error (a Field constant
// added without a builder) and is never recovered from.
var ErrUnsupportedField = errors.New("unsupported field")

// ErrMissingTemporalBounds is returned by Commit on a not-yet-created entry
// when either the start or the end instant is unset. No network call is made.
var ErrMissingTemporalBounds = errors.New("start and/or end datetime not supplied")

// ErrOracleUnavailable is returned when the distance oracle cannot be reached
// or answers with a non-OK status. It is surfaced, not retried internally —
// retry policy belongs to the caller.
var ErrOracleUnavailable = errors.New("distance oracle unavailable")

// ErrRouteNotFound is returned by mode selection when the oracle reports no
// route between the origin and destination for any queried mode.
// Recoverable: the affected appointment is skipped with a reason and the
// reconciliation run continues.
var ErrRouteNotFound = errors.New("route not found")

// ErrOverlapRejected is returned when a computed travel window would start at
// or before the previous appointment's start. No entry is created; the
// rejection reason is attached to the appointment in the run report.
var ErrOverlapRejected = errors.New("travel window overlaps previous appointment")

// ErrNotFound is returned by store functions when the requested resource does
// not exist. Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. unknown travel mode, negative distance cap).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
