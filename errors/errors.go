// Package errors provides error handling for toonana.
//
// It re-exports github.com/cockroachdb/errors, giving the rest of the
// codebase stack traces, wrapping with context, and user-facing hints,
// plus the domain sentinels used to classify failures across the job
// pipeline, the entry store, and the editor core.
//
// Usage:
//
//	if err := store.Upsert(ctx, draft); err != nil {
//	    return errors.Wrap(err, "persist entry")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle missing entry
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping.
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details.
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection.
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Domain sentinels. Wrap these with errors.Wrap to add context while
// keeping the class checkable with errors.Is.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = New("not found")

	// ErrJobNotFound indicates the referenced generation job is unknown
	// to the registry (never created, or already discarded).
	ErrJobNotFound = New("job not found")

	// ErrJobCreation indicates a generation job could not be started.
	// No job enters polling when this is returned.
	ErrJobCreation = New("job creation failed")

	// ErrJobQuery indicates a status query failed in transit. The backend
	// job may still be running; only this client's observation of it is
	// broken, so the poll loop must stop and report.
	ErrJobQuery = New("job status query failed")

	// ErrPersist indicates an entry save failed. The editor keeps its
	// dirty flag set and does not retry on its own.
	ErrPersist = New("entry persist failed")

	// ErrDecode indicates an entry body could not be decoded. Callers
	// fall back to an empty body instead of failing the whole surface.
	ErrDecode = New("body decode failed")

	// ErrInvalidRequest indicates the request was malformed or invalid.
	ErrInvalidRequest = New("invalid request")
)

// IsNotFound checks whether err is or wraps ErrNotFound or ErrJobNotFound.
func IsNotFound(err error) bool {
	return err != nil && IsAny(err, ErrNotFound, ErrJobNotFound)
}

// NewNotFound creates a not-found error with a formatted message.
func NewNotFound(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
