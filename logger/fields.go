package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across toonana.
// Use these constants instead of raw strings.
const (
	FieldJobID     = "job_id"
	FieldEntryID   = "entry_id"
	FieldStage     = "stage"
	FieldStyle     = "style"
	FieldComponent = "component"
	FieldError     = "error"
	FieldPath      = "path"
	FieldCount     = "count"
	FieldDuration  = "duration_ms"
)

type contextKey string

const (
	jobIDKey   contextKey = "logger_job_id"
	entryIDKey contextKey = "logger_entry_id"
)

// WithJobID adds a job ID to the context for logging.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// WithEntryID adds an entry ID to the context for logging.
func WithEntryID(ctx context.Context, entryID string) context.Context {
	return context.WithValue(ctx, entryIDKey, entryID)
}

// FromContext returns a logger carrying any job/entry IDs stored in ctx.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	log := Logger
	if jobID, ok := ctx.Value(jobIDKey).(string); ok && jobID != "" {
		log = log.With(FieldJobID, jobID)
	}
	if entryID, ok := ctx.Value(entryIDKey).(string); ok && entryID != "" {
		log = log.With(FieldEntryID, entryID)
	}
	return log
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.With(FieldComponent, name)
}
