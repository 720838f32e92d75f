package logger

import (
	"context"
	"testing"
)

func TestFromContextWithIDs(t *testing.T) {
	ctx := WithJobID(context.Background(), "job-1")
	ctx = WithEntryID(ctx, "entry-9")

	log := FromContext(ctx)
	if log == nil {
		t.Fatal("FromContext returned nil logger")
	}
	// Desugar to confirm we got a distinct child, not the bare global.
	if log == Logger {
		t.Fatal("expected child logger with fields attached")
	}
}

func TestFromContextEmpty(t *testing.T) {
	log := FromContext(context.Background())
	if log != Logger {
		t.Fatal("expected the global logger when context carries no IDs")
	}
}
