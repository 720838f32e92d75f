package editor

import (
	"context"
	"sync"
	"time"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
)

// ContentStore is the persistence the session writes through.
// Implemented by journal.Store.
type ContentStore interface {
	Get(ctx context.Context, id string) (*journal.Entry, error)
	Upsert(ctx context.Context, draft journal.Draft) (*journal.Entry, error)
}

// Session owns the editor buffer for one entry at a time. Edits mark the
// buffer dirty and are autosaved after a quiet period; switching entries
// flushes the outgoing buffer before the incoming one loads, so edits
// can never land on the wrong entry.
type Session struct {
	store    ContentStore
	autosave *Autosave

	mu      sync.Mutex
	current *journal.Entry
	content string
	onSaved func()
}

// NewSession builds a session with its own autosave scheduler. onSaveError
// receives failures from timer-driven saves and may be nil.
func NewSession(store ContentStore, debounce time.Duration, onSaveError func(error)) *Session {
	s := &Session{store: store}
	s.autosave = NewAutosave(debounce, s.persist, onSaveError)
	return s
}

// OnSaved registers a callback invoked after every successful persist,
// so list views can refresh. The callback must not call back into the
// session.
func (s *Session) OnSaved(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSaved = fn
}

// SwitchTo flushes any unsaved edits on the current entry, then loads
// entry id into the buffer. A failed flush does not hold the switch
// hostage: the load proceeds and the flush error is returned alongside
// the loaded entry so the caller can surface it. A body that fails to
// decode loads as an empty buffer rather than blocking the switch.
func (s *Session) SwitchTo(ctx context.Context, id string) (*journal.Entry, error) {
	flushErr := s.flushOutgoing(ctx)

	entry, err := s.store.Get(ctx, id)
	if errors.Is(err, errors.ErrDecode) {
		logger.Warnw("entry body failed to decode, loading empty buffer",
			logger.FieldEntryID, id,
			logger.FieldError, err)
		entry = &journal.Entry{ID: id}
	} else if err != nil {
		// The buffer is untouched; unsaved edits stay dirty.
		return nil, err
	}

	s.load(entry)

	copied := *entry
	if flushErr != nil {
		return &copied, errors.Wrapf(flushErr, "flush before switching to entry %s", id)
	}
	return &copied, nil
}

// StartNew flushes any unsaved edits, then opens an empty buffer for a
// brand new entry. The store assigns the entry's ID on first save. As
// with SwitchTo, a failed flush is returned but does not block the
// switch.
func (s *Session) StartNew(ctx context.Context) error {
	flushErr := s.flushOutgoing(ctx)
	s.load(&journal.Entry{})
	if flushErr != nil {
		return errors.Wrap(flushErr, "flush before starting a new entry")
	}
	return nil
}

// flushOutgoing attempts to persist pending edits before the buffer is
// replaced. Failures are logged and returned; the caller decides how to
// surface them.
func (s *Session) flushOutgoing(ctx context.Context) error {
	err := s.autosave.FlushNow(ctx)
	if err != nil {
		logger.Warnw("flush before switch failed, proceeding with switch",
			logger.FieldError, err)
	}
	return err
}

// load replaces the buffer and resets the autosave state; any prior
// edits were either flushed or given up on by now.
func (s *Session) load(entry *journal.Entry) {
	s.mu.Lock()
	s.current = entry
	s.content = entry.Body
	s.mu.Unlock()

	s.autosave.Reset()
}

// SetContent replaces the buffer text and marks it dirty. Ignored when
// no entry is loaded.
func (s *Session) SetContent(text string) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.content = text
	s.mu.Unlock()

	s.autosave.MarkDirty()
}

// Flush saves unsaved edits immediately.
func (s *Session) Flush(ctx context.Context) error {
	return s.autosave.FlushNow(ctx)
}

// Dirty reports whether the buffer has unsaved edits.
func (s *Session) Dirty() bool {
	return s.autosave.Dirty()
}

// Current returns the loaded entry's ID and the buffer text. The ID is
// empty when nothing is loaded or the entry has not been saved yet.
func (s *Session) Current() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", ""
	}
	return s.current.ID, s.content
}

// Close disarms the autosave timer without saving.
func (s *Session) Close() {
	s.autosave.Cancel()
}

// persist is the session's SaveFunc.
func (s *Session) persist(ctx context.Context) error {
	s.mu.Lock()
	cur := s.current
	if cur == nil {
		s.mu.Unlock()
		return nil
	}
	draft := journal.Draft{
		ID:   cur.ID,
		Body: s.content,
		Mood: cur.Mood,
		Tags: cur.Tags,
	}
	s.mu.Unlock()

	saved, err := s.store.Upsert(ctx, draft)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.current == cur {
		// A new entry adopts its store-assigned ID on first save.
		s.current.ID = saved.ID
		s.current.UpdatedAt = saved.UpdatedAt
	}
	onSaved := s.onSaved
	s.mu.Unlock()

	if onSaved != nil {
		onSaved()
	}
	return nil
}
