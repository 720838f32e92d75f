package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
)

// memStore is an in-memory WorkspaceStore.
type memStore struct {
	mu        sync.Mutex
	entries   map[string]*journal.Entry
	order     []string // insertion order, oldest first
	upsertErr error
	deleteErr error
	decodeIDs map[string]bool // IDs whose bodies fail to decode
	upserts   int
}

func newMemStore(entries ...*journal.Entry) *memStore {
	s := &memStore{
		entries:   make(map[string]*journal.Entry),
		decodeIDs: make(map[string]bool),
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (*journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decodeIDs[id] {
		return nil, errors.Wrapf(errors.ErrDecode, "entry %s", id)
	}
	entry, ok := s.entries[id]
	if !ok {
		return nil, errors.NewNotFound("entry %s not found", id)
	}
	copied := *entry
	return &copied, nil
}

func (s *memStore) Upsert(_ context.Context, draft journal.Draft) (*journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts++
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}

	id := draft.ID
	if id == "" {
		id = fmt.Sprintf("gen-%d", s.upserts)
	}
	entry := &journal.Entry{
		ID:        id,
		Body:      draft.Body,
		Mood:      draft.Mood,
		Tags:      draft.Tags,
		UpdatedAt: time.Now(),
	}
	if _, exists := s.entries[id]; !exists {
		s.order = append(s.order, id)
	}
	s.entries[id] = entry
	copied := *entry
	return &copied, nil
}

func (s *memStore) List(_ context.Context, limit, offset int) ([]journal.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []journal.Summary
	for i := len(s.order) - 1; i >= 0; i-- { // newest first
		e := s.entries[s.order[i]]
		out = append(out, journal.Summary{ID: e.ID, Preview: e.Body, Mood: e.Mood})
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.entries, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) body(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e.Body
	}
	return ""
}

func TestSessionSwitchFlushesOutgoingEdits(t *testing.T) {
	store := newMemStore(
		&journal.Entry{ID: "a", Body: "entry a"},
		&journal.Entry{ID: "b", Body: "entry b"},
	)
	s := NewSession(store, time.Hour, nil)
	ctx := context.Background()

	_, err := s.SwitchTo(ctx, "a")
	require.NoError(t, err)

	s.SetContent("entry a, edited")
	require.True(t, s.Dirty())

	loaded, err := s.SwitchTo(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "entry b", loaded.Body)

	// The edit was persisted before b loaded.
	assert.Equal(t, "entry a, edited", store.body("a"))
	assert.False(t, s.Dirty())

	id, content := s.Current()
	assert.Equal(t, "b", id)
	assert.Equal(t, "entry b", content)
}

func TestSessionSwitchProceedsWhenFlushFails(t *testing.T) {
	store := newMemStore(
		&journal.Entry{ID: "a", Body: "entry a"},
		&journal.Entry{ID: "b", Body: "entry b"},
	)
	s := NewSession(store, time.Hour, nil)
	ctx := context.Background()

	_, err := s.SwitchTo(ctx, "a")
	require.NoError(t, err)
	s.SetContent("unsaved edit")

	// The failed flush is reported, but the switch is not held hostage:
	// b loads and the failure rides along as the returned error.
	store.upsertErr = errors.Wrap(errors.ErrPersist, "disk full")
	loaded, err := s.SwitchTo(ctx, "b")
	assert.True(t, errors.Is(err, errors.ErrPersist))
	require.NotNil(t, loaded)
	assert.Equal(t, "b", loaded.ID)

	id, content := s.Current()
	assert.Equal(t, "b", id)
	assert.Equal(t, "entry b", content)
	assert.False(t, s.Dirty())
	assert.Equal(t, "entry a", store.body("a"), "the lost edit must not half-land")
}

func TestSessionSwitchToMissingEntryKeepsBuffer(t *testing.T) {
	store := newMemStore(&journal.Entry{ID: "a", Body: "entry a"})
	s := NewSession(store, time.Hour, nil)
	ctx := context.Background()

	_, err := s.SwitchTo(ctx, "a")
	require.NoError(t, err)
	s.SetContent("keep me")
	require.NoError(t, s.Flush(ctx))
	s.SetContent("keep me too")

	// A failed load leaves the current buffer and its edits in place.
	store.upsertErr = errors.Wrap(errors.ErrPersist, "disk full")
	_, err = s.SwitchTo(ctx, "ghost")
	assert.True(t, errors.IsNotFound(err))

	id, content := s.Current()
	assert.Equal(t, "a", id)
	assert.Equal(t, "keep me too", content)
	assert.True(t, s.Dirty())
}

func TestSessionStartNewAssignsIDOnFirstSave(t *testing.T) {
	store := newMemStore(&journal.Entry{ID: "a", Body: "entry a"})
	s := NewSession(store, time.Hour, nil)
	ctx := context.Background()

	_, err := s.SwitchTo(ctx, "a")
	require.NoError(t, err)
	s.SetContent("entry a, edited")

	// Starting a new entry flushes a's edit first.
	require.NoError(t, s.StartNew(ctx))
	assert.Equal(t, "entry a, edited", store.body("a"))

	id, content := s.Current()
	assert.Empty(t, id, "a new entry has no ID before its first save")
	assert.Empty(t, content)

	s.SetContent("first words")
	require.NoError(t, s.Flush(ctx))

	id, _ = s.Current()
	require.NotEmpty(t, id, "first save must adopt the store-assigned ID")
	assert.Equal(t, "first words", store.body(id))

	// A second save updates the same entry rather than creating another.
	s.SetContent("first words, more")
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, "first words, more", store.body(id))
}

func TestSessionSwitchFallsBackToEmptyBodyOnDecodeFailure(t *testing.T) {
	store := newMemStore(&journal.Entry{ID: "a", Body: "fine"})
	store.decodeIDs["corrupt"] = true
	s := NewSession(store, time.Hour, nil)

	loaded, err := s.SwitchTo(context.Background(), "corrupt")
	require.NoError(t, err, "decode failure must not block the switch")
	assert.Equal(t, "corrupt", loaded.ID)
	assert.Empty(t, loaded.Body)

	id, content := s.Current()
	assert.Equal(t, "corrupt", id)
	assert.Empty(t, content)
}

func TestSessionSwitchToUnknownEntryFails(t *testing.T) {
	s := NewSession(newMemStore(), time.Hour, nil)

	_, err := s.SwitchTo(context.Background(), "ghost")
	assert.True(t, errors.IsNotFound(err))
}

func TestSessionSetContentWithoutEntryIsIgnored(t *testing.T) {
	store := newMemStore()
	s := NewSession(store, time.Hour, nil)

	s.SetContent("typing into the void")
	assert.False(t, s.Dirty())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, store.upserts)
}

func TestSessionAutosavePersistsAfterDebounce(t *testing.T) {
	store := newMemStore(&journal.Entry{ID: "a", Body: "entry a"})
	s := NewSession(store, 20*time.Millisecond, nil)

	_, err := s.SwitchTo(context.Background(), "a")
	require.NoError(t, err)
	s.SetContent("autosaved body")

	require.Eventually(t, func() bool {
		return store.body("a") == "autosaved body"
	}, 5*time.Second, time.Millisecond)
	assert.False(t, s.Dirty())
}

func TestSessionFlushPreservesMoodAndTags(t *testing.T) {
	store := newMemStore(&journal.Entry{
		ID: "a", Body: "entry a", Mood: "calm", Tags: []string{"rain"},
	})
	s := NewSession(store, time.Hour, nil)
	ctx := context.Background()

	_, err := s.SwitchTo(ctx, "a")
	require.NoError(t, err)
	s.SetContent("new body")
	require.NoError(t, s.Flush(ctx))

	saved, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "calm", saved.Mood)
	assert.Equal(t, []string{"rain"}, saved.Tags)
}
