package editor

import (
	"context"
	"sync"
	"time"

	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
)

// WorkspaceStore is the persistence surface the workspace needs.
// Implemented by journal.Store.
type WorkspaceStore interface {
	ContentStore
	List(ctx context.Context, limit, offset int) ([]journal.Summary, error)
	Delete(ctx context.Context, id string) error
}

// Workspace ties the editing session to the entry list the UI renders.
// Saves refresh the cached list so previews stay current, and deletions
// go through the cache optimistically so the list responds before the
// store confirms.
type Workspace struct {
	store   WorkspaceStore
	session *Session
	cache   *ListCache

	mu         sync.Mutex
	listLimit  int
	listOffset int
}

// NewWorkspace builds a workspace around store. debounce and onSaveError
// are handed to the session's autosave scheduler.
func NewWorkspace(store WorkspaceStore, debounce time.Duration, onSaveError func(error)) *Workspace {
	w := &Workspace{
		store:   store,
		session: NewSession(store, debounce, onSaveError),
		cache:   NewListCache(),
	}
	w.session.OnSaved(w.refreshAfterSave)
	return w
}

// Session returns the editing session.
func (w *Workspace) Session() *Session {
	return w.session
}

// Entries returns the cached entry list.
func (w *Workspace) Entries() []journal.Summary {
	return w.cache.Items()
}

// RefreshList reloads the entry list from the store into the cache and
// remembers the window for save-driven refreshes.
func (w *Workspace) RefreshList(ctx context.Context, limit, offset int) error {
	summaries, err := w.store.List(ctx, limit, offset)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.listLimit, w.listOffset = limit, offset
	w.mu.Unlock()
	w.cache.Replace(summaries)
	return nil
}

// DeleteEntry removes an entry from the cached list immediately, then
// from the store. A failed store delete rolls the cache back to the
// list as it was before the removal.
func (w *Workspace) DeleteEntry(ctx context.Context, id string) error {
	return w.cache.RemoveOptimistically(ctx, id, w.store.Delete)
}

// Close disarms the session's autosave timer.
func (w *Workspace) Close() {
	w.session.Close()
}

// refreshAfterSave reloads the list after a successful persist so the
// entry's preview and ordering reflect the saved body. Runs on the save
// path; a failed refresh only leaves the cache stale.
func (w *Workspace) refreshAfterSave() {
	w.mu.Lock()
	limit, offset := w.listLimit, w.listOffset
	w.mu.Unlock()

	summaries, err := w.store.List(context.Background(), limit, offset)
	if err != nil {
		logger.Warnw("entry list refresh after save failed", logger.FieldError, err)
		return
	}
	w.cache.Replace(summaries)
}
