package editor

import (
	"context"
	"sync"
	"time"
)

// DefaultAutosaveDebounce matches config's editor.autosave_debounce_ms
// default.
const DefaultAutosaveDebounce = 3 * time.Second

// SaveFunc persists the current editor buffer.
type SaveFunc func(ctx context.Context) error

// Autosave debounces buffer persistence: each MarkDirty restarts the
// delay window, and the save runs once the window elapses undisturbed.
// A failed save keeps the dirty flag set; nothing retries on its own
// until the next MarkDirty or FlushNow.
type Autosave struct {
	delay   time.Duration
	save    SaveFunc
	onError func(error)

	mu    sync.Mutex
	timer *time.Timer
	dirty bool
	gen   uint64
}

// NewAutosave builds a scheduler. A non-positive delay falls back to
// DefaultAutosaveDebounce. onError receives failures from timer-driven
// saves and may be nil.
func NewAutosave(delay time.Duration, save SaveFunc, onError func(error)) *Autosave {
	if delay <= 0 {
		delay = DefaultAutosaveDebounce
	}
	return &Autosave{delay: delay, save: save, onError: onError}
}

// MarkDirty notes an edit and (re)arms the flush timer.
func (a *Autosave) MarkDirty() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.dirty = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.timerFired(gen) })
}

// Cancel disarms any pending flush without saving. The dirty flag is
// left as-is; the buffer owner decides what happens to unsaved edits.
func (a *Autosave) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarm()
}

// Reset disarms any pending flush and clears the dirty flag. Used when
// the buffer is replaced wholesale and prior edits no longer apply.
func (a *Autosave) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarm()
	a.dirty = false
	a.gen++
}

// FlushNow saves immediately if there are unsaved edits, disarming any
// pending timer first. The dirty flag clears only when the save
// succeeds and no new edit arrived while it ran.
func (a *Autosave) FlushNow(ctx context.Context) error {
	a.mu.Lock()
	a.disarm()
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	gen := a.gen
	a.mu.Unlock()

	if err := a.save(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	if a.gen == gen {
		a.dirty = false
	}
	a.mu.Unlock()
	return nil
}

// Dirty reports whether unsaved edits exist.
func (a *Autosave) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

func (a *Autosave) disarm() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosave) timerFired(gen uint64) {
	a.mu.Lock()
	// An edit that raced this fire re-armed a fresh timer; that timer
	// owns the save now.
	if a.gen != gen || !a.dirty {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	if err := a.FlushNow(context.Background()); err != nil {
		if a.onError != nil {
			a.onError(err)
		}
	}
}
