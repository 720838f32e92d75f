package editor

import (
	"context"
	"sync"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
)

// ListCache holds the entry list the UI renders. Deletions apply to the
// cache first so the list responds instantly, then run against the
// store; a failed delete rolls the cache back to the exact list captured
// before the mutation.
type ListCache struct {
	mu    sync.Mutex
	items []journal.Summary
}

func NewListCache() *ListCache {
	return &ListCache{}
}

// Replace swaps in a fresh listing from the store.
func (c *ListCache) Replace(items []journal.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]journal.Summary(nil), items...)
}

// Items returns a copy of the cached list.
func (c *ListCache) Items() []journal.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]journal.Summary(nil), c.items...)
}

// Len returns the cached list length.
func (c *ListCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RemoveOptimistically drops entry id from the cache, then calls remove
// to delete it for real. On failure the snapshot taken before the
// mutation is restored and the error is returned with the rollback
// noted.
func (c *ListCache) RemoveOptimistically(ctx context.Context, id string, remove func(ctx context.Context, id string) error) error {
	c.mu.Lock()
	snapshot := append([]journal.Summary(nil), c.items...)
	filtered := c.items[:0:0]
	for _, item := range c.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	c.items = filtered
	c.mu.Unlock()

	if err := remove(ctx, id); err != nil {
		c.mu.Lock()
		c.items = snapshot
		c.mu.Unlock()
		return errors.Wrapf(err, "delete entry %s rolled back", id)
	}
	return nil
}
