// Package store implements the optimistic collection pattern: an in-memory
// collection mutated immediately on user action, mirrored to a single named
// durable slot as a full JSON array, and queried synchronously.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Collection holds entities of one kind backed by one slot. After every
// successful mutating call the in-memory items and the durable snapshot
// agree; a failed or corrupt load degrades to an empty collection rather than
// surfacing an error.
type Collection[T any] struct {
	slot Slot

	mu    sync.RWMutex
	items []T
}

// NewCollection constructs the collection and loads the slot. Corrupt slot
// content is logged and discarded.
func NewCollection[T any](slot Slot) *Collection[T] {
	c := &Collection[T]{slot: slot}
	c.load()
	return c
}

func (c *Collection[T]) load() {
	data, ok, err := c.slot.Read()
	if err != nil {
		slog.Default().Warn("optimistic store load failed, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Default().Warn("optimistic store slot is corrupt, resetting to empty", "error", err)
		return
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// Append adds an entity and persists the full collection.
func (c *Collection[T]) Append(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	return c.persistLocked()
}

// Replace maps every entity through fn and persists the full collection,
// whether or not fn changed anything.
func (c *Collection[T]) Replace(fn func(T) T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		c.items[i] = fn(item)
	}
	return c.persistLocked()
}

// Items returns a copy of the collection.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Filter returns the entities matching pred.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Find returns the first entity matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the collection size.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) persistLocked() error {
	items := c.items
	if items == nil {
		items = []T{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	return c.slot.Write(encoded)
}

// NewEntityID generates a locally unique entity id from the creation
// timestamp and a random suffix.
func NewEntityID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
