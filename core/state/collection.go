package state

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/socialsync/pkg/broadcast"
)

// Op names the kind of change a Collection published.
type Op string

const (
	OpReset   Op = "reset"
	OpInsert  Op = "insert"
	OpUpdate  Op = "update"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
	OpError   Op = "error"
)

// Change describes one write to a Collection.
type Change struct {
	Op Op
	ID string
}

// Collection is an ordered, reactive list of entities keyed by a string id.
// All writes go through its methods; readers receive copies.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	key     func(T) string
	err     error
	changes *broadcast.MemoryBroadcaster[Change]
}

// NewCollection creates an empty collection. key extracts an entity's id.
func NewCollection[T any](key func(T) string) *Collection[T] {
	return &Collection[T]{
		key:     key,
		changes: broadcast.NewMemoryBroadcaster[Change](subscriberBuffer),
	}
}

// Key returns the id of v.
func (c *Collection[T]) Key(v T) string {
	return c.key(v)
}

// Reset replaces the whole list and clears the stored error.
func (c *Collection[T]) Reset(items []T) {
	c.mu.Lock()
	c.items = slices.Clone(items)
	c.err = nil
	c.mu.Unlock()
	c.publish(Change{Op: OpReset})
}

// List returns a copy of the items in order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the entity with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Index returns the position of id, or -1.
func (c *Collection[T]) Index(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexLocked(id)
}

// Update mutates the entity with id in place and returns its value before and
// after the mutation. ok is false when id is absent; fn is not called then.
func (c *Collection[T]) Update(id string, fn func(*T)) (before, after T, ok bool) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return before, after, false
	}
	before = c.items[i]
	fn(&c.items[i])
	after = c.items[i]
	c.mu.Unlock()
	c.publish(Change{Op: OpUpdate, ID: id})
	return before, after, true
}

// Replace swaps the entity with id for next, keeping its position. next may
// carry a different id (a placeholder replaced by the server record).
func (c *Collection[T]) Replace(id string, next T) bool {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items[i] = next
	c.mu.Unlock()
	c.publish(Change{Op: OpReplace, ID: c.key(next)})
	return true
}

// Insert places v at index, clamped to the list bounds. A negative index appends.
func (c *Collection[T]) Insert(index int, v T) {
	c.mu.Lock()
	if index < 0 || index > len(c.items) {
		index = len(c.items)
	}
	c.items = slices.Insert(c.items, index, v)
	c.mu.Unlock()
	c.publish(Change{Op: OpInsert, ID: c.key(v)})
}

// Remove deletes the entity with id and returns it with its former position.
func (c *Collection[T]) Remove(id string) (T, int, bool) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		var zero T
		return zero, -1, false
	}
	removed := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	c.mu.Unlock()
	c.publish(Change{Op: OpRemove, ID: id})
	return removed, i, true
}

// SetError records a store-level error for the view layer to render.
func (c *Collection[T]) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.publish(Change{Op: OpError})
}

// Err returns the last recorded store-level error.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Subscribe streams changes made after the call until ctx is done.
func (c *Collection[T]) Subscribe(ctx context.Context) <-chan Change {
	sub := c.changes.Subscribe(ctx)
	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Receive(ctx) {
			select {
			case out <- msg.Data:
			default:
			}
		}
	}()
	return out
}

func (c *Collection[T]) indexLocked(id string) int {
	return slices.IndexFunc(c.items, func(v T) bool { return c.key(v) == id })
}

func (c *Collection[T]) publish(ch Change) {
	_ = c.changes.Broadcast(context.Background(), broadcast.Message[Change]{Data: ch})
}
