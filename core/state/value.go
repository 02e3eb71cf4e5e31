package state

import (
	"context"
	"sync"

	"github.com/dmitrymomot/socialsync/pkg/broadcast"
)

const subscriberBuffer = 16

// Value is a reactive single value. Readers get a copy; every write is
// published to subscribers in the order the writes were stored, so the
// last value a subscriber sees is the current one.
type Value[T any] struct {
	pub     sync.Mutex // held across store and publish
	mu      sync.RWMutex
	current T
	changes *broadcast.MemoryBroadcaster[T]
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		changes: broadcast.NewMemoryBroadcaster[T](subscriberBuffer),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the value and notifies subscribers.
func (v *Value[T]) Set(next T) {
	v.pub.Lock()
	defer v.pub.Unlock()
	v.mu.Lock()
	v.current = next
	v.mu.Unlock()
	v.publish(next)
}

// Update applies fn to the current value atomically and returns the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.pub.Lock()
	defer v.pub.Unlock()
	v.mu.Lock()
	next := fn(v.current)
	v.current = next
	v.mu.Unlock()
	v.publish(next)
	return next
}

// Subscribe streams every value written after the call until ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	sub := v.changes.Subscribe(ctx)
	out := make(chan T, subscriberBuffer)
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

func (v *Value[T]) publish(next T) {
	_ = v.changes.Broadcast(context.Background(), broadcast.Message[T]{Data: next})
}
