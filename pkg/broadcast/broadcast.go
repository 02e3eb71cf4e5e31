package broadcast

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrBroadcasterClosed is returned by Broadcast after Close.
	ErrBroadcasterClosed = errors.New("broadcaster closed")
	// ErrSubscriberClosed is reserved for implementations that report
	// operations on a closed subscriber.
	ErrSubscriberClosed = errors.New("subscriber closed")
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to every active subscriber.
type Broadcaster[T any] interface {
	Broadcast(ctx context.Context, msg Message[T]) error
	Subscribe(ctx context.Context) Subscriber[T]
	Close() error
}

// Subscriber receives broadcast messages until closed.
type Subscriber[T any] interface {
	Receive(ctx context.Context) <-chan Message[T]
	Close() error
}

// MemoryBroadcaster is an in-process Broadcaster. Delivery never blocks: a
// subscriber whose buffer is full misses the message.
type MemoryBroadcaster[T any] struct {
	mu         sync.RWMutex
	subs       map[*memorySubscriber[T]]struct{}
	bufferSize int
	closed     bool
}

// NewMemoryBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryBroadcaster[T]{
		subs:       make(map[*memorySubscriber[T]]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a subscriber that is removed when ctx is done or
// Close is called.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s := &memorySubscriber[T]{
		ch:     make(chan Message[T], b.bufferSize),
		parent: b,
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.closeOnce.Do(func() {
			close(s.ch)
			close(s.done)
		})
		return s
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s
}

// Broadcast delivers msg to every subscriber with buffer room.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}
	for s := range b.subs {
		select {
		case s.ch <- msg:
		default:
		}
	}
	return ctx.Err()
}

// Close removes and closes every subscriber. Further broadcasts fail.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*memorySubscriber[T]]struct{})
	for s := range subs {
		s.closeOnce.Do(func() {
			close(s.ch)
			close(s.done)
		})
	}
	b.mu.Unlock()
	return nil
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

type memorySubscriber[T any] struct {
	ch        chan Message[T]
	parent    *MemoryBroadcaster[T]
	done      chan struct{}
	closeOnce sync.Once
}

func (s *memorySubscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	delete(s.parent.subs, s)
	s.closeOnce.Do(func() {
		close(s.ch)
		close(s.done)
	})
	return nil
}
