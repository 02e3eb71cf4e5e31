package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/socialsync/pkg/broadcast"
)

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all subscribers", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[string](4)
		defer b.Close()

		ctx := context.Background()
		s1 := b.Subscribe(ctx)
		s2 := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "hi"}))
		assert.Equal(t, "hi", (<-s1.Receive(ctx)).Data)
		assert.Equal(t, "hi", (<-s2.Receive(ctx)).Data)
	})

	t.Run("drops for full buffers", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		s := b.Subscribe(ctx)
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))

		assert.Equal(t, 1, (<-s.Receive(ctx)).Data)
		select {
		case msg := <-s.Receive(ctx):
			t.Fatalf("unexpected message %v", msg)
		default:
		}
	})

	t.Run("context cancel unsubscribes", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		s := b.Subscribe(ctx)
		assert.Equal(t, 1, b.Len())
		cancel()

		assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
		_, ok := <-s.Receive(ctx)
		assert.False(t, ok)
	})

	t.Run("closed broadcaster", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		err := b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1})
		assert.ErrorIs(t, err, broadcast.ErrBroadcasterClosed)

		s := b.Subscribe(context.Background())
		_, ok := <-s.Receive(context.Background())
		assert.False(t, ok)
	})
}
