// Package broadcast provides a generic in-process pub/sub primitive with
// non-blocking delivery.
//
//	b := broadcast.NewMemoryBroadcaster[Change](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			render(msg.Data)
//		}
//	}()
//
//	_ = b.Broadcast(ctx, broadcast.Message[Change]{Data: change})
//
// A subscriber whose buffer is full misses the message rather than blocking
// the publisher. Subscriptions end when their context is done, when the
// subscriber is closed, or when the broadcaster is closed; in every case the
// receive channel is closed.
package broadcast
