package async

import "context"

// ExecFuture is a Future for computations that only report an error.
type ExecFuture struct {
	f *Future[struct{}]
}

// Exec runs fn(ctx, param) in a goroutine.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	return &ExecFuture{f: Async(ctx, param, func(ctx context.Context, p T) (struct{}, error) {
		return struct{}{}, fn(ctx, p)
	})}
}

// Completed returns an ExecFuture that has already finished with err.
func Completed(err error) *ExecFuture {
	f := &Future[struct{}]{err: err, done: make(chan struct{})}
	close(f.done)
	return &ExecFuture{f: f}
}

// Await blocks until the computation finishes.
func (e *ExecFuture) Await() error {
	_, err := e.f.Await()
	return err
}

// AwaitContext waits until the computation finishes or ctx is done.
func (e *ExecFuture) AwaitContext(ctx context.Context) error {
	_, err := e.f.AwaitContext(ctx)
	return err
}

// IsComplete reports whether the computation finished.
func (e *ExecFuture) IsComplete() bool {
	return e.f.IsComplete()
}

// ExecAll waits for every future and returns the first error in argument order.
func ExecAll(futures ...*ExecFuture) error {
	var first error
	for _, e := range futures {
		if err := e.Await(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
