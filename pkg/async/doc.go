// Package async runs work in goroutines and hands back futures.
//
//	f := async.Async(ctx, postID, api.Post)
//	post, err := f.AwaitWithTimeout(2 * time.Second)
//	if errors.Is(err, async.ErrTimeout) {
//		// still running; the result can be awaited later
//	}
//
// Exec and ExecFuture cover work that only reports an error, such as the
// background token validation started on page load:
//
//	validation := async.Exec(ctx, session, validate)
//	...
//	err := validation.AwaitContext(ctx)
//
// Futures never cancel their computation; pass a context to fn for that.
package async
