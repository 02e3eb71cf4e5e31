// Package social implements the viewer's actions on posts, comments, shares,
// stories and relationships as optimistic mutations over a Feed.
//
// Every action changes the Feed first, then calls the API, then writes the
// server's values or reverts:
//
//	svc := social.NewService(api, social.NewFeed(), store,
//		social.WithNotifier(toasts),
//		social.WithLogger(log),
//	)
//	defer svc.Close()
//
//	res, err := svc.ToggleLike(ctx, postID)
//
// Comment and like actions schedule a delayed re-read of the parent post so
// that counters converge when other users change them concurrently.
//
// Views that may go away before a request finishes use Scoped:
//
//	scope := optimistic.NewScope()
//	defer scope.Close()
//	_, err := svc.Scoped(scope).AddComment(ctx, postID, "nice")
package social
