// Package optimistic applies user actions to local state before the server
// confirms them, then reconciles with the server's answer.
//
// Every mutation follows the same four steps:
//
//  1. Check that a session is present, else fail with ErrUnauthenticated
//     without touching local state.
//  2. Apply the local change synchronously (flip a flag, bump a counter,
//     splice in a placeholder with a temp- id).
//  3. Send the request.
//  4. On success, write the server's values over the optimistic guess. On
//     failure, revert the fields touched in step 2 and notify the user.
//
// A mutation may also name a parent entity to re-read after a short delay
// (500ms by default), so counts drift-corrected by other users converge.
// Re-fetches for the same key inside the delay window are coalesced.
//
//	_, err := optimistic.Run(ctx, coord, optimistic.Mutation[LikeResult]{
//		Name:  "like_post",
//		Key:   "post:" + id,
//		Apply: optimistic.Patch(posts, id, toggleLike, restoreLike),
//		Send:  func(ctx context.Context) (LikeResult, error) { return api.LikePost(ctx, id) },
//		Commit: func(r LikeResult) {
//			posts.Update(id, func(p *Post) { p.IsLiked, p.LikeCount = r.IsLiked, r.LikeCount })
//		},
//		Refetch: "post:" + id,
//	})
//
// # Ordering
//
// Mutations on one key are not serialized, but they are sequenced: only the
// most recently issued mutation may commit or revert. A response for an
// older one is dropped (its caller gets ErrSuperseded) and a re-fetch is
// scheduled instead, which removes the last-write-wins race on shared
// counters without giving up optimistic latency.
//
// # Scopes
//
// A Scope is the "view still mounted" flag. Once closed, completions skip
// their state writes; the request is never cancelled.
package optimistic
