package social

import (
	"context"

	"github.com/dmitrymomot/socialsync/core/optimistic"
)

// ToggleLike flips the viewer's like on a post.
func (s *Service) ToggleLike(ctx context.Context, postID string) (LikeResult, error) {
	posts := s.feed.Posts
	return optimistic.Run(ctx, s.coord, optimistic.Mutation[LikeResult]{
		Name:  "like_post",
		Key:   field(PostKey(postID), "like"),
		Scope: s.scope,
		Apply: optimistic.Patch(posts, postID,
			func(p *Post) {
				p.IsLiked = !p.IsLiked
				if p.IsLiked {
					p.LikeCount++
				} else if p.LikeCount > 0 {
					p.LikeCount--
				}
			},
			func(cur *Post, before Post) {
				cur.IsLiked, cur.LikeCount = before.IsLiked, before.LikeCount
			},
		),
		Send: func(ctx context.Context) (LikeResult, error) {
			return s.api.LikePost(ctx, postID)
		},
		Commit: func(r LikeResult) {
			posts.Update(postID, func(p *Post) {
				p.IsLiked, p.LikeCount = r.IsLiked, r.LikeCount
			})
		},
		Refetch: PostKey(postID),
		Failure: "Could not update the like. Please try again.",
	})
}

// SharePost shares a post with an optional caption.
func (s *Service) SharePost(ctx context.Context, postID, caption string) (ShareResult, error) {
	return optimistic.Run(ctx, s.coord, optimistic.Mutation[ShareResult]{
		Name:  "share_post",
		Key:   field(PostKey(postID), "share"),
		Scope: s.scope,
		Apply: optimistic.Patch(s.feed.Posts, postID,
			func(p *Post) {
				if !p.IsShared {
					p.ShareCount++
				}
				p.IsShared = true
			},
			func(cur *Post, before Post) {
				cur.IsShared, cur.ShareCount = before.IsShared, before.ShareCount
			},
		),
		Send: func(ctx context.Context) (ShareResult, error) {
			return s.api.SharePost(ctx, postID, caption)
		},
		Commit:  s.commitShare(postID),
		Refetch: PostKey(postID),
		Failure: "Could not share the post.",
	})
}

// UpdateShare edits the caption of the viewer's share. Nothing is shown
// locally until the server answers.
func (s *Service) UpdateShare(ctx context.Context, postID, caption string) (ShareResult, error) {
	return optimistic.Run(ctx, s.coord, optimistic.Mutation[ShareResult]{
		Name:  "update_share",
		Key:   field(PostKey(postID), "share"),
		Scope: s.scope,
		Send: func(ctx context.Context) (ShareResult, error) {
			return s.api.UpdateShare(ctx, postID, caption)
		},
		Commit:  s.commitShare(postID),
		Failure: "Could not update the share.",
	})
}

func (s *Service) commitShare(postID string) func(ShareResult) {
	return func(r ShareResult) {
		s.feed.Posts.Update(postID, func(p *Post) {
			p.IsShared = true
			p.ShareCount = r.ShareCount
		})
	}
}
