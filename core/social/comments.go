package social

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/socialsync/core/optimistic"
	"github.com/dmitrymomot/socialsync/core/state"
)

// AddComment appends a placeholder comment and bumps the post's counter,
// then swaps the placeholder for the server's comment.
func (s *Service) AddComment(ctx context.Context, postID, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyText
	}

	comments := s.feed.Comments(postID)
	placeholder := s.placeholder(ctx, postID, "", text)

	return optimistic.Run(ctx, s.coord, optimistic.Mutation[Comment]{
		Name:  "add_comment",
		Scope: s.scope,
		Apply: optimistic.Chain(
			optimistic.Insert(comments, -1, placeholder),
			optimistic.Optional(s.bumpCommentCount(postID, 1)),
		),
		Send: func(ctx context.Context) (Comment, error) {
			return s.api.AddComment(ctx, postID, text)
		},
		Commit:  s.confirm(comments, placeholder.ID, postID),
		Refetch: PostKey(postID),
		Failure: "Could not post your comment.",
	})
}

// ReplyComment inserts a placeholder reply right after its parent.
func (s *Service) ReplyComment(ctx context.Context, postID, parentID, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyText
	}
	if IsPlaceholder(parentID) {
		return Comment{}, ErrPending
	}

	comments := s.feed.Comments(postID)
	placeholder := s.placeholder(ctx, postID, parentID, text)
	index := comments.Index(parentID)
	if index >= 0 {
		index++
	}

	return optimistic.Run(ctx, s.coord, optimistic.Mutation[Comment]{
		Name:  "reply_comment",
		Scope: s.scope,
		Apply: optimistic.Chain(
			optimistic.Insert(comments, index, placeholder),
			optimistic.Optional(s.bumpReplyCount(comments, parentID, 1)),
		),
		Send: func(ctx context.Context) (Comment, error) {
			return s.api.ReplyComment(ctx, parentID, text)
		},
		Commit:  s.confirm(comments, placeholder.ID, postID),
		Refetch: PostKey(postID),
		Failure: "Could not post your reply.",
	})
}

// UpdateComment edits a comment's text.
func (s *Service) UpdateComment(ctx context.Context, postID, commentID, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyText
	}
	if IsPlaceholder(commentID) {
		return Comment{}, ErrPending
	}

	comments := s.feed.Comments(postID)
	return optimistic.Run(ctx, s.coord, optimistic.Mutation[Comment]{
		Name:  "update_comment",
		Key:   field(CommentKey(commentID), "text"),
		Scope: s.scope,
		Apply: optimistic.Patch(comments, commentID,
			func(c *Comment) { c.Text = text },
			func(cur *Comment, before Comment) { cur.Text = before.Text },
		),
		Send: func(ctx context.Context) (Comment, error) {
			return s.api.UpdateComment(ctx, commentID, text)
		},
		Commit:  s.confirm(comments, commentID, postID),
		Refetch: PostKey(postID),
		Failure: "Could not edit the comment.",
	})
}

// DeleteComment removes a comment and decrements the counter it belongs to
// (the post's for a comment, the parent's for a reply). A comment that is
// not in the list fails with optimistic.ErrNotFound and changes nothing.
func (s *Service) DeleteComment(ctx context.Context, postID, commentID string) error {
	if IsPlaceholder(commentID) {
		return ErrPending
	}

	comments := s.feed.Comments(postID)
	counter := s.bumpCommentCount(postID, -1)
	if c, ok := comments.Get(commentID); ok && c.ParentID != "" {
		counter = s.bumpReplyCount(comments, c.ParentID, -1)
	}

	_, err := optimistic.Run(ctx, s.coord, optimistic.Mutation[struct{}]{
		Name:  "delete_comment",
		Key:   CommentKey(commentID),
		Scope: s.scope,
		Apply: optimistic.Chain(
			optimistic.Remove(comments, commentID),
			optimistic.Optional(counter),
		),
		Send: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.api.DeleteComment(ctx, commentID)
		},
		Refetch: PostKey(postID),
		Failure: "Could not delete the comment.",
	})
	return err
}

// LikeComment marks a comment as liked by the viewer.
func (s *Service) LikeComment(ctx context.Context, postID, commentID string) (LikeResult, error) {
	return s.setCommentLike(ctx, postID, commentID, true)
}

// UnlikeComment removes the viewer's like from a comment.
func (s *Service) UnlikeComment(ctx context.Context, postID, commentID string) (LikeResult, error) {
	return s.setCommentLike(ctx, postID, commentID, false)
}

func (s *Service) setCommentLike(ctx context.Context, postID, commentID string, liked bool) (LikeResult, error) {
	if IsPlaceholder(commentID) {
		return LikeResult{}, ErrPending
	}

	comments := s.feed.Comments(postID)
	name, send := "unlike_comment", s.api.UnlikeComment
	if liked {
		name, send = "like_comment", s.api.LikeComment
	}

	return optimistic.Run(ctx, s.coord, optimistic.Mutation[LikeResult]{
		Name:  name,
		Key:   field(CommentKey(commentID), "like"),
		Scope: s.scope,
		Apply: optimistic.Patch(comments, commentID,
			func(c *Comment) {
				if c.IsLiked == liked {
					return
				}
				c.IsLiked = liked
				if liked {
					c.LikeCount++
				} else if c.LikeCount > 0 {
					c.LikeCount--
				}
			},
			func(cur *Comment, before Comment) {
				cur.IsLiked, cur.LikeCount = before.IsLiked, before.LikeCount
			},
		),
		Send: func(ctx context.Context) (LikeResult, error) {
			return send(ctx, commentID)
		},
		Commit: func(r LikeResult) {
			comments.Update(commentID, func(c *Comment) {
				c.IsLiked, c.LikeCount = r.IsLiked, r.LikeCount
			})
		},
		Refetch: PostKey(postID),
		Failure: "Could not update the like. Please try again.",
	})
}

func (s *Service) placeholder(ctx context.Context, postID, parentID, text string) Comment {
	return Comment{
		ID:        PlaceholderPrefix + uuid.NewString(),
		PostID:    postID,
		ParentID:  parentID,
		Author:    s.viewer(ctx),
		Text:      text,
		CreatedAt: s.now(),
		Pending:   true,
	}
}

// confirm writes the server's comment in place of id.
func (s *Service) confirm(comments *state.Collection[Comment], id, postID string) func(Comment) {
	return func(c Comment) {
		if c.PostID == "" {
			c.PostID = postID
		}
		c.Pending = false
		comments.Replace(id, c)
	}
}

func (s *Service) bumpCommentCount(postID string, delta int) optimistic.ApplyFunc {
	return optimistic.Patch(s.feed.Posts, postID,
		func(p *Post) { p.CommentCount = max(p.CommentCount+delta, 0) },
		func(cur *Post, before Post) { cur.CommentCount = before.CommentCount },
	)
}

func (s *Service) bumpReplyCount(comments *state.Collection[Comment], parentID string, delta int) optimistic.ApplyFunc {
	return optimistic.Patch(comments, parentID,
		func(c *Comment) { c.ReplyCount = max(c.ReplyCount+delta, 0) },
		func(cur *Comment, before Comment) { cur.ReplyCount = before.ReplyCount },
	)
}
