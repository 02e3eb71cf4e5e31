package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/socialsync/core/social"
)

var _ social.API = (*Client)(nil)

func esc(id string) string { return url.PathEscape(id) }

type textBody struct {
	Text string `json:"text"`
}

type captionBody struct {
	Caption string `json:"caption,omitempty"`
}

// Feed returns the viewer's feed.
func (c *Client) Feed(ctx context.Context) ([]social.Post, error) {
	var posts []social.Post
	err := c.do(ctx, http.MethodGet, "/api/posts", nil, &posts)
	return posts, err
}

// Post returns one post.
func (c *Client) Post(ctx context.Context, id string) (social.Post, error) {
	var p social.Post
	err := c.do(ctx, http.MethodGet, "/api/posts/"+esc(id), nil, &p)
	return p, err
}

// Comments returns the comments of a post.
func (c *Client) Comments(ctx context.Context, postID string) ([]social.Comment, error) {
	var comments []social.Comment
	err := c.do(ctx, http.MethodGet, "/api/posts/"+esc(postID)+"/comments", nil, &comments)
	return comments, err
}

// LikePost toggles the viewer's like on a post.
func (c *Client) LikePost(ctx context.Context, postID string) (social.LikeResult, error) {
	var r social.LikeResult
	err := c.do(ctx, http.MethodPut, "/api/posts/"+esc(postID)+"/like", nil, &r)
	return r, err
}

// AddComment comments on a post.
func (c *Client) AddComment(ctx context.Context, postID, text string) (social.Comment, error) {
	var cm social.Comment
	err := c.do(ctx, http.MethodPost, "/api/posts/"+esc(postID)+"/comment", textBody{text}, &cm)
	return cm, err
}

// UpdateComment edits a comment.
func (c *Client) UpdateComment(ctx context.Context, commentID, text string) (social.Comment, error) {
	var cm social.Comment
	err := c.do(ctx, http.MethodPut, "/api/posts/comments/"+esc(commentID), textBody{text}, &cm)
	return cm, err
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/comments/"+esc(commentID), nil, nil)
}

// ReplyComment replies to a comment.
func (c *Client) ReplyComment(ctx context.Context, commentID, text string) (social.Comment, error) {
	var cm social.Comment
	err := c.do(ctx, http.MethodPost, "/api/posts/comments/"+esc(commentID)+"/reply", textBody{text}, &cm)
	return cm, err
}

// LikeComment likes a comment.
func (c *Client) LikeComment(ctx context.Context, commentID string) (social.LikeResult, error) {
	var r social.LikeResult
	err := c.do(ctx, http.MethodPut, "/api/posts/comments/"+esc(commentID)+"/like", nil, &r)
	return r, err
}

// UnlikeComment removes the viewer's like from a comment.
func (c *Client) UnlikeComment(ctx context.Context, commentID string) (social.LikeResult, error) {
	var r social.LikeResult
	err := c.do(ctx, http.MethodPut, "/api/posts/comments/"+esc(commentID)+"/unlike", nil, &r)
	return r, err
}

// SharePost shares a post.
func (c *Client) SharePost(ctx context.Context, postID, caption string) (social.ShareResult, error) {
	var r social.ShareResult
	err := c.do(ctx, http.MethodPost, "/api/posts/"+esc(postID)+"/share", captionBody{caption}, &r)
	return r, err
}

// UpdateShare edits the viewer's share of a post.
func (c *Client) UpdateShare(ctx context.Context, postID, caption string) (social.ShareResult, error) {
	var r social.ShareResult
	err := c.do(ctx, http.MethodPut, "/api/posts/"+esc(postID)+"/share", captionBody{caption}, &r)
	return r, err
}

// Relationship returns the viewer's relation to userID.
func (c *Client) Relationship(ctx context.Context, userID string) (social.Relationship, error) {
	var r social.Relationship
	err := c.do(ctx, http.MethodGet, "/api/friends/status/"+esc(userID), nil, &r)
	return r, err
}

// Follow follows userID.
func (c *Client) Follow(ctx context.Context, userID string) (social.Relationship, error) {
	var r social.Relationship
	err := c.do(ctx, http.MethodPut, "/api/friends/follow/"+esc(userID), nil, &r)
	return r, err
}

// Unfollow unfollows userID.
func (c *Client) Unfollow(ctx context.Context, userID string) (social.Relationship, error) {
	var r social.Relationship
	err := c.do(ctx, http.MethodDelete, "/api/friends/follow/"+esc(userID), nil, &r)
	return r, err
}

// FriendRequests lists incoming friend requests.
func (c *Client) FriendRequests(ctx context.Context) ([]social.FriendRequest, error) {
	var reqs []social.FriendRequest
	err := c.do(ctx, http.MethodGet, "/api/friends/requests", nil, &reqs)
	return reqs, err
}

// AcceptFriendRequest accepts a friend request.
func (c *Client) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return c.do(ctx, http.MethodPut, "/api/friends/requests/"+esc(requestID)+"/accept", nil, nil)
}

// DeclineFriendRequest declines a friend request.
func (c *Client) DeclineFriendRequest(ctx context.Context, requestID string) error {
	return c.do(ctx, http.MethodDelete, "/api/friends/requests/"+esc(requestID), nil, nil)
}

// Stories lists active stories.
func (c *Client) Stories(ctx context.Context) ([]social.Story, error) {
	var stories []social.Story
	err := c.do(ctx, http.MethodGet, "/api/stories", nil, &stories)
	return stories, err
}

// ViewStory records that the viewer saw a story.
func (c *Client) ViewStory(ctx context.Context, storyID string) (social.Story, error) {
	var st social.Story
	err := c.do(ctx, http.MethodPut, "/api/stories/"+esc(storyID)+"/view", nil, &st)
	return st, err
}
