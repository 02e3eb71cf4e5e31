package social

import "context"

// API is the backend surface the service talks to. integration/backend
// implements it over REST.
type API interface {
	Feed(ctx context.Context) ([]Post, error)
	Post(ctx context.Context, id string) (Post, error)
	Comments(ctx context.Context, postID string) ([]Comment, error)
	LikePost(ctx context.Context, postID string) (LikeResult, error)
	AddComment(ctx context.Context, postID, text string) (Comment, error)
	UpdateComment(ctx context.Context, commentID, text string) (Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	ReplyComment(ctx context.Context, commentID, text string) (Comment, error)
	LikeComment(ctx context.Context, commentID string) (LikeResult, error)
	UnlikeComment(ctx context.Context, commentID string) (LikeResult, error)
	SharePost(ctx context.Context, postID, caption string) (ShareResult, error)
	UpdateShare(ctx context.Context, postID, caption string) (ShareResult, error)
	Relationship(ctx context.Context, userID string) (Relationship, error)
	Follow(ctx context.Context, userID string) (Relationship, error)
	Unfollow(ctx context.Context, userID string) (Relationship, error)
	FriendRequests(ctx context.Context) ([]FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, requestID string) error
	DeclineFriendRequest(ctx context.Context, requestID string) error
	Stories(ctx context.Context) ([]Story, error)
	ViewStory(ctx context.Context, storyID string) (Story, error)
}
