package social_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/socialsync/core/social"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Feed(ctx context.Context) ([]social.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]social.Post)
	return posts, args.Error(1)
}

func (m *mockAPI) Post(ctx context.Context, id string) (social.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(social.Post), args.Error(1)
}

func (m *mockAPI) Comments(ctx context.Context, postID string) ([]social.Comment, error) {
	args := m.Called(ctx, postID)
	comments, _ := args.Get(0).([]social.Comment)
	return comments, args.Error(1)
}

func (m *mockAPI) LikePost(ctx context.Context, postID string) (social.LikeResult, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(social.LikeResult), args.Error(1)
}

func (m *mockAPI) AddComment(ctx context.Context, postID, text string) (social.Comment, error) {
	args := m.Called(ctx, postID, text)
	return args.Get(0).(social.Comment), args.Error(1)
}

func (m *mockAPI) UpdateComment(ctx context.Context, commentID, text string) (social.Comment, error) {
	args := m.Called(ctx, commentID, text)
	return args.Get(0).(social.Comment), args.Error(1)
}

func (m *mockAPI) DeleteComment(ctx context.Context, commentID string) error {
	return m.Called(ctx, commentID).Error(0)
}

func (m *mockAPI) ReplyComment(ctx context.Context, commentID, text string) (social.Comment, error) {
	args := m.Called(ctx, commentID, text)
	return args.Get(0).(social.Comment), args.Error(1)
}

func (m *mockAPI) LikeComment(ctx context.Context, commentID string) (social.LikeResult, error) {
	args := m.Called(ctx, commentID)
	return args.Get(0).(social.LikeResult), args.Error(1)
}

func (m *mockAPI) UnlikeComment(ctx context.Context, commentID string) (social.LikeResult, error) {
	args := m.Called(ctx, commentID)
	return args.Get(0).(social.LikeResult), args.Error(1)
}

func (m *mockAPI) SharePost(ctx context.Context, postID, caption string) (social.ShareResult, error) {
	args := m.Called(ctx, postID, caption)
	return args.Get(0).(social.ShareResult), args.Error(1)
}

func (m *mockAPI) UpdateShare(ctx context.Context, postID, caption string) (social.ShareResult, error) {
	args := m.Called(ctx, postID, caption)
	return args.Get(0).(social.ShareResult), args.Error(1)
}

func (m *mockAPI) Relationship(ctx context.Context, userID string) (social.Relationship, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(social.Relationship), args.Error(1)
}

func (m *mockAPI) Follow(ctx context.Context, userID string) (social.Relationship, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(social.Relationship), args.Error(1)
}

func (m *mockAPI) Unfollow(ctx context.Context, userID string) (social.Relationship, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(social.Relationship), args.Error(1)
}

func (m *mockAPI) FriendRequests(ctx context.Context) ([]social.FriendRequest, error) {
	args := m.Called(ctx)
	reqs, _ := args.Get(0).([]social.FriendRequest)
	return reqs, args.Error(1)
}

func (m *mockAPI) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return m.Called(ctx, requestID).Error(0)
}

func (m *mockAPI) DeclineFriendRequest(ctx context.Context, requestID string) error {
	return m.Called(ctx, requestID).Error(0)
}

func (m *mockAPI) Stories(ctx context.Context) ([]social.Story, error) {
	args := m.Called(ctx)
	stories, _ := args.Get(0).([]social.Story)
	return stories, args.Error(1)
}

func (m *mockAPI) ViewStory(ctx context.Context, storyID string) (social.Story, error) {
	args := m.Called(ctx, storyID)
	return args.Get(0).(social.Story), args.Error(1)
}
