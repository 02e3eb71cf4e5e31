package social_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/socialsync/core/optimistic"
	"github.com/dmitrymomot/socialsync/core/social"
)

type session bool

func (s session) IsAuthenticated(context.Context) bool { return bool(s) }

type notices struct {
	mu   sync.Mutex
	list []optimistic.Notice
}

func (n *notices) Notify(_ context.Context, v optimistic.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, v)
}

func (n *notices) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.list)
}

var errUpstream = errors.New("upstream: 500")

func newService(t *testing.T, api *mockAPI, opts ...social.Option) (*social.Service, *notices) {
	t.Helper()
	n := &notices{}
	opts = append([]social.Option{
		social.WithNotifier(n),
		// keep the convergence re-fetch out of the way of mock expectations
		social.WithRefetchDelay(time.Hour),
		social.WithViewer(func(context.Context) social.Author {
			return social.Author{ID: "me", Username: "me"}
		}),
	}, opts...)
	svc := social.NewService(api, social.NewFeed(), session(true), opts...)
	t.Cleanup(svc.Close)
	return svc, n
}

func TestToggleLike(t *testing.T) {
	t.Parallel()

	t.Run("commits server values", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", LikeCount: 3}})

		api.On("LikePost", mock.Anything, "p1").Return(social.LikeResult{IsLiked: true, LikeCount: 5}, nil).Run(func(mock.Arguments) {
			p, _ := svc.Feed().Posts.Get("p1")
			assert.True(t, p.IsLiked)
			assert.Equal(t, 4, p.LikeCount)
		})

		res, err := svc.ToggleLike(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, social.LikeResult{IsLiked: true, LikeCount: 5}, res)

		p, _ := svc.Feed().Posts.Get("p1")
		assert.True(t, p.IsLiked)
		assert.Equal(t, 5, p.LikeCount)
		api.AssertExpectations(t)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, n := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", IsLiked: true, LikeCount: 7, CommentCount: 2}})

		api.On("LikePost", mock.Anything, "p1").Return(social.LikeResult{}, errUpstream)

		_, err := svc.ToggleLike(context.Background(), "p1")
		require.ErrorIs(t, err, errUpstream)

		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, social.Post{ID: "p1", IsLiked: true, LikeCount: 7, CommentCount: 2}, p)
		assert.Equal(t, 1, n.Len())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc := social.NewService(api, social.NewFeed(), session(false))
		t.Cleanup(svc.Close)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", LikeCount: 1}})

		_, err := svc.ToggleLike(context.Background(), "p1")
		require.ErrorIs(t, err, optimistic.ErrUnauthenticated)

		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, 1, p.LikeCount)
		api.AssertNotCalled(t, "LikePost", mock.Anything, mock.Anything)
	})
}

func TestAddComment(t *testing.T) {
	t.Parallel()

	t.Run("placeholder replaced by server comment", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", CommentCount: 1}})
		comments := svc.Feed().Comments("p1")
		comments.Reset([]social.Comment{{ID: "c1", PostID: "p1"}})

		api.On("AddComment", mock.Anything, "p1", "hello").
			Return(social.Comment{ID: "c2", PostID: "p1", Text: "hello"}, nil).
			Run(func(mock.Arguments) {
				list := comments.List()
				require.Len(t, list, 2)
				assert.True(t, strings.HasPrefix(list[1].ID, social.PlaceholderPrefix))
				assert.True(t, list[1].Pending)
				assert.Equal(t, "me", list[1].Author.ID)
				p, _ := svc.Feed().Posts.Get("p1")
				assert.Equal(t, 2, p.CommentCount)
			})

		c, err := svc.AddComment(context.Background(), "p1", "  hello ")
		require.NoError(t, err)
		assert.Equal(t, "c2", c.ID)

		list := comments.List()
		require.Len(t, list, 2)
		assert.Equal(t, "c2", list[1].ID)
		assert.False(t, list[1].Pending)
		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, 2, p.CommentCount)
	})

	t.Run("failure removes placeholder and restores count", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, n := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", CommentCount: 1}})

		api.On("AddComment", mock.Anything, "p1", "hi").Return(social.Comment{}, errUpstream)

		_, err := svc.AddComment(context.Background(), "p1", "hi")
		require.ErrorIs(t, err, errUpstream)
		assert.Equal(t, 0, svc.Feed().Comments("p1").Len())
		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, 1, p.CommentCount)
		assert.Equal(t, 1, n.Len())
	})

	t.Run("post not loaded", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api)
		api.On("AddComment", mock.Anything, "p9", "hi").Return(social.Comment{ID: "c1", Text: "hi"}, nil)

		_, err := svc.AddComment(context.Background(), "p9", "hi")
		require.NoError(t, err)
		c, ok := svc.Feed().Comments("p9").Get("c1")
		require.True(t, ok)
		assert.Equal(t, "p9", c.PostID)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, &mockAPI{})
		_, err := svc.AddComment(context.Background(), "p1", "   ")
		assert.ErrorIs(t, err, social.ErrEmptyText)
	})
}

func TestDeleteComment(t *testing.T) {
	t.Parallel()

	t.Run("already deleted is reported and not decremented twice", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, n := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", CommentCount: 2}})
		svc.Feed().Comments("p1").Reset([]social.Comment{{ID: "c1", PostID: "p1"}, {ID: "c2", PostID: "p1"}})

		api.On("DeleteComment", mock.Anything, "c1").Return(nil).Once()

		ctx := context.Background()
		require.NoError(t, svc.DeleteComment(ctx, "p1", "c1"))
		err := svc.DeleteComment(ctx, "p1", "c1")
		require.ErrorIs(t, err, optimistic.ErrNotFound)

		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, 1, p.CommentCount)
		assert.Equal(t, 1, n.Len())
		api.AssertNumberOfCalls(t, "DeleteComment", 1)
	})

	t.Run("server rejects", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", CommentCount: 3}})
		comments := svc.Feed().Comments("p1")
		comments.Reset([]social.Comment{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}})

		api.On("DeleteComment", mock.Anything, "c2").Return(errUpstream)

		err := svc.DeleteComment(context.Background(), "p1", "c2")
		require.ErrorIs(t, err, errUpstream)
		assert.Equal(t, []social.Comment{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}, comments.List())
		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, 3, p.CommentCount)
	})

	t.Run("reply decrements parent", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api)
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", CommentCount: 1}})
		comments := svc.Feed().Comments("p1")
		comments.Reset([]social.Comment{{ID: "c1", ReplyCount: 1}, {ID: "r1", ParentID: "c1"}})

		api.On("DeleteComment", mock.Anything, "r1").Return(nil)

		require.NoError(t, svc.DeleteComment(context.Background(), "p1", "r1"))
		parent, _ := comments.Get("c1")
		assert.Equal(t, 0, parent.ReplyCount)
		p, _ := svc.Feed().Posts.Get("p1")
		assert.Equal(t, 1, p.CommentCount)
	})

	t.Run("placeholder", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, &mockAPI{})
		err := svc.DeleteComment(context.Background(), "p1", social.PlaceholderPrefix+"x")
		assert.ErrorIs(t, err, social.ErrPending)
	})
}

func TestReplyComment(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	comments := svc.Feed().Comments("p1")
	comments.Reset([]social.Comment{{ID: "c1"}, {ID: "c2"}})

	api.On("ReplyComment", mock.Anything, "c1", "yes").
		Return(social.Comment{ID: "r1", ParentID: "c1", Text: "yes"}, nil)

	_, err := svc.ReplyComment(context.Background(), "p1", "c1", "yes")
	require.NoError(t, err)

	list := comments.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c1", "r1", "c2"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, 1, list[0].ReplyCount)
}

func TestUpdateComment_Reverts(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	comments := svc.Feed().Comments("p1")
	comments.Reset([]social.Comment{{ID: "c1", Text: "old", LikeCount: 2}})

	api.On("UpdateComment", mock.Anything, "c1", "new").Return(social.Comment{}, errUpstream)

	_, err := svc.UpdateComment(context.Background(), "p1", "c1", "new")
	require.Error(t, err)
	c, _ := comments.Get("c1")
	assert.Equal(t, social.Comment{ID: "c1", Text: "old", LikeCount: 2}, c)
}

func TestUpdateComment_LateResponseRereadsComments(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api, social.WithRefetchDelay(5*time.Millisecond))
	svc.Feed().Posts.Reset([]social.Post{{ID: "p1", CommentCount: 1}})
	comments := svc.Feed().Comments("p1")
	comments.Reset([]social.Comment{{ID: "c1", PostID: "p1", Text: "old"}})

	started, release := make(chan struct{}), make(chan struct{})
	api.On("UpdateComment", mock.Anything, "c1", "first").
		Return(social.Comment{ID: "c1", PostID: "p1", Text: "first"}, nil).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		})
	api.On("UpdateComment", mock.Anything, "c1", "second").
		Return(social.Comment{ID: "c1", PostID: "p1", Text: "second"}, nil)
	api.On("Post", mock.Anything, "p1").Return(social.Post{ID: "p1", CommentCount: 1}, nil)
	api.On("Comments", mock.Anything, "p1").
		Return([]social.Comment{{ID: "c1", PostID: "p1", Text: "second (edited)"}}, nil)

	ctx := context.Background()
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.UpdateComment(ctx, "p1", "c1", "first")
		firstErr <- err
	}()
	<-started

	_, err := svc.UpdateComment(ctx, "p1", "c1", "second")
	require.NoError(t, err)
	close(release)
	assert.ErrorIs(t, <-firstErr, optimistic.ErrSuperseded)

	assert.Eventually(t, func() bool {
		c, _ := comments.Get("c1")
		return c.Text == "second (edited)"
	}, time.Second, 5*time.Millisecond)
	api.AssertCalled(t, "Comments", mock.Anything, "p1")
}

func TestCommentLike(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	comments := svc.Feed().Comments("p1")
	comments.Reset([]social.Comment{{ID: "c1", LikeCount: 1}})
	ctx := context.Background()

	api.On("LikeComment", mock.Anything, "c1").Return(social.LikeResult{IsLiked: true, LikeCount: 3}, nil)
	api.On("UnlikeComment", mock.Anything, "c1").Return(social.LikeResult{}, errUpstream)

	_, err := svc.LikeComment(ctx, "p1", "c1")
	require.NoError(t, err)
	c, _ := comments.Get("c1")
	assert.True(t, c.IsLiked)
	assert.Equal(t, 3, c.LikeCount)

	_, err = svc.UnlikeComment(ctx, "p1", "c1")
	require.Error(t, err)
	c, _ = comments.Get("c1")
	assert.True(t, c.IsLiked)
	assert.Equal(t, 3, c.LikeCount)
}

func TestSharePost(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	svc.Feed().Posts.Reset([]social.Post{{ID: "p1", ShareCount: 4}})
	ctx := context.Background()

	api.On("SharePost", mock.Anything, "p1", "look").Return(social.ShareResult{ShareID: "s1", ShareCount: 9}, nil)
	api.On("UpdateShare", mock.Anything, "p1", "edited").Return(social.ShareResult{}, errUpstream)

	_, err := svc.SharePost(ctx, "p1", "look")
	require.NoError(t, err)
	p, _ := svc.Feed().Posts.Get("p1")
	assert.True(t, p.IsShared)
	assert.Equal(t, 9, p.ShareCount)

	_, err = svc.UpdateShare(ctx, "p1", "edited")
	require.Error(t, err)
	p, _ = svc.Feed().Posts.Get("p1")
	assert.Equal(t, 9, p.ShareCount)
}

func TestFollow(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	people := svc.Feed().People
	people.Reset([]social.Relationship{{UserID: "u2", FollowerCount: 10}})
	ctx := context.Background()

	api.On("Follow", mock.Anything, "u2").Return(social.Relationship{IsFollowing: true, FollowerCount: 12}, nil)
	api.On("Unfollow", mock.Anything, "u2").Return(social.Relationship{}, errUpstream)
	api.On("Follow", mock.Anything, "u3").Return(social.Relationship{UserID: "u3", IsFollowing: true, FollowerCount: 1}, nil)

	_, err := svc.Follow(ctx, "u2")
	require.NoError(t, err)
	r, _ := people.Get("u2")
	assert.Equal(t, social.Relationship{UserID: "u2", IsFollowing: true, FollowerCount: 12}, r)

	_, err = svc.Unfollow(ctx, "u2")
	require.Error(t, err)
	r, _ = people.Get("u2")
	assert.True(t, r.IsFollowing)
	assert.Equal(t, 12, r.FollowerCount)

	// unknown profiles are added on success
	_, err = svc.Follow(ctx, "u3")
	require.NoError(t, err)
	_, ok := people.Get("u3")
	assert.True(t, ok)
}

func TestFriendRequests(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	reqs := svc.Feed().Requests
	reqs.Reset([]social.FriendRequest{{ID: "r1"}, {ID: "r2"}})
	ctx := context.Background()

	api.On("AcceptFriendRequest", mock.Anything, "r1").Return(nil)
	api.On("DeclineFriendRequest", mock.Anything, "r2").Return(errUpstream)

	require.NoError(t, svc.AcceptFriendRequest(ctx, "r1"))
	require.Error(t, svc.DeclineFriendRequest(ctx, "r2"))
	assert.Equal(t, []social.FriendRequest{{ID: "r2"}}, reqs.List())
}

func TestMarkStoryViewed(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	stories := svc.Feed().Stories
	stories.Reset([]social.Story{{ID: "s1", ViewCount: 1}, {ID: "s2", Viewed: true}})
	ctx := context.Background()

	api.On("ViewStory", mock.Anything, "s1").Return(social.Story{ID: "s1", Viewed: true, ViewCount: 8}, nil).Once()

	st, err := svc.MarkStoryViewed(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 8, st.ViewCount)
	got, _ := stories.Get("s1")
	assert.True(t, got.Viewed)
	assert.Equal(t, 8, got.ViewCount)

	_, err = svc.MarkStoryViewed(ctx, "s2")
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "ViewStory", 1)
}

func TestLoadFeed(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	ctx := context.Background()

	api.On("Feed", mock.Anything).Return(nil, errUpstream).Once()
	api.On("Feed", mock.Anything).Return([]social.Post{{ID: "p1"}, {ID: "p2"}}, nil).Once()

	require.ErrorIs(t, svc.LoadFeed(ctx), errUpstream)
	assert.ErrorIs(t, svc.Feed().Posts.Err(), errUpstream)

	require.NoError(t, svc.LoadFeed(ctx))
	assert.NoError(t, svc.Feed().Posts.Err())
	assert.Equal(t, 2, svc.Feed().Posts.Len())
}

func TestLoadHome(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)

	api.On("Feed", mock.Anything).Return([]social.Post{{ID: "p1"}, {ID: "p2"}}, nil)
	api.On("Stories", mock.Anything).Return([]social.Story{{ID: "s1"}}, nil)
	api.On("FriendRequests", mock.Anything).Return(nil, errUpstream)

	err := svc.LoadHome(context.Background())
	require.ErrorIs(t, err, errUpstream)

	feed := svc.Feed()
	assert.Equal(t, 2, feed.Posts.Len())
	assert.Equal(t, 1, feed.Stories.Len())
	assert.ErrorIs(t, feed.Requests.Err(), errUpstream)
}

func TestRefetch(t *testing.T) {
	t.Parallel()

	t.Run("like schedules a post re-read", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api, social.WithRefetchDelay(5*time.Millisecond))
		svc.Feed().Posts.Reset([]social.Post{{ID: "p1", LikeCount: 1}})

		api.On("LikePost", mock.Anything, "p1").Return(social.LikeResult{IsLiked: true, LikeCount: 2}, nil)
		refetched := make(chan struct{})
		api.On("Post", mock.Anything, "p1").Return(social.Post{ID: "p1", IsLiked: true, LikeCount: 6}, nil).
			Run(func(mock.Arguments) { close(refetched) }).Once()

		_, err := svc.ToggleLike(context.Background(), "p1")
		require.NoError(t, err)

		select {
		case <-refetched:
		case <-time.After(time.Second):
			t.Fatal("post was not re-read")
		}
		assert.Eventually(t, func() bool {
			p, _ := svc.Feed().Posts.Get("p1")
			return p.LikeCount == 6
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("keys", func(t *testing.T) {
		t.Parallel()
		api := &mockAPI{}
		svc, _ := newService(t, api)
		ctx := context.Background()

		api.On("Post", mock.Anything, "p1").Return(social.Post{ID: "p1"}, nil)
		api.On("Relationship", mock.Anything, "u1").Return(social.Relationship{FollowerCount: 3}, nil)
		api.On("Stories", mock.Anything).Return([]social.Story{{ID: "s1"}}, nil)

		require.NoError(t, svc.Refetch(ctx, "post:p1:like"))
		require.NoError(t, svc.Refetch(ctx, social.UserKey("u1")))
		require.NoError(t, svc.Refetch(ctx, social.StoryKey("s1")))
		assert.ErrorIs(t, svc.Refetch(ctx, "nope:1"), social.ErrUnknownKey)

		r, ok := svc.Feed().People.Get("u1")
		require.True(t, ok)
		assert.Equal(t, 3, r.FollowerCount)
		assert.Equal(t, 1, svc.Feed().Stories.Len())
	})
}

func TestScoped_SuppressesWritesAfterClose(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	svc, _ := newService(t, api)
	svc.Feed().Posts.Reset([]social.Post{{ID: "p1", LikeCount: 1}})
	scope := optimistic.NewScope()

	api.On("LikePost", mock.Anything, "p1").Return(social.LikeResult{IsLiked: true, LikeCount: 40}, nil).
		Run(func(mock.Arguments) { scope.Close() })

	_, err := svc.Scoped(scope).ToggleLike(context.Background(), "p1")
	require.NoError(t, err)
	p, _ := svc.Feed().Posts.Get("p1")
	assert.Equal(t, 2, p.LikeCount, "server value not written after the view closed")
}
