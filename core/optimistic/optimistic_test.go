package optimistic_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/socialsync/core/optimistic"
	"github.com/dmitrymomot/socialsync/core/state"
)

type post struct {
	ID           string
	IsLiked      bool
	LikeCount    int
	CommentCount int
}

type comment struct {
	ID     string
	PostID string
	Text   string
}

type likeResult struct {
	IsLiked   bool
	LikeCount int
}

type session bool

func (s session) IsAuthenticated(context.Context) bool { return bool(s) }

type recorder struct {
	mu      sync.Mutex
	notices []optimistic.Notice
}

func (r *recorder) Notify(_ context.Context, n optimistic.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

func newPosts(p ...post) *state.Collection[post] {
	c := state.NewCollection(func(p post) string { return p.ID })
	c.Reset(p)
	return c
}

func toggleLike(p *post) {
	p.IsLiked = !p.IsLiked
	if p.IsLiked {
		p.LikeCount++
	} else {
		p.LikeCount--
	}
}

func restoreLike(cur *post, before post) {
	cur.IsLiked, cur.LikeCount = before.IsLiked, before.LikeCount
}

func likeMutation(posts *state.Collection[post], id string, send func(context.Context) (likeResult, error)) optimistic.Mutation[likeResult] {
	return optimistic.Mutation[likeResult]{
		Name:  "like_post",
		Key:   "post:" + id,
		Apply: optimistic.Patch(posts, id, toggleLike, restoreLike),
		Send:  send,
		Commit: func(r likeResult) {
			posts.Update(id, func(p *post) { p.IsLiked, p.LikeCount = r.IsLiked, r.LikeCount })
		},
		Failure: "Could not like the post.",
	}
}

func TestRun_Unauthenticated(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", LikeCount: 3})
	c := optimistic.NewCoordinator(session(false))

	sent := false
	_, err := optimistic.Run(context.Background(), c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		sent = true
		return likeResult{}, nil
	}))

	require.ErrorIs(t, err, optimistic.ErrUnauthenticated)
	assert.False(t, sent)
	got, _ := posts.Get("p1")
	assert.Equal(t, post{ID: "p1", LikeCount: 3}, got)
}

func TestRun_RollbackRestoresExactValues(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", IsLiked: false, LikeCount: 4})
	notices := &recorder{}
	c := optimistic.NewCoordinator(session(true), optimistic.WithNotifier(notices))

	boom := errors.New("network down")
	_, err := optimistic.Run(context.Background(), c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		got, _ := posts.Get("p1")
		assert.True(t, got.IsLiked, "local change must precede the request")
		assert.Equal(t, 5, got.LikeCount)
		return likeResult{}, boom
	}))

	require.ErrorIs(t, err, boom)
	got, _ := posts.Get("p1")
	assert.False(t, got.IsLiked)
	assert.Equal(t, 4, got.LikeCount)

	require.Equal(t, 1, notices.count())
	assert.Equal(t, "Could not like the post.", notices.notices[0].Message)
	assert.ErrorIs(t, notices.notices[0].Err, boom)
}

func TestRun_CommitUsesServerValues(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", IsLiked: false, LikeCount: 3})
	c := optimistic.NewCoordinator(session(true))

	res, err := optimistic.Run(context.Background(), c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		got, _ := posts.Get("p1")
		assert.Equal(t, 4, got.LikeCount)
		return likeResult{IsLiked: true, LikeCount: 5}, nil
	}))

	require.NoError(t, err)
	assert.Equal(t, likeResult{IsLiked: true, LikeCount: 5}, res)
	got, _ := posts.Get("p1")
	assert.True(t, got.IsLiked)
	assert.Equal(t, 5, got.LikeCount)
}

func TestRun_SupersededResponseIsDropped(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", LikeCount: 10})
	var refetches atomic.Int32
	c := optimistic.NewCoordinator(session(true),
		optimistic.WithRefetchDelay(5*time.Millisecond),
		optimistic.WithRefetcher(optimistic.RefetchFunc(func(context.Context, string) error {
			refetches.Add(1)
			return nil
		})),
	)
	defer c.Close()

	releaseFirst := make(chan struct{})
	ctx := context.Background()

	// like (slow), then unlike (fast)
	first := optimistic.Go(ctx, c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		<-releaseFirst
		return likeResult{IsLiked: true, LikeCount: 11}, nil
	}))
	second := optimistic.Go(ctx, c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		return likeResult{IsLiked: false, LikeCount: 10}, nil
	}))

	_, err := second.Await()
	require.NoError(t, err)
	close(releaseFirst)
	_, err = first.Await()
	require.ErrorIs(t, err, optimistic.ErrSuperseded)

	got, _ := posts.Get("p1")
	assert.False(t, got.IsLiked)
	assert.Equal(t, 10, got.LikeCount)
	assert.Eventually(t, func() bool { return refetches.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRun_SupersededFailureDoesNotRevert(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", LikeCount: 1})
	c := optimistic.NewCoordinator(session(true))
	ctx := context.Background()

	releaseFirst := make(chan struct{})
	first := optimistic.Go(ctx, c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		<-releaseFirst
		return likeResult{}, errors.New("late failure")
	}))
	second := optimistic.Go(ctx, c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		return likeResult{IsLiked: false, LikeCount: 1}, nil
	}))

	_, err := second.Await()
	require.NoError(t, err)
	close(releaseFirst)
	_, err = first.Await()
	require.Error(t, err)

	got, _ := posts.Get("p1")
	assert.False(t, got.IsLiked)
	assert.Equal(t, 1, got.LikeCount)
}

func TestRun_FailuresUnwindToOriginalValue(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", LikeCount: 10})
	var refetches atomic.Int32
	c := optimistic.NewCoordinator(session(true),
		optimistic.WithRefetchDelay(5*time.Millisecond),
		optimistic.WithRefetcher(optimistic.RefetchFunc(func(context.Context, string) error {
			refetches.Add(1)
			return nil
		})),
	)
	defer c.Close()
	ctx := context.Background()

	releaseFirst := make(chan struct{})
	first := optimistic.Go(ctx, c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		<-releaseFirst
		return likeResult{}, errors.New("first failed")
	}))
	second := optimistic.Go(ctx, c, likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		return likeResult{}, errors.New("second failed")
	}))

	_, err := second.Await()
	require.Error(t, err)
	got, _ := posts.Get("p1")
	assert.True(t, got.IsLiked, "only the newest change is undone so far")
	assert.Equal(t, 11, got.LikeCount)

	close(releaseFirst)
	_, err = first.Await()
	require.Error(t, err)

	got, _ = posts.Get("p1")
	assert.False(t, got.IsLiked)
	assert.Equal(t, 10, got.LikeCount)
	assert.Eventually(t, func() bool { return refetches.Load() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestRun_RemoveMissingIsReportedOnce(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", CommentCount: 2})
	comments := state.NewCollection(func(c comment) string { return c.ID })
	comments.Reset([]comment{{ID: "c1", PostID: "p1"}, {ID: "c2", PostID: "p1"}})

	notices := &recorder{}
	c := optimistic.NewCoordinator(session(true), optimistic.WithNotifier(notices))

	deleteComment := func(id string) error {
		_, err := optimistic.Run(context.Background(), c, optimistic.Mutation[struct{}]{
			Name: "delete_comment",
			Key:  "comment:" + id,
			Apply: optimistic.Chain(
				optimistic.Remove(comments, id),
				optimistic.Patch(posts, "p1",
					func(p *post) { p.CommentCount-- },
					func(cur *post, before post) { cur.CommentCount++ }),
			),
			Send: func(context.Context) (struct{}, error) { return struct{}{}, nil },
		})
		return err
	}

	require.NoError(t, deleteComment("c1"))
	err := deleteComment("c1")
	require.ErrorIs(t, err, optimistic.ErrNotFound)

	got, _ := posts.Get("p1")
	assert.Equal(t, 1, got.CommentCount)
	assert.Equal(t, 1, comments.Len())
	assert.Equal(t, 1, notices.count())
}

func TestRun_RemoveFailureReinsertsAtIndex(t *testing.T) {
	t.Parallel()

	comments := state.NewCollection(func(c comment) string { return c.ID })
	comments.Reset([]comment{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}})
	c := optimistic.NewCoordinator(session(true))

	_, err := optimistic.Run(context.Background(), c, optimistic.Mutation[struct{}]{
		Key:   "comment:c2",
		Apply: optimistic.Remove(comments, "c2"),
		Send: func(context.Context) (struct{}, error) {
			assert.Equal(t, 2, comments.Len())
			return struct{}{}, errors.New("forbidden")
		},
	})
	require.Error(t, err)
	assert.Equal(t, []comment{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}, comments.List())
}

func TestRun_InsertPlaceholder(t *testing.T) {
	t.Parallel()

	comments := state.NewCollection(func(c comment) string { return c.ID })
	comments.Reset([]comment{{ID: "c1"}})
	c := optimistic.NewCoordinator(session(true))
	ctx := context.Background()

	placeholder := comment{ID: "temp-1", Text: "hello"}
	saved, err := optimistic.Run(ctx, c, optimistic.Mutation[comment]{
		Apply: optimistic.Insert(comments, -1, placeholder),
		Send: func(context.Context) (comment, error) {
			_, ok := comments.Get("temp-1")
			assert.True(t, ok)
			return comment{ID: "c2", Text: "hello"}, nil
		},
		Commit: func(v comment) { comments.Replace("temp-1", v) },
	})
	require.NoError(t, err)
	assert.Equal(t, "c2", saved.ID)
	assert.Equal(t, []comment{{ID: "c1"}, {ID: "c2", Text: "hello"}}, comments.List())

	_, err = optimistic.Run(ctx, c, optimistic.Mutation[comment]{
		Apply: optimistic.Insert(comments, 0, comment{ID: "temp-2"}),
		Send:  func(context.Context) (comment, error) { return comment{}, errors.New("rejected") },
	})
	require.Error(t, err)
	_, ok := comments.Get("temp-2")
	assert.False(t, ok)
}

func TestRun_ClosedScopeSuppressesWrites(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", LikeCount: 2})
	c := optimistic.NewCoordinator(session(true))
	scope := optimistic.NewScope()

	m := likeMutation(posts, "p1", func(context.Context) (likeResult, error) {
		scope.Close()
		return likeResult{}, errors.New("fails after unmount")
	})
	m.Scope = scope

	_, err := optimistic.Run(context.Background(), c, m)
	require.Error(t, err)

	got, _ := posts.Get("p1")
	assert.True(t, got.IsLiked, "revert skipped once the view is gone")

	_, err = optimistic.Run(context.Background(), c, m)
	assert.ErrorIs(t, err, optimistic.ErrScopeClosed)
}

func TestRun_RefetchCoalesced(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1"})
	var calls atomic.Int32
	keys := make(chan string, 4)
	c := optimistic.NewCoordinator(session(true),
		optimistic.WithRefetchDelay(20*time.Millisecond),
		optimistic.WithRefetcher(optimistic.RefetchFunc(func(_ context.Context, key string) error {
			calls.Add(1)
			keys <- key
			return nil
		})),
	)
	defer c.Close()

	for range 3 {
		m := likeMutation(posts, "p1", func(context.Context) (likeResult, error) { return likeResult{}, nil })
		m.Refetch = "post:p1"
		_, err := optimistic.Run(context.Background(), c, m)
		require.NoError(t, err)
	}

	select {
	case key := <-keys:
		assert.Equal(t, "post:p1", key)
	case <-time.After(time.Second):
		t.Fatal("refetch never ran")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, c.Pending())
}

func TestChain_RevertsEarlierStepsOnFailure(t *testing.T) {
	t.Parallel()

	posts := newPosts(post{ID: "p1", LikeCount: 1})
	apply := optimistic.Chain(
		optimistic.Patch(posts, "p1", func(p *post) { p.LikeCount++ }, nil),
		optimistic.Patch(posts, "missing", func(p *post) {}, nil),
	)
	_, err := apply()
	require.ErrorIs(t, err, optimistic.ErrNotFound)

	got, _ := posts.Get("p1")
	assert.Equal(t, 1, got.LikeCount)

	revert, err := optimistic.Optional(optimistic.Patch(posts, "missing", func(*post) {}, nil))()
	require.NoError(t, err)
	assert.NotPanics(t, revert)
}
