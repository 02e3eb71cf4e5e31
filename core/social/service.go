package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/core/optimistic"
	"github.com/dmitrymomot/socialsync/pkg/async"
)

// PlaceholderPrefix starts the id of every locally created entity that the
// server has not confirmed yet.
const PlaceholderPrefix = "temp-"

// IsPlaceholder reports whether id was generated locally.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// Service performs the social operations against the API, optimistically
// mirrored in a Feed.
type Service struct {
	api    API
	feed   *Feed
	coord  *optimistic.Coordinator
	logger *slog.Logger
	viewer func(context.Context) Author
	now    func() time.Time
	scope  *optimistic.Scope

	coordOpts []optimistic.Option
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the service and its coordinator.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
			s.coordOpts = append(s.coordOpts, optimistic.WithLogger(l))
		}
	}
}

// WithNotifier sets where failure notices go.
func WithNotifier(n optimistic.Notifier) Option {
	return func(s *Service) {
		s.coordOpts = append(s.coordOpts, optimistic.WithNotifier(n))
	}
}

// WithRefetchDelay sets the delay of the convergence re-fetch.
func WithRefetchDelay(d time.Duration) Option {
	return func(s *Service) {
		s.coordOpts = append(s.coordOpts, optimistic.WithRefetchDelay(d))
	}
}

// WithViewer sets how the current user is resolved for placeholders.
func WithViewer(fn func(context.Context) Author) Option {
	return func(s *Service) {
		if fn != nil {
			s.viewer = fn
		}
	}
}

// NewService wires a service. session gates every mutation.
func NewService(api API, feed *Feed, session optimistic.SessionChecker, opts ...Option) *Service {
	s := &Service{
		api:    api,
		feed:   feed,
		logger: logger.Discard(),
		viewer: func(context.Context) Author { return Author{} },
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("social"))
	s.coord = optimistic.NewCoordinator(session, append(s.coordOpts, optimistic.WithRefetcher(s))...)
	return s
}

// Feed returns the collections the service writes.
func (s *Service) Feed() *Feed {
	return s.feed
}

// Scoped returns a service whose completions stop writing state once scope
// is closed. It shares everything else with s.
func (s *Service) Scoped(scope *optimistic.Scope) *Service {
	cp := *s
	cp.scope = scope
	return &cp
}

// Close stops pending re-fetches.
func (s *Service) Close() {
	s.coord.Close()
}

// LoadFeed replaces the post list with the server's feed.
func (s *Service) LoadFeed(ctx context.Context) error {
	posts, err := s.api.Feed(ctx)
	if err != nil {
		s.feed.Posts.SetError(err)
		s.logger.WarnContext(ctx, "failed to load feed", logger.Error(err))
		return fmt.Errorf("load feed: %w", err)
	}
	s.feed.Posts.Reset(posts)
	return nil
}

// LoadHome loads the feed, the stories and the friend requests in
// parallel. Each store keeps its own error; the first one is returned.
func (s *Service) LoadHome(ctx context.Context) error {
	run := func(ctx context.Context, load func(context.Context) error) error { return load(ctx) }
	return async.ExecAll(
		async.Exec(ctx, s.LoadFeed, run),
		async.Exec(ctx, s.LoadStories, run),
		async.Exec(ctx, s.LoadFriendRequests, run),
	)
}

// LoadComments replaces the comment list of postID.
func (s *Service) LoadComments(ctx context.Context, postID string) error {
	comments, err := s.api.Comments(ctx, postID)
	col := s.feed.Comments(postID)
	if err != nil {
		col.SetError(err)
		return fmt.Errorf("load comments of %s: %w", postID, err)
	}
	col.Reset(comments)
	return nil
}

// LoadStories replaces the story list.
func (s *Service) LoadStories(ctx context.Context) error {
	stories, err := s.api.Stories(ctx)
	if err != nil {
		s.feed.Stories.SetError(err)
		return fmt.Errorf("load stories: %w", err)
	}
	s.feed.Stories.Reset(stories)
	return nil
}

// LoadFriendRequests replaces the pending friend request list.
func (s *Service) LoadFriendRequests(ctx context.Context) error {
	reqs, err := s.api.FriendRequests(ctx)
	if err != nil {
		s.feed.Requests.SetError(err)
		return fmt.Errorf("load friend requests: %w", err)
	}
	s.feed.Requests.Reset(reqs)
	return nil
}

// RefreshPost re-reads one post and writes it into the feed.
func (s *Service) RefreshPost(ctx context.Context, postID string) error {
	p, err := s.api.Post(ctx, postID)
	if err != nil {
		return fmt.Errorf("refresh post %s: %w", postID, err)
	}
	upsert(s.feed.Posts, p)
	return nil
}

// RefreshRelationship re-reads the viewer's relation to userID.
func (s *Service) RefreshRelationship(ctx context.Context, userID string) error {
	r, err := s.api.Relationship(ctx, userID)
	if err != nil {
		return fmt.Errorf("refresh relationship %s: %w", userID, err)
	}
	if r.UserID == "" {
		r.UserID = userID
	}
	upsert(s.feed.People, r)
	return nil
}

// Refetch implements optimistic.Refetcher. Keys have the form kind:id with
// an optional :field suffix.
func (s *Service) Refetch(ctx context.Context, key string) error {
	kind, rest, _ := strings.Cut(key, ":")
	id, _, _ := strings.Cut(rest, ":")

	switch kind {
	case "post":
		err := s.RefreshPost(ctx, id)
		if s.feed.hasComments(id) {
			err = errors.Join(err, s.LoadComments(ctx, id))
		}
		return err
	case "user":
		return s.RefreshRelationship(ctx, id)
	case "story", StoriesKey:
		return s.LoadStories(ctx)
	case "request", RequestsKey:
		return s.LoadFriendRequests(ctx)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func field(key, name string) string {
	return key + ":" + name
}
