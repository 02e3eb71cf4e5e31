package optimistic

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/pkg/async"
)

// DefaultRefetchDelay is how long a parent entity waits after a mutation
// before it is re-read from the server.
const DefaultRefetchDelay = 500 * time.Millisecond

// SessionChecker reports whether a session is present.
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
}

// Refetcher re-reads the entity identified by key from the server and
// writes it into local state.
type Refetcher interface {
	Refetch(ctx context.Context, key string) error
}

// RefetchFunc adapts a function to Refetcher.
type RefetchFunc func(ctx context.Context, key string) error

func (f RefetchFunc) Refetch(ctx context.Context, key string) error { return f(ctx, key) }

// Notice is a user-facing message about a failed mutation.
type Notice struct {
	Mutation string
	Message  string
	Err      error
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(ctx context.Context, n Notice)

func (f NotifyFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Coordinator runs optimistic mutations: check session, apply locally,
// send, then commit the server's values or revert.
//
// Mutations on the same key are not serialized. Each gets a sequence number,
// and only the most recently issued one may write its response or revert;
// an older one that finishes late leaves local state alone and schedules a
// re-fetch instead, so shared counters converge on the server's value.
//
// Failures unwind newest first: once the latest mutation on a key has
// reverted, an older one that then fails reverts too, restoring the value
// from before both. A failure that arrives out of that order is left to
// the re-fetch.
type Coordinator struct {
	session      SessionChecker
	refetcher    Refetcher
	notifier     Notifier
	logger       *slog.Logger
	refetchDelay time.Duration
	refetchTTL   time.Duration

	mu     sync.Mutex
	seq     map[string]uint64
	unwound map[string]uint64
	timers map[string]*time.Timer
	closed bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRefetcher sets the convergence re-fetch target.
func WithRefetcher(r Refetcher) Option {
	return func(c *Coordinator) { c.refetcher = r }
}

// WithNotifier sets where failure notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRefetchDelay sets the delay before the convergence re-fetch.
func WithRefetchDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.refetchDelay = d
		}
	}
}

// NewCoordinator creates a coordinator gated by session.
func NewCoordinator(session SessionChecker, opts ...Option) *Coordinator {
	c := &Coordinator{
		session:      session,
		logger:       logger.Discard(),
		refetchDelay: DefaultRefetchDelay,
		refetchTTL:   10 * time.Second,
		seq:          make(map[string]uint64),
		unwound:      make(map[string]uint64),
		timers:       make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("optimistic"))
	return c
}

// Mutation describes one optimistic change.
type Mutation[R any] struct {
	// Name labels logs and notices, e.g. "like_post".
	Name string
	// Key identifies the entity whose shared fields the mutation writes.
	// Mutations with the same key supersede each other.
	Key string
	// Scope, when set, suppresses state writes after it closes.
	Scope *Scope
	// Apply performs the local change synchronously and returns the function
	// that reverts exactly that change. Returning ErrNotFound aborts the mutation.
	Apply func() (revert func(), err error)
	// Send issues the request.
	Send func(ctx context.Context) (R, error)
	// Commit writes the server's authoritative values. Optional.
	Commit func(R)
	// Refetch, when set, names the parent entity to re-read after completion.
	Refetch string
	// Failure is the user-facing message on failure.
	Failure string
}

// Run executes m and blocks until its request finishes.
func Run[R any](ctx context.Context, c *Coordinator, m Mutation[R]) (R, error) {
	p, err := begin(ctx, c, m)
	if err != nil {
		var zero R
		return zero, err
	}
	return complete(ctx, c, p)
}

// Go applies m locally before returning and sends the request in the
// background. The future resolves with what Run would have returned. The
// request is detached from ctx cancellation: a fired request always runs to
// completion.
func Go[R any](ctx context.Context, c *Coordinator, m Mutation[R]) *async.Future[R] {
	p, err := begin(ctx, c, m)
	if err != nil {
		return async.Async(ctx, err, func(_ context.Context, err error) (R, error) {
			var zero R
			return zero, err
		})
	}
	return async.Async(context.WithoutCancel(ctx), p, func(ctx context.Context, p *pending[R]) (R, error) {
		return complete(ctx, c, p)
	})
}

type pending[R any] struct {
	m      Mutation[R]
	revert func()
	seq    uint64
}

// begin runs steps one and two: session check, then local apply. Nothing
// local changes when it returns an error.
func begin[R any](ctx context.Context, c *Coordinator, m Mutation[R]) (*pending[R], error) {
	if !c.session.IsAuthenticated(ctx) {
		return nil, ErrUnauthenticated
	}
	if !m.Scope.Active() {
		return nil, ErrScopeClosed
	}

	p := &pending[R]{m: m, revert: func() {}}
	if m.Apply != nil {
		revert, err := m.Apply()
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.notify(ctx, m.Name, m.Failure, err)
			}
			return nil, err
		}
		if revert != nil {
			p.revert = revert
		}
	}
	p.seq = c.issue(m.Key)
	return p, nil
}

// complete runs steps three and four: send, then commit or revert.
func complete[R any](ctx context.Context, c *Coordinator, p *pending[R]) (R, error) {
	m := p.m
	start := time.Now()
	result, err := m.Send(ctx)
	latest := c.isLatest(m.Key, p.seq)

	log := c.logger.With(
		logger.Action(m.Name),
		logger.EntityID(m.Key),
		logger.Duration(time.Since(start)),
	)

	fallback := m.Refetch
	if fallback == "" {
		fallback = m.Key
	}

	switch {
	case err == nil && latest:
		if m.Scope.Active() && m.Commit != nil {
			m.Commit(result)
		}
		log.DebugContext(ctx, "mutation committed", logger.Result("success"))

	case err == nil:
		log.DebugContext(ctx, "mutation response superseded", logger.Result("superseded"))
		c.schedule(fallback)

	case c.unwind(m.Key, p.seq):
		if m.Scope.Active() {
			p.revert()
		}
		log.WarnContext(ctx, "mutation reverted", logger.Result("failure"), logger.Error(err))
		c.notify(ctx, m.Name, m.Failure, err)
		if !latest {
			c.schedule(fallback)
		}

	default:
		log.WarnContext(ctx, "superseded mutation failed", logger.Result("failure"), logger.Error(err))
		c.notify(ctx, m.Name, m.Failure, err)
		c.schedule(fallback)
	}

	if m.Refetch != "" {
		c.schedule(m.Refetch)
	}

	switch {
	case err != nil:
		var zero R
		return zero, err
	case !latest:
		return result, ErrSuperseded
	default:
		return result, nil
	}
}

// Close stops pending re-fetches. Mutations already running still finish.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
}

// Mutations without a key (inserts of fresh placeholders) are never superseded.
func (c *Coordinator) issue(key string) uint64 {
	if key == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[key]++
	delete(c.unwound, key)
	return c.seq[key]
}

// unwind reports whether a failed mutation may revert: the latest one may,
// and so may an older one whose every successor has already reverted.
func (c *Coordinator) unwind(key string, seq uint64) bool {
	if key == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq[key] != seq && c.unwound[key] != seq+1 {
		return false
	}
	c.unwound[key] = seq
	return true
}

func (c *Coordinator) isLatest(key string, seq uint64) bool {
	if key == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq[key] == seq
}

// schedule coalesces re-fetches per key: another request inside the delay
// window restarts the timer.
func (c *Coordinator) schedule(key string) {
	if c.refetcher == nil || key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if t, ok := c.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(c.refetchDelay, func() {
		c.mu.Lock()
		if c.timers[key] == t {
			delete(c.timers, key)
		}
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), c.refetchTTL)
		defer cancel()
		if err := c.refetcher.Refetch(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "refetch failed", logger.EntityID(key), logger.Error(err))
		}
	})
	c.timers[key] = t
}

// Pending reports how many re-fetches are waiting to fire.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Coordinator) notify(ctx context.Context, name, message string, err error) {
	if c.notifier == nil {
		return
	}
	if message == "" {
		message = "Something went wrong. Please try again."
	}
	c.notifier.Notify(ctx, Notice{Mutation: name, Message: message, Err: err})
}
