package credential

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/socialsync/core/logger"
)

// Event is passed to the diagnostics hook after every store operation.
type Event struct {
	Action   string // get, set, clear, backfill, expire
	Location string // empty for whole-store events
	UserID   string
	Err      error
}

// Store presents the memory, durable and cookie locations as one logical
// value. Reads follow the priority order given at construction and repair
// the other locations from the first one that holds a token.
type Store struct {
	locations []Location
	logger    *slog.Logger
	observe   func(Event)
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mutation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a diagnostics hook. A panicking hook is recovered.
func WithObserver(fn func(Event)) Option {
	return func(s *Store) {
		s.observe = fn
	}
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store over locations in read-priority order, typically
// memory, durable, cookie.
func NewStore(locations []Location, opts ...Option) *Store {
	s := &Store{
		locations: locations,
		logger:    logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("credential"))
	return s
}

// Get returns the session from the first location holding a non-expired
// token, then back-fills every other location with it. Read errors count as
// absence. ErrUnauthenticated means every location is empty.
func (s *Store) Get(ctx context.Context) (Session, error) {
	var (
		winner Session
		from   = -1
		loaded = make([]string, len(s.locations))
	)

	for i, loc := range s.locations {
		sess, err := loc.Load(ctx)
		if err != nil {
			if !errors.Is(err, ErrEmpty) {
				s.logger.WarnContext(ctx, "credential location unreadable",
					logger.Location(loc.Name()), logger.Error(err))
			}
			continue
		}
		if sess.Expired(s.now()) {
			s.expire(ctx, loc)
			continue
		}
		loaded[i] = sess.Token
		if from < 0 {
			winner, from = sess, i
		}
	}

	if from < 0 {
		return Session{}, ErrUnauthenticated
	}

	// The cookie carries no profile; borrow one from a lower-priority
	// location holding the same token.
	if winner.User.IsZero() {
		for i, loc := range s.locations {
			if i == from || loaded[i] != winner.Token {
				continue
			}
			if sess, err := loc.Load(ctx); err == nil && !sess.User.IsZero() {
				winner.User = sess.User
				break
			}
		}
	}

	for i, loc := range s.locations {
		if i == from || loaded[i] == winner.Token {
			continue
		}
		err := loc.Save(ctx, winner)
		s.record(ctx, Event{Action: "backfill", Location: loc.Name(), UserID: winner.User.ID, Err: err})
	}

	s.record(ctx, Event{Action: "get", Location: s.locations[from].Name(), UserID: winner.User.ID})
	return winner, nil
}

// Set writes sess to every location. All locations are attempted; the
// joined error names the ones that failed.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if sess.Token == "" {
		return ErrInvalidSession
	}

	var errs []error
	for _, loc := range s.locations {
		err := loc.Save(ctx, sess)
		s.record(ctx, Event{Action: "set", Location: loc.Name(), UserID: sess.User.ID, Err: err})
		if err != nil {
			errs = append(errs, locationError(loc, err))
		}
	}
	return errors.Join(errs...)
}

// Clear removes the session from every location. A failure in one location
// never stops the others from being cleared.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, loc := range s.locations {
		err := loc.Clear(ctx)
		s.record(ctx, Event{Action: "clear", Location: loc.Name(), Err: err})
		if err != nil {
			errs = append(errs, locationError(loc, err))
		}
	}
	return errors.Join(errs...)
}

// Token returns the current bearer token, or ErrUnauthenticated.
func (s *Store) Token(ctx context.Context) (string, error) {
	sess, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// IsAuthenticated reports whether any location holds a usable token.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, err := s.Get(ctx)
	return err == nil
}

func (s *Store) expire(ctx context.Context, loc Location) {
	err := loc.Clear(ctx)
	s.record(ctx, Event{Action: "expire", Location: loc.Name(), Err: err})
}

// record logs the event and feeds the diagnostics hook. Neither may fail
// the calling operation.
func (s *Store) record(ctx context.Context, ev Event) {
	level := slog.LevelDebug
	result := "success"
	if ev.Err != nil {
		level = slog.LevelWarn
		result = "failure"
	}
	s.logger.Log(ctx, level, "credential "+ev.Action,
		logger.Action(ev.Action),
		logger.Location(ev.Location),
		logger.UserID(ev.UserID),
		logger.Result(result),
		logger.Error(ev.Err),
	)

	if s.observe == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "credential observer panicked", logger.Key("panic", r))
		}
	}()
	s.observe(ev)
}

type locationErr struct {
	location string
	err      error
}

func (e *locationErr) Error() string { return e.location + ": " + e.err.Error() }
func (e *locationErr) Unwrap() error { return e.err }

func locationError(loc Location, err error) error {
	return &locationErr{location: loc.Name(), err: err}
}
