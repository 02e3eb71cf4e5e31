package social

import (
	"sync"

	"github.com/dmitrymomot/socialsync/core/state"
)

// Feed owns the reactive collections for one client context. All writes go
// through Service so they can be reconciled with the server.
type Feed struct {
	Posts    *state.Collection[Post]
	Stories  *state.Collection[Story]
	Requests *state.Collection[FriendRequest]
	People   *state.Collection[Relationship]

	mu       sync.Mutex
	comments map[string]*state.Collection[Comment]
}

// NewFeed returns empty collections.
func NewFeed() *Feed {
	return &Feed{
		Posts:    state.NewCollection(func(p Post) string { return p.ID }),
		Stories:  state.NewCollection(func(s Story) string { return s.ID }),
		Requests: state.NewCollection(func(r FriendRequest) string { return r.ID }),
		People:   state.NewCollection(func(r Relationship) string { return r.UserID }),
		comments: make(map[string]*state.Collection[Comment]),
	}
}

// Comments returns the comment list of postID, creating it on first use.
func (f *Feed) Comments(postID string) *state.Collection[Comment] {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[postID]
	if !ok {
		c = state.NewCollection(func(c Comment) string { return c.ID })
		f.comments[postID] = c
	}
	return c
}

func (f *Feed) hasComments(postID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.comments[postID]
	return ok
}

func upsert[T any](col *state.Collection[T], v T) {
	if !col.Replace(col.Key(v), v) {
		col.Insert(-1, v)
	}
}
