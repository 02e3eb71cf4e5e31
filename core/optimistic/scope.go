package optimistic

import "sync/atomic"

// Scope is the "still mounted" flag of the view that started a mutation.
// After Close, completions skip their state writes; the request itself
// still runs to completion.
type Scope struct {
	closed atomic.Bool
}

// NewScope returns an open scope.
func NewScope() *Scope {
	return &Scope{}
}

// Close marks the scope as unmounted.
func (s *Scope) Close() {
	s.closed.Store(true)
}

// Active reports whether writes are still allowed. A nil scope is always active.
func (s *Scope) Active() bool {
	return s == nil || !s.closed.Load()
}
