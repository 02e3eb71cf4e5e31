package optimistic

import (
	"errors"

	"github.com/dmitrymomot/socialsync/core/state"
)

// ApplyFunc is the local half of a Mutation.
type ApplyFunc = func() (revert func(), err error)

// Patch mutates entity id in col. restore copies the touched fields from the
// pre-mutation snapshot back onto the current value, leaving fields other
// mutations changed in the meantime alone. A nil restore puts the whole
// snapshot back.
func Patch[T any](col *state.Collection[T], id string, mutate func(*T), restore func(cur *T, before T)) ApplyFunc {
	return func() (func(), error) {
		before, _, ok := col.Update(id, mutate)
		if !ok {
			return nil, ErrNotFound
		}
		return func() {
			if restore == nil {
				col.Replace(id, before)
				return
			}
			col.Update(id, func(cur *T) { restore(cur, before) })
		}, nil
	}
}

// Insert splices placeholder into col at index (negative appends). Revert
// removes it again.
func Insert[T any](col *state.Collection[T], index int, placeholder T) ApplyFunc {
	return func() (func(), error) {
		col.Insert(index, placeholder)
		id := col.Key(placeholder)
		return func() { col.Remove(id) }, nil
	}
}

// Remove deletes id from col. Revert reinserts it at its former position.
// A missing id fails with ErrNotFound, so nothing that depends on the
// removal (such as a counter) is applied twice.
func Remove[T any](col *state.Collection[T], id string) ApplyFunc {
	return func() (func(), error) {
		removed, index, ok := col.Remove(id)
		if !ok {
			return nil, ErrNotFound
		}
		return func() { col.Insert(index, removed) }, nil
	}
}

// Chain applies steps in order. If one fails, the earlier ones are reverted
// and its error is returned. The combined revert runs in reverse order.
func Chain(steps ...ApplyFunc) ApplyFunc {
	return func() (func(), error) {
		reverts := make([]func(), 0, len(steps))
		undo := func() {
			for i := len(reverts) - 1; i >= 0; i-- {
				reverts[i]()
			}
		}
		for _, step := range steps {
			r, err := step()
			if err != nil {
				undo()
				return nil, err
			}
			if r != nil {
				reverts = append(reverts, r)
			}
		}
		return undo, nil
	}
}

// Optional turns ErrNotFound from step into a no-op, for side effects on
// entities that may not be loaded locally (a post counter while only the
// comment list is on screen).
func Optional(step ApplyFunc) ApplyFunc {
	return func() (func(), error) {
		r, err := step()
		if errors.Is(err, ErrNotFound) {
			return func() {}, nil
		}
		return r, err
	}
}
