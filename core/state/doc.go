// Package state holds the application's reactive stores: a single Value and
// an ordered Collection of entities. Both are safe for concurrent use and
// publish every write to subscribers through pkg/broadcast.
//
// Writes are funneled through named methods so that the optimistic mutation
// coordinator can snapshot and restore an entity around a network call:
//
//	before, _, ok := posts.Update(id, func(p *Post) {
//		p.IsLiked = !p.IsLiked
//	})
//
// Collections also carry a store-level error that views render inline.
package state
