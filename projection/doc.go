// Package projection implements the replay engine that folds an ordered
// sequence of edit events into the current edit state of an asset.
//
// The projection is never the source of truth. It is always derivable from
// the active event set, so replaying the same events twice yields the same
// state, and rebuilding after an undo or restore is just another fold.
package projection
