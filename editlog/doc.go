// Package editlog provides the core abstractions for the append-only
// edit-event log that every other component of the engine is built on.
//
// Edit events are immutable once appended: their payload and ordering never
// change. The only mutation the log ever applies to a stored event is a flip
// of its active flag, which is how undo, redo and restore are implemented
// without losing history.
//
// Key types:
//   - Event: a single stored edit event
//   - Store: the storage contract implemented by the engines
//
// Two engines ship with the module:
//   - memoryengine: mutex-guarded in-memory store for tests and embedding
//   - postgresengine: Postgres-backed store with pgx, sqlx and sql.DB adapters
//
// Common usage pattern:
//
//	event, err := editlog.BuildEvent(assetID, editlog.EventTypeEdited, payloadJSON, time.Now())
//	if err != nil {
//		// handle error
//	}
//
//	seq, err := store.Append(ctx, event)
package editlog
