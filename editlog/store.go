package editlog

import (
	"context"
	"time"
)

// Store is the storage contract for the append-only edit log.
//
// Implementations must guarantee that reads observe a consistent snapshot of
// the active-event set: a read that races with a concurrent mutation returns
// either the pre- or post-mutation view, never a torn mix.
type Store interface {
	// Append stores an event and assigns its sequence number, which is
	// returned. The sequence numbers of a given asset are strictly monotonic.
	Append(ctx context.Context, event Event) (SequenceNumberUint, error)

	// EventsForAsset returns all events for the asset, active and inactive,
	// in ascending sequence order. An asset without events yields an empty
	// slice, not an error.
	EventsForAsset(ctx context.Context, assetID string) (Events, error)

	// SetEventActive flips the active flag of a single event.
	// Returns ErrEventNotFound if the event does not exist.
	SetEventActive(ctx context.Context, assetID string, eventID string, active bool) error

	// SetActiveThrough atomically activates every event of the asset with a
	// sequence number up to and including throughSeq and deactivates every
	// event with a higher sequence number. throughSeq zero deactivates all.
	SetActiveThrough(ctx context.Context, assetID string, throughSeq SequenceNumberUint) error

	// EraseAsset removes all events for the asset. This is the only code
	// path that ever deletes events and backs the explicit full reset.
	EraseAsset(ctx context.Context, assetID string) error

	// CountSince returns the number of events for the asset that occurred
	// at or after the given time, active and inactive.
	CountSince(ctx context.Context, assetID string, since time.Time) (int, error)
}
