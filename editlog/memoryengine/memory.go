package memoryengine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lumetric/darkroom-engine-go/editlog"
)

// Store is an in-memory implementation of editlog.Store.
//
// It is safe for concurrent use: all reads copy the stored events under a
// read lock, so callers always observe a consistent snapshot of the
// active-event set even while mutations are in flight.
type Store struct {
	mu      sync.RWMutex
	events  map[string]editlog.Events // keyed by asset id, ascending sequence order
	nextSeq map[string]editlog.SequenceNumberUint
}

// NewStore creates an empty in-memory event store.
func NewStore() *Store {
	return &Store{
		events:  make(map[string]editlog.Events),
		nextSeq: make(map[string]editlog.SequenceNumberUint),
	}
}

// Append stores the event and assigns the next sequence number for its asset.
func (s *Store) Append(_ context.Context, event editlog.Event) (editlog.SequenceNumberUint, error) {
	if event.AssetID == "" {
		return 0, editlog.ErrEmptyAssetID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq[event.AssetID] + 1
	s.nextSeq[event.AssetID] = seq

	event.SequenceNumber = seq
	s.events[event.AssetID] = append(s.events[event.AssetID], event)

	return seq, nil
}

// EventsForAsset returns a copy of all events for the asset in ascending sequence order.
func (s *Store) EventsForAsset(_ context.Context, assetID string) (editlog.Events, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.events[assetID]), nil
}

// SetEventActive flips the active flag of a single event.
func (s *Store) SetEventActive(_ context.Context, assetID string, eventID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.events[assetID]
	for i := range stored {
		if stored[i].ID.String() == eventID {
			stored[i].IsActive = active
			return nil
		}
	}

	return editlog.ErrEventNotFound
}

// SetActiveThrough activates events up to and including throughSeq and
// deactivates everything later, in one atomic step.
func (s *Store) SetActiveThrough(_ context.Context, assetID string, throughSeq editlog.SequenceNumberUint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.events[assetID]
	for i := range stored {
		stored[i].IsActive = stored[i].SequenceNumber <= throughSeq
	}

	return nil
}

// EraseAsset removes all events for the asset and resets its sequence counter.
func (s *Store) EraseAsset(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, assetID)
	delete(s.nextSeq, assetID)

	return nil
}

// CountSince returns the number of events for the asset that occurred at or after since.
func (s *Store) CountSince(_ context.Context, assetID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, event := range s.events[assetID] {
		if !event.OccurredAt.Before(since) {
			count++
		}
	}

	return count, nil
}
