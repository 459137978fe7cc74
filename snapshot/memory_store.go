package snapshot

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-memory implementation of Store, safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots []Snapshot // insertion order = creation order
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the snapshot record.
func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snap)

	return nil
}

// ByID returns the snapshot with the given id.
func (s *MemoryStore) ByID(_ context.Context, snapshotID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.snapshots {
		if snap.ID.String() == snapshotID {
			return snap, nil
		}
	}

	return Snapshot{}, ErrSnapshotNotFound
}

// ForAsset returns the asset's snapshots ordered by creation time.
func (s *MemoryStore) ForAsset(_ context.Context, assetID string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Snapshot, 0)
	for _, snap := range s.snapshots {
		if snap.AssetID == assetID {
			result = append(result, snap)
		}
	}

	slices.SortStableFunc(result, func(a, b Snapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return result, nil
}

// Delete removes the snapshot record.
func (s *MemoryStore) Delete(_ context.Context, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, snap := range s.snapshots {
		if snap.ID.String() == snapshotID {
			s.snapshots = slices.Delete(s.snapshots, i, i+1)
			return nil
		}
	}

	return ErrSnapshotNotFound
}
