// Package snapshot implements named checkpoints over the edit log.
//
// A snapshot is a pointer to a log position, not a materialized copy of the
// projection: restoring one replays active events up to its sequence and
// deactivates everything later, via the history controller. Deleting a
// snapshot removes the record only and never touches the underlying events.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/history"
)

var (
	// ErrEmptyName is returned when a snapshot is created without a name.
	ErrEmptyName = errors.New("snapshot name must not be empty")

	// ErrSnapshotNotFound is returned when a referenced snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Snapshot is a named, immutable reference to a position in the edit log.
type Snapshot struct {
	ID          uuid.UUID
	AssetID     string
	Name        string
	Description string
	AtSequence  editlog.SequenceNumberUint
	CreatedAt   time.Time
}

// Store is the storage contract for snapshot records.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	ByID(ctx context.Context, snapshotID string) (Snapshot, error)
	ForAsset(ctx context.Context, assetID string) ([]Snapshot, error)
	Delete(ctx context.Context, snapshotID string) error
}

// Manager creates, lists, restores and deletes snapshots.
type Manager struct {
	snapshots  Store
	events     editlog.Store
	controller *history.Controller
}

// NewManager creates a snapshot manager over the given stores and controller.
func NewManager(snapshots Store, events editlog.Store, controller *history.Controller) *Manager {
	return &Manager{
		snapshots:  snapshots,
		events:     events,
		controller: controller,
	}
}

// Create captures the asset's current log position under the given name.
// The name must not be empty; the description may be.
func (m *Manager) Create(ctx context.Context, assetID string, name string, description string) (Snapshot, error) {
	if name == "" {
		return Snapshot{}, ErrEmptyName
	}

	events, err := m.events.EventsForAsset(ctx, assetID)
	if err != nil {
		return Snapshot{}, err
	}

	atSequence := editlog.SequenceNumberUint(0)
	if len(events) > 0 {
		atSequence = events[len(events)-1].SequenceNumber
	}

	snap := Snapshot{
		ID:          uuid.New(),
		AssetID:     assetID,
		Name:        name,
		Description: description,
		AtSequence:  atSequence,
		CreatedAt:   time.Now(),
	}

	if err := m.snapshots.Save(ctx, snap); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Restore performs a restore-to-point at the snapshot's log position and
// returns the resulting projection and history flags.
func (m *Manager) Restore(ctx context.Context, snapshotID string) (history.Result, error) {
	snap, err := m.snapshots.ByID(ctx, snapshotID)
	if err != nil {
		return history.Result{}, err
	}

	return m.controller.RestoreToSequence(ctx, snap.AssetID, snap.AtSequence)
}

// List returns the asset's snapshots ordered by creation time.
func (m *Manager) List(ctx context.Context, assetID string) ([]Snapshot, error) {
	return m.snapshots.ForAsset(ctx, assetID)
}

// Delete removes the snapshot record. The underlying events are untouched,
// so deleting a snapshot never affects the current edit state.
func (m *Manager) Delete(ctx context.Context, snapshotID string) error {
	return m.snapshots.Delete(ctx, snapshotID)
}
