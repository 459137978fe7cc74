// Package history implements undo, redo and restore-to-point semantics over
// the edit log. Operations never delete events (except the explicit full
// reset); they flip active flags, so the full history stays auditable and
// recoverable.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/projection"
)

var (
	// ErrRedoOutOfOrder is returned when the redo target is not the next
	// inactive event after the active frontier. Redoing an arbitrary earlier
	// event would create gaps that make "last active" ambiguous.
	ErrRedoOutOfOrder = errors.New("redo target is not the next inactive event")
)

// Invalidator is the render-cache hook called after every history mutation.
type Invalidator interface {
	InvalidateAsset(assetID string)
}

// Result is returned by every mutating operation: the freshly recomputed
// projection plus the flags the caller needs to drive undo/redo affordances.
type Result struct {
	State            projection.EditState
	CanUndo          bool
	CanRedo          bool
	ActiveEventCount int

	// NothingToDo is set when the operation was a no-op, e.g. an undo with
	// no active event. No-ops are reported, not treated as errors.
	NothingToDo bool
}

// Controller serializes history mutations per asset and keeps the render
// cache coherent with the active-event set.
//
// Concurrent mutations on the same asset are serialized through a per-asset
// mutex because they mutate a shared ordered sequence of active flags.
// Mutations on different assets proceed in parallel.
type Controller struct {
	store editlog.Store
	cache Invalidator
	locks sync.Map // asset id -> *sync.Mutex
}

// NewController creates a history controller over the given store.
// The cache may be nil when no render cache is in play (e.g. in tests).
func NewController(store editlog.Store, cache Invalidator) *Controller {
	return &Controller{
		store: store,
		cache: cache,
	}
}

// Apply appends a new active event at the end of the asset's sequence.
// Always legal.
func (c *Controller) Apply(ctx context.Context, assetID string, eventType string, payloadJSON []byte) (Result, error) {
	event, err := editlog.BuildEvent(assetID, eventType, payloadJSON, time.Now())
	if err != nil {
		return Result{}, err
	}

	unlock := c.lockAsset(assetID)
	defer unlock()

	if _, err := c.store.Append(ctx, event); err != nil {
		return Result{}, err
	}

	return c.finishMutation(ctx, assetID)
}

// Undo flips the most recent active event to inactive.
// Reports NothingToDo when no active event exists.
func (c *Controller) Undo(ctx context.Context, assetID string) (Result, error) {
	unlock := c.lockAsset(assetID)
	defer unlock()

	events, err := c.store.EventsForAsset(ctx, assetID)
	if err != nil {
		return Result{}, err
	}

	last, ok := lastActive(events)
	if !ok {
		result := resultFrom(events)
		result.NothingToDo = true
		return result, nil
	}

	if err := c.store.SetEventActive(ctx, assetID, last.ID.String(), false); err != nil {
		return Result{}, err
	}

	return c.finishMutation(ctx, assetID)
}

// Redo flips a previously undone event back to active.
//
// It is only legal for the correct next inactive event in sequence order
// relative to the current active frontier; any other target is rejected with
// ErrRedoOutOfOrder. An unknown event id yields editlog.ErrEventNotFound,
// and a log with nothing redoable reports NothingToDo.
func (c *Controller) Redo(ctx context.Context, assetID string, eventID string) (Result, error) {
	unlock := c.lockAsset(assetID)
	defer unlock()

	events, err := c.store.EventsForAsset(ctx, assetID)
	if err != nil {
		return Result{}, err
	}

	if !containsEvent(events, eventID) {
		return Result{}, editlog.ErrEventNotFound
	}

	next, ok := nextRedoable(events)
	if !ok {
		result := resultFrom(events)
		result.NothingToDo = true
		return result, nil
	}

	if next.ID.String() != eventID {
		return Result{}, ErrRedoOutOfOrder
	}

	if err := c.store.SetEventActive(ctx, assetID, eventID, true); err != nil {
		return Result{}, err
	}

	return c.finishMutation(ctx, assetID)
}

// RestoreToEvent activates every event up to and including the target and
// deactivates every later event, atomically. This is the only operation that
// can flip multiple events in both directions in one step.
func (c *Controller) RestoreToEvent(ctx context.Context, assetID string, eventID string) (Result, error) {
	unlock := c.lockAsset(assetID)
	defer unlock()

	events, err := c.store.EventsForAsset(ctx, assetID)
	if err != nil {
		return Result{}, err
	}

	target, ok := findEvent(events, eventID)
	if !ok {
		return Result{}, editlog.ErrEventNotFound
	}

	if err := c.store.SetActiveThrough(ctx, assetID, target.SequenceNumber); err != nil {
		return Result{}, err
	}

	return c.finishMutation(ctx, assetID)
}

// RestoreToSequence is RestoreToEvent addressed by log position instead of
// event id. Sequence zero deactivates every event. Snapshot restore is built
// on this entry point.
func (c *Controller) RestoreToSequence(ctx context.Context, assetID string, seq editlog.SequenceNumberUint) (Result, error) {
	unlock := c.lockAsset(assetID)
	defer unlock()

	if err := c.store.SetActiveThrough(ctx, assetID, seq); err != nil {
		return Result{}, err
	}

	return c.finishMutation(ctx, assetID)
}

// Reset erases all events for the asset, returning the projection to the
// neutral defaults. This is the only operation that deletes events.
func (c *Controller) Reset(ctx context.Context, assetID string) (Result, error) {
	unlock := c.lockAsset(assetID)
	defer unlock()

	if err := c.store.EraseAsset(ctx, assetID); err != nil {
		return Result{}, err
	}

	return c.finishMutation(ctx, assetID)
}

// CurrentResult recomputes the projection and flags without mutating anything.
func (c *Controller) CurrentResult(ctx context.Context, assetID string) (Result, error) {
	events, err := c.store.EventsForAsset(ctx, assetID)
	if err != nil {
		return Result{}, err
	}

	return resultFrom(events), nil
}

// finishMutation invalidates the asset's cache entries and recomputes the
// result from the post-mutation event set. Must be called with the asset lock
// held so the recomputed projection cannot interleave with another mutation.
func (c *Controller) finishMutation(ctx context.Context, assetID string) (Result, error) {
	if c.cache != nil {
		c.cache.InvalidateAsset(assetID)
	}

	events, err := c.store.EventsForAsset(ctx, assetID)
	if err != nil {
		return Result{}, err
	}

	return resultFrom(events), nil
}

func (c *Controller) lockAsset(assetID string) func() {
	lock, _ := c.locks.LoadOrStore(assetID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

func resultFrom(events editlog.Events) Result {
	activeCount := 0
	for _, event := range events {
		if event.IsActive {
			activeCount++
		}
	}

	_, canRedo := nextRedoable(events)

	return Result{
		State:            projection.Project(events),
		CanUndo:          activeCount > 0,
		CanRedo:          canRedo,
		ActiveEventCount: activeCount,
	}
}

// lastActive returns the active event with the highest sequence number.
func lastActive(events editlog.Events) (editlog.Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsActive {
			return events[i], true
		}
	}

	return editlog.Event{}, false
}

// nextRedoable returns the inactive event with the lowest sequence number
// above the active frontier, the only event a redo may legally target.
func nextRedoable(events editlog.Events) (editlog.Event, bool) {
	frontier := editlog.SequenceNumberUint(0)
	if last, ok := lastActive(events); ok {
		frontier = last.SequenceNumber
	}

	for _, event := range events {
		if !event.IsActive && event.SequenceNumber > frontier {
			return event, true
		}
	}

	return editlog.Event{}, false
}

func findEvent(events editlog.Events, eventID string) (editlog.Event, bool) {
	for _, event := range events {
		if event.ID.String() == eventID {
			return event, true
		}
	}

	return editlog.Event{}, false
}

func containsEvent(events editlog.Events, eventID string) bool {
	_, ok := findEvent(events, eventID)
	return ok
}
