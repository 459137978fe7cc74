package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/editlog/memoryengine"
)

func Test_Append_AssignsAscendingSequenceNumbersPerAsset(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()

	// act
	seqA1 := givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)
	seqA2 := givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.2}`)
	seqB1 := givenEventWasAppended(t, ctx, store, "asset-b", `{"contrast": 0.5}`)

	// assert
	assert.Equal(t, uint(1), seqA1)
	assert.Equal(t, uint(2), seqA2)
	assert.Equal(t, uint(1), seqB1, "sequence numbers are per asset")
}

func Test_EventsForAsset_ReturnsCopyInSequenceOrder(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.2}`)

	// act
	events, err := store.EventsForAsset(ctx, "asset-a")

	// assert
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Less(t, events[0].SequenceNumber, events[1].SequenceNumber)

	// mutating the returned slice must not leak into the store
	events[0].IsActive = false
	reread, err := store.EventsForAsset(ctx, "asset-a")
	assert.NoError(t, err)
	assert.True(t, reread[0].IsActive)
}

func Test_SetEventActive_FlipsTheFlag(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)

	events, err := store.EventsForAsset(ctx, "asset-a")
	assert.NoError(t, err)

	// act
	err = store.SetEventActive(ctx, "asset-a", events[0].ID.String(), false)

	// assert
	assert.NoError(t, err)

	reread, err := store.EventsForAsset(ctx, "asset-a")
	assert.NoError(t, err)
	assert.False(t, reread[0].IsActive)
	assert.Len(t, reread, 1, "deactivation never removes the event")
}

func Test_SetEventActive_WhenEventIsUnknown(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)

	// act
	err := store.SetEventActive(ctx, "asset-a", "00000000-0000-0000-0000-000000000000", false)

	// assert
	assert.ErrorIs(t, err, editlog.ErrEventNotFound)
}

func Test_SetActiveThrough_ActivatesPrefixAndDeactivatesRest(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.2}`)
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.3}`)

	// act
	err := store.SetActiveThrough(ctx, "asset-a", 2)

	// assert
	assert.NoError(t, err)

	events, err := store.EventsForAsset(ctx, "asset-a")
	assert.NoError(t, err)
	assert.True(t, events[0].IsActive)
	assert.True(t, events[1].IsActive)
	assert.False(t, events[2].IsActive)
}

func Test_SetActiveThrough_WithZero_DeactivatesEverything(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.2}`)

	// act
	err := store.SetActiveThrough(ctx, "asset-a", 0)

	// assert
	assert.NoError(t, err)

	events, err := store.EventsForAsset(ctx, "asset-a")
	assert.NoError(t, err)
	for _, event := range events {
		assert.False(t, event.IsActive)
	}
}

func Test_EraseAsset_RemovesEventsAndResetsSequence(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.1}`)
	givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.2}`)

	// act
	err := store.EraseAsset(ctx, "asset-a")

	// assert
	assert.NoError(t, err)

	events, err := store.EventsForAsset(ctx, "asset-a")
	assert.NoError(t, err)
	assert.Empty(t, events)

	seq := givenEventWasAppended(t, ctx, store, "asset-a", `{"exposure": 0.3}`)
	assert.Equal(t, uint(1), seq, "erase resets the sequence counter")
}

func Test_CountSince_CountsEventsAtOrAfterTheCutoff(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{0, time.Minute, 2 * time.Minute} {
		event, err := editlog.BuildEvent("asset-a", editlog.EventTypeEdited, []byte(`{"exposure": 0.1}`), base.Add(offset))
		assert.NoError(t, err, "building event %d failed", i)

		_, err = store.Append(ctx, event)
		assert.NoError(t, err)
	}

	// act
	count, err := store.CountSince(ctx, "asset-a", base.Add(time.Minute))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, count, "cutoff is inclusive")
}

func givenEventWasAppended(
	t *testing.T,
	ctx context.Context,
	store *memoryengine.Store,
	assetID string,
	payloadJSON string,
) editlog.SequenceNumberUint {

	t.Helper()

	event, err := editlog.BuildEvent(assetID, editlog.EventTypeEdited, []byte(payloadJSON), time.Now())
	assert.NoError(t, err, "building the event failed")

	seq, err := store.Append(ctx, event)
	assert.NoError(t, err, "appending the event failed")

	return seq
}
