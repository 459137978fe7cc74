package editsession_test

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumetric/darkroom-engine-go/cssfilter"
	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/editlog/memoryengine"
	"github.com/lumetric/darkroom-engine-go/editsession"
	"github.com/lumetric/darkroom-engine-go/history"
	"github.com/lumetric/darkroom-engine-go/pixelengine"
	"github.com/lumetric/darkroom-engine-go/snapshot"
)

const assetID = "asset-under-test"

func Test_ApplyEdit_ThenGetCurrentEditState(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)

	// act
	result, err := session.ApplyEdit(ctx, assetID, editlog.EventTypeEdited, []byte(`{"exposure": 0.4, "shadows": 0.2}`))
	assert.NoError(t, err)

	state, err := session.GetCurrentEditState(ctx, assetID)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, result.State, state)
	assert.InDelta(t, 0.4, state.Exposure, 1e-9)
	assert.InDelta(t, 0.2, state.Shadows, 1e-9)
}

func Test_GetEditHistory_ReturnsNewestFirstIncludingInactive(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.1}`, `{"exposure": 0.2}`, `{"exposure": 0.3}`)

	_, err := session.UndoEdit(ctx, assetID)
	assert.NoError(t, err)

	// act
	events, err := session.GetEditHistory(ctx, assetID, 2)

	// assert
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, uint(3), events[0].SequenceNumber, "newest first")
	assert.False(t, events[0].IsActive, "undone events still show up in the history")
	assert.Equal(t, uint(2), events[1].SequenceNumber)
}

func Test_GetEventTimeline_ReturnsTheMostRecentTailInOrder(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.1}`, `{"exposure": 0.2}`, `{"exposure": 0.3}`)

	// act
	events, err := session.GetEventTimeline(ctx, assetID, 2)

	// assert
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, uint(2), events[0].SequenceNumber, "oldest first within the tail")
	assert.Equal(t, uint(3), events[1].SequenceNumber)
}

func Test_UndoEdit_ThenRedoEdit_RoundTrip(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.5}`, `{"contrast": -0.2}`)

	before, err := session.GetCurrentEditState(ctx, assetID)
	assert.NoError(t, err)

	// act
	undone, err := session.UndoEdit(ctx, assetID)
	assert.NoError(t, err)
	assert.True(t, undone.CanRedo)

	timeline, err := session.GetEventTimeline(ctx, assetID, 0)
	assert.NoError(t, err)

	redone, err := session.RedoEdit(ctx, assetID, timeline[len(timeline)-1].ID.String())

	// assert
	assert.NoError(t, err)
	assert.Equal(t, before, redone.State)
}

func Test_RedoEdit_OutOfOrderTargetIsRejected(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.1}`, `{"exposure": 0.2}`)

	_, err := session.UndoEdit(ctx, assetID)
	assert.NoError(t, err)
	_, err = session.UndoEdit(ctx, assetID)
	assert.NoError(t, err)

	timeline, err := session.GetEventTimeline(ctx, assetID, 0)
	assert.NoError(t, err)

	// act: the second event is not the next inactive one after the frontier
	_, err = session.RedoEdit(ctx, assetID, timeline[1].ID.String())

	// assert
	assert.ErrorIs(t, err, history.ErrRedoOutOfOrder)
}

func Test_ResetEdits_ReturnsTheAssetToDefaults(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.5}`)

	// act
	result, err := session.ResetEdits(ctx, assetID)

	// assert
	assert.NoError(t, err)
	assert.True(t, result.State.IsDefault())

	events, err := session.GetEditHistory(ctx, assetID, 0)
	assert.NoError(t, err)
	assert.Empty(t, events, "reset erases the log")
}

func Test_SnapshotLifecycle_ThroughTheSession(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.3}`)

	snap, err := session.CreateSnapshot(ctx, assetID, "warm pass", "")
	assert.NoError(t, err)

	givenAppliedEdits(t, ctx, session, `{"exposure": 1.5}`)

	// act
	restored, err := session.RestoreToSnapshot(ctx, snap.ID.String())
	assert.NoError(t, err)

	// assert
	assert.InDelta(t, 0.3, restored.State.Exposure, 1e-9)

	listed, err := session.GetSnapshots(ctx, assetID)
	assert.NoError(t, err)
	assert.Len(t, listed, 1)

	assert.NoError(t, session.DeleteSnapshot(ctx, snap.ID.String()))

	state, err := session.GetCurrentEditState(ctx, assetID)
	assert.NoError(t, err)
	assert.InDelta(t, 0.3, state.Exposure, 1e-9, "deleting the snapshot leaves the state alone")
}

func Test_CountEventsSinceImport(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	importedAt := time.Now().Add(-time.Hour)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.1}`, `{"exposure": 0.2}`)

	// act
	count, err := session.CountEventsSinceImport(ctx, assetID, importedAt)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func Test_ComputeCSSFilters_MapsAndCachesTheDescriptor(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.5, "saturation": 1.2}`)

	// act
	first := session.ComputeCSSFilters(ctx, assetID)
	second := session.ComputeCSSFilters(ctx, assetID)

	// assert
	assert.Equal(t, "brightness(1.15) saturate(1.20)", first)
	assert.Equal(t, first, second)

	stats := session.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits, "the second computation must come from the cache")
	assert.Equal(t, uint64(1), stats.Misses)
}

func Test_ComputeCSSFilters_ForAnUneditedAsset(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)

	// act
	descriptor := session.ComputeCSSFilters(ctx, "never-edited")

	// assert
	assert.Equal(t, cssfilter.Neutral, descriptor)
}

func Test_ComputeCSSFilters_DegradesToNeutralWhenTheStoreFails(t *testing.T) {
	// arrange
	logger := &recordingLogger{}
	session, err := editsession.NewSession(
		&failingStore{err: errors.New("connection lost")},
		snapshot.NewMemoryStore(),
		editsession.WithLogging(logger),
	)
	assert.NoError(t, err)

	// act
	descriptor := session.ComputeCSSFilters(context.Background(), assetID)

	// assert
	assert.Equal(t, cssfilter.Neutral, descriptor, "a failed lookup shows an unfiltered image, not nothing")
	assert.Contains(t, logger.warnMessages, editsession.LogMsgFilterComputeDegraded)
}

func Test_ApplyEdit_InvalidatesTheCachedDescriptor(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 0.5}`)

	stale := session.ComputeCSSFilters(ctx, assetID)
	assert.Equal(t, "brightness(1.15)", stale)

	// act
	givenAppliedEdits(t, ctx, session, `{"exposure": 1.0}`)
	fresh := session.ComputeCSSFilters(ctx, assetID)

	// assert
	assert.Equal(t, "brightness(1.30)", fresh)
	assert.Equal(t, uint64(2), session.CacheStats().Misses, "the mutation invalidated the old entry")
}

func Test_RenderPixels_AppliesTheFullEditState(t *testing.T) {
	// arrange
	ctx := context.Background()
	session := givenSession(t)
	givenAppliedEdits(t, ctx, session, `{"exposure": 1.0}`)

	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 128
	}

	// act
	rendered, err := session.RenderPixels(ctx, assetID, src, 8, 8)

	// assert
	assert.NoError(t, err)
	assert.Greater(t, rendered.Pix[0], uint8(128), "positive exposure must brighten the output")
}

func Test_RenderPixels_PropagatesComputeUnavailable(t *testing.T) {
	// arrange
	engine := pixelengine.NewEngine(pixelengine.WithLoader(func() (pixelengine.ComputeModule, error) {
		return nil, errors.New("no compute backend")
	}))

	session, err := editsession.NewSession(
		memoryengine.NewStore(),
		snapshot.NewMemoryStore(),
		editsession.WithPixelEngine(engine),
	)
	assert.NoError(t, err)

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))

	// act
	_, err = session.RenderPixels(context.Background(), assetID, src, 4, 4)

	// assert: the pixel path never silently downgrades to approximate output
	assert.ErrorIs(t, err, pixelengine.ErrComputeUnavailable)
}

func Test_GetRenderInfo_WithoutAProvider(t *testing.T) {
	// arrange
	session := givenSession(t)

	// act
	_, err := session.GetRenderInfo(context.Background(), assetID)

	// assert
	assert.ErrorIs(t, err, editsession.ErrRenderInfoUnavailable)
}

func Test_GetRenderInfo_WithAProvider(t *testing.T) {
	// arrange
	provider := staticRenderInfo{info: editsession.RenderInfo{Width: 6000, Height: 4000, Format: "raf", Orientation: 1}}

	session, err := editsession.NewSession(
		memoryengine.NewStore(),
		snapshot.NewMemoryStore(),
		editsession.WithRenderInfoProvider(provider),
	)
	assert.NoError(t, err)

	// act
	info, err := session.GetRenderInfo(context.Background(), assetID)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, provider.info, info)
}

func Test_Operations_RecordMetricsWithStatusLabels(t *testing.T) {
	// arrange
	ctx := context.Background()
	collector := newRecordingMetricsCollector()

	session, err := editsession.NewSession(
		memoryengine.NewStore(),
		snapshot.NewMemoryStore(),
		editsession.WithMetrics(collector),
	)
	assert.NoError(t, err)

	// act
	_, err = session.ApplyEdit(ctx, assetID, editlog.EventTypeEdited, []byte(`{"exposure": 0.4}`))
	assert.NoError(t, err)

	_, err = session.UndoEdit(ctx, assetID)
	assert.NoError(t, err)

	_, err = session.UndoEdit(ctx, assetID) // nothing left to undo
	assert.NoError(t, err)

	// assert
	assert.Equal(t, 3, collector.counterTotal(editsession.OperationCallsMetric))
	assert.Equal(t, 1, collector.counterWithStatus(editsession.OperationCallsMetric, editsession.StatusNoop))
	assert.Equal(t, 1, collector.counterTotal(editsession.OperationNoopMetric))
	assert.Equal(t, 3, collector.durationCount(editsession.OperationDurationMetric))
}

func givenSession(t *testing.T) *editsession.Session {
	t.Helper()

	session, err := editsession.NewSession(memoryengine.NewStore(), snapshot.NewMemoryStore())
	assert.NoError(t, err, "creating the session failed")

	return session
}

func givenAppliedEdits(t *testing.T, ctx context.Context, session *editsession.Session, payloads ...string) {
	t.Helper()

	for i, payload := range payloads {
		_, err := session.ApplyEdit(ctx, assetID, editlog.EventTypeEdited, []byte(payload))
		assert.NoError(t, err, "applying edit %d failed", i)
	}
}
