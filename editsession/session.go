package editsession

import (
	"context"
	"image"
	"time"

	"github.com/lumetric/darkroom-engine-go/cssfilter"
	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/history"
	"github.com/lumetric/darkroom-engine-go/pixelengine"
	"github.com/lumetric/darkroom-engine-go/projection"
	"github.com/lumetric/darkroom-engine-go/rendercache"
	"github.com/lumetric/darkroom-engine-go/snapshot"
)

// Operation names used for logging, metrics and tracing.
const (
	opApplyEdit           = "ApplyEdit"
	opGetEditHistory      = "GetEditHistory"
	opGetCurrentEditState = "GetCurrentEditState"
	opUndoEdit            = "UndoEdit"
	opRedoEdit            = "RedoEdit"
	opResetEdits          = "ResetEdits"
	opGetEventTimeline    = "GetEventTimeline"
	opCreateSnapshot      = "CreateSnapshot"
	opGetSnapshots        = "GetSnapshots"
	opRestoreToEvent      = "RestoreToEvent"
	opRestoreToSnapshot   = "RestoreToSnapshot"
	opDeleteSnapshot      = "DeleteSnapshot"
	opCountEvents         = "CountEventsSinceImport"
	opComputeCSSFilters   = "ComputeCSSFilters"
	opGetRenderInfo       = "GetRenderInfo"
	opRenderPixels        = "RenderPixels"
)

// Session is the command surface of the edit engine: it wires the event log,
// history controller, snapshot manager, render cache, filter mapper and pixel
// engine into the operations consumed by backend and presentation
// collaborators.
//
// The render cache is owned by the session and shares its lifecycle; it is an
// explicitly constructed object, not process-global state, so sessions stay
// independently testable and resettable.
type Session struct {
	store       editlog.Store
	cache       *rendercache.Cache
	controller  *history.Controller
	snapshotMgr *snapshot.Manager
	pixels      *pixelengine.Engine
	renderInfo  RenderInfoProvider

	cacheCapacity    int
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
	contextualLogger ContextualLogger
	logger           Logger
}

// Option defines a functional option for configuring Session.
type Option func(*Session) error

// WithLogging sets the basic logger for the Session.
func WithLogging(logger Logger) Option {
	return func(s *Session) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogging sets the context-aware logger for the Session.
func WithContextualLogging(logger ContextualLogger) Option {
	return func(s *Session) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Session.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Session) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Session.
func WithTracing(collector TracingCollector) Option {
	return func(s *Session) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithCacheCapacity overrides the render cache capacity.
func WithCacheCapacity(capacity int) Option {
	return func(s *Session) error {
		s.cacheCapacity = capacity
		return nil
	}
}

// WithPixelEngine replaces the default pixel engine, e.g. to inject an
// alternative compute module loader.
func WithPixelEngine(engine *pixelengine.Engine) Option {
	return func(s *Session) error {
		s.pixels = engine
		return nil
	}
}

// WithRenderInfoProvider sets the collaborator that supplies per-asset
// render geometry for GetRenderInfo.
func WithRenderInfoProvider(provider RenderInfoProvider) Option {
	return func(s *Session) error {
		s.renderInfo = provider
		return nil
	}
}

// NewSession creates a session over the given event and snapshot stores.
func NewSession(store editlog.Store, snapshots snapshot.Store, options ...Option) (*Session, error) {
	s := &Session{
		store:         store,
		cacheCapacity: rendercache.DefaultCapacity,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	s.cache = rendercache.New(s.cacheCapacity)
	s.controller = history.NewController(store, s.cache)
	s.snapshotMgr = snapshot.NewManager(snapshots, store, s.controller)

	if s.pixels == nil {
		s.pixels = pixelengine.NewEngine()
	}

	return s, nil
}

// ApplyEdit appends a new active event to the asset's log and returns the
// recomputed projection with undo/redo flags and the active event count.
func (s *Session) ApplyEdit(ctx context.Context, assetID string, eventType string, payloadJSON []byte) (history.Result, error) {
	finish := s.startOperation(&ctx, opApplyEdit, assetID)

	result, err := s.controller.Apply(ctx, assetID, eventType, payloadJSON)
	finish(err, result.NothingToDo)

	return result, err
}

// GetEditHistory returns the asset's last limit events, active and inactive,
// newest first, for display. A limit <= 0 returns everything.
func (s *Session) GetEditHistory(ctx context.Context, assetID string, limit int) (editlog.Events, error) {
	finish := s.startOperation(&ctx, opGetEditHistory, assetID)

	events, err := s.store.EventsForAsset(ctx, assetID)
	finish(err, false)
	if err != nil {
		return nil, err
	}

	// newest first
	reversed := make(editlog.Events, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		reversed = append(reversed, events[i])
	}

	if limit > 0 && len(reversed) > limit {
		reversed = reversed[:limit]
	}

	return reversed, nil
}

// GetCurrentEditState replays the asset's active events into its projection.
func (s *Session) GetCurrentEditState(ctx context.Context, assetID string) (projection.EditState, error) {
	finish := s.startOperation(&ctx, opGetCurrentEditState, assetID)

	events, err := s.store.EventsForAsset(ctx, assetID)
	finish(err, false)
	if err != nil {
		return projection.EditState{}, err
	}

	return projection.Project(events), nil
}

// UndoEdit deactivates the most recent active event.
func (s *Session) UndoEdit(ctx context.Context, assetID string) (history.Result, error) {
	finish := s.startOperation(&ctx, opUndoEdit, assetID)

	result, err := s.controller.Undo(ctx, assetID)
	finish(err, result.NothingToDo)

	return result, err
}

// RedoEdit reactivates the given previously-undone event.
func (s *Session) RedoEdit(ctx context.Context, assetID string, eventID string) (history.Result, error) {
	finish := s.startOperation(&ctx, opRedoEdit, assetID)

	result, err := s.controller.Redo(ctx, assetID, eventID)
	finish(err, result.NothingToDo)

	return result, err
}

// ResetEdits erases all events for the asset.
func (s *Session) ResetEdits(ctx context.Context, assetID string) (history.Result, error) {
	finish := s.startOperation(&ctx, opResetEdits, assetID)

	result, err := s.controller.Reset(ctx, assetID)
	finish(err, false)

	return result, err
}

// RestoreToEvent restores the asset's state to the given event: everything up
// to and including it becomes active, everything later inactive.
func (s *Session) RestoreToEvent(ctx context.Context, assetID string, eventID string) (history.Result, error) {
	finish := s.startOperation(&ctx, opRestoreToEvent, assetID)

	result, err := s.controller.RestoreToEvent(ctx, assetID, eventID)
	finish(err, false)

	return result, err
}

// GetEventTimeline returns up to limit of the asset's most recent events in
// ascending sequence order.
func (s *Session) GetEventTimeline(ctx context.Context, assetID string, limit int) (editlog.Events, error) {
	finish := s.startOperation(&ctx, opGetEventTimeline, assetID)

	events, err := s.store.EventsForAsset(ctx, assetID)
	finish(err, false)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	return events, nil
}

// CreateSnapshot captures the asset's current log position under a name.
func (s *Session) CreateSnapshot(ctx context.Context, assetID string, name string, description string) (snapshot.Snapshot, error) {
	finish := s.startOperation(&ctx, opCreateSnapshot, assetID)

	snap, err := s.snapshotMgr.Create(ctx, assetID, name, description)
	finish(err, false)

	return snap, err
}

// GetSnapshots lists the asset's snapshots ordered by creation time.
func (s *Session) GetSnapshots(ctx context.Context, assetID string) ([]snapshot.Snapshot, error) {
	finish := s.startOperation(&ctx, opGetSnapshots, assetID)

	snaps, err := s.snapshotMgr.List(ctx, assetID)
	finish(err, false)

	return snaps, err
}

// RestoreToSnapshot restores the asset's state to a snapshot's log position.
func (s *Session) RestoreToSnapshot(ctx context.Context, snapshotID string) (history.Result, error) {
	finish := s.startOperation(&ctx, opRestoreToSnapshot, "")

	result, err := s.snapshotMgr.Restore(ctx, snapshotID)
	finish(err, false)

	return result, err
}

// DeleteSnapshot removes a snapshot record without touching any events.
func (s *Session) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	finish := s.startOperation(&ctx, opDeleteSnapshot, "")

	err := s.snapshotMgr.Delete(ctx, snapshotID)
	finish(err, false)

	return err
}

// CountEventsSinceImport returns how many events, active and inactive, were
// recorded for the asset at or after the given import time.
func (s *Session) CountEventsSinceImport(ctx context.Context, assetID string, importedAt time.Time) (int, error) {
	finish := s.startOperation(&ctx, opCountEvents, assetID)

	count, err := s.store.CountSince(ctx, assetID, importedAt)
	finish(err, false)

	return count, err
}

// ComputeCSSFilters returns the approximate filter-chain descriptor for the
// asset's current edit state, memoized in the render cache.
//
// The render path degrades rather than propagates: when the event log cannot
// be read, the neutral descriptor is returned so an unfiltered image is shown
// instead of nothing. The degradation is logged.
func (s *Session) ComputeCSSFilters(ctx context.Context, assetID string) string {
	finish := s.startOperation(&ctx, opComputeCSSFilters, assetID)

	events, err := s.store.EventsForAsset(ctx, assetID)
	if err != nil {
		finish(err, false)
		s.logDegradedFilter(ctx, assetID, err)
		return cssfilter.Neutral
	}

	state := projection.Project(events)
	fingerprint := state.Fingerprint()

	if descriptor, ok := s.cache.Get(assetID, fingerprint); ok {
		s.countCacheLookup(ctx, true)
		finish(nil, false)
		return descriptor
	}
	s.countCacheLookup(ctx, false)

	descriptor := cssfilter.Map(state).String()

	// Re-read before caching: a concurrent mutation may have moved the
	// projection while we computed. Stale results are discarded, not cached.
	if current, recheckErr := s.store.EventsForAsset(ctx, assetID); recheckErr == nil {
		if projection.Project(current).Fingerprint() == fingerprint {
			s.cache.Put(assetID, fingerprint, descriptor)
		}
	}

	finish(nil, false)

	return descriptor
}

// RenderPixels scales the source image to the target dimensions and applies
// the asset's full edit state at pixel level.
//
// Unlike the CSS path this propagates failures: when the compute module is
// unavailable the typed pixelengine.ErrComputeUnavailable is returned so the
// caller can deliberately choose the approximate fallback.
func (s *Session) RenderPixels(
	ctx context.Context,
	assetID string,
	src image.Image,
	targetWidth int,
	targetHeight int,
) (*image.RGBA, error) {

	finish := s.startOperation(&ctx, opRenderPixels, assetID)

	events, err := s.store.EventsForAsset(ctx, assetID)
	if err != nil {
		finish(err, false)
		return nil, err
	}

	rendered, err := s.pixels.ApplyScaled(ctx, src, targetWidth, targetHeight, projection.Project(events))
	finish(err, false)

	return rendered, err
}

// GetRenderInfo returns the asset's display geometry via the configured
// provider.
func (s *Session) GetRenderInfo(ctx context.Context, assetID string) (RenderInfo, error) {
	finish := s.startOperation(&ctx, opGetRenderInfo, assetID)

	if s.renderInfo == nil {
		finish(ErrRenderInfoUnavailable, false)
		return RenderInfo{}, ErrRenderInfoUnavailable
	}

	info, err := s.renderInfo.RenderInfoFor(ctx, assetID)
	finish(err, false)

	return info, err
}

// BenchmarkPixelPath reports the pixel kernel latency in milliseconds for the
// given dimensions, or -1 when the compute module is unavailable.
func (s *Session) BenchmarkPixelPath(width int, height int) float64 {
	return s.pixels.Benchmark(width, height)
}

// PixelEngine exposes the session's pixel engine, e.g. for module resets.
func (s *Session) PixelEngine() *pixelengine.Engine {
	return s.pixels
}

// CacheStats returns the render cache counters.
func (s *Session) CacheStats() rendercache.Stats {
	return s.cache.Stats()
}

// startOperation begins instrumentation for one operation and returns the
// completion callback. The context is replaced with the span-carrying one.
func (s *Session) startOperation(ctx *context.Context, operation string, assetID string) func(err error, noop bool) {
	start := time.Now()

	spanCtx, span := startOperationSpan(*ctx, s.tracingCollector, operation, assetID)
	*ctx = spanCtx

	logOperationStart(spanCtx, s.logger, s.contextualLogger, operation, assetID)

	return func(err error, noop bool) {
		duration := time.Since(start)

		status := StatusSuccess
		switch {
		case err != nil:
			status = statusForError(err)
		case noop:
			status = StatusNoop
		}

		recordOperationMetrics(spanCtx, s.metricsCollector, operation, status, duration)
		finishOperationSpan(s.tracingCollector, span, status, duration, err)

		if err != nil {
			logOperationError(spanCtx, s.logger, s.contextualLogger, operation, assetID, err)
			return
		}

		logOperationSuccess(spanCtx, s.logger, s.contextualLogger, operation, assetID, status, duration)
	}
}

func (s *Session) countCacheLookup(ctx context.Context, hit bool) {
	if s.metricsCollector == nil {
		return
	}

	metric := RenderCacheMissesMetric
	if hit {
		metric = RenderCacheHitsMetric
	}

	if contextualCollector, ok := s.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, nil)
		return
	}

	s.metricsCollector.IncrementCounter(metric, nil)
}

func (s *Session) logDegradedFilter(ctx context.Context, assetID string, err error) {
	args := []any{LogAttrAssetID, assetID, LogAttrError, err.Error()}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, LogMsgFilterComputeDegraded, args...)
	} else if s.logger != nil {
		s.logger.Warn(LogMsgFilterComputeDegraded, args...)
	}
}
