package editsession

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// OperationDurationMetric tracks session operation execution duration (OpenTelemetry-compatible).
	OperationDurationMetric = "editsession_operation_duration_seconds"

	// OperationCallsMetric tracks total session operation calls.
	OperationCallsMetric = "editsession_operation_calls_total"

	// OperationNoopMetric tracks operations that had nothing to do.
	OperationNoopMetric = "editsession_noop_operations_total"

	// RenderCacheHitsMetric tracks render cache hits.
	RenderCacheHitsMetric = "editsession_render_cache_hits_total"

	// RenderCacheMissesMetric tracks render cache misses.
	RenderCacheMissesMetric = "editsession_render_cache_misses_total"

	// StatusSuccess indicates successful operation completion.
	StatusSuccess = "success"

	// StatusError indicates an operation processing error.
	StatusError = "error"

	// StatusNoop indicates no state change was needed.
	StatusNoop = "noop"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// LogMsgOperationStarted is logged when operation processing begins.
	LogMsgOperationStarted = "edit session operation started"

	// LogMsgOperationCompleted is logged when operation processing succeeds.
	LogMsgOperationCompleted = "edit session operation completed"

	// LogMsgOperationFailed is logged when operation processing fails.
	LogMsgOperationFailed = "edit session operation failed"

	// LogMsgFilterComputeDegraded is logged when a CSS filter computation
	// degrades to the neutral descriptor instead of failing the render.
	LogMsgFilterComputeDegraded = "css filter computation degraded to neutral"

	// LogAttrOperation identifies the operation in logs.
	LogAttrOperation = "operation"

	// LogAttrAssetID identifies the asset in logs.
	LogAttrAssetID = "asset_id"

	// LogAttrStatus indicates the operation processing status.
	LogAttrStatus = "status"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrError contains error details.
	LogAttrError = "error"

	// SpanNameOperation is the tracing span name for session operations.
	SpanNameOperation = "editsession.operation"
)

// Logger interface for operational logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// It follows the same dependency-free pattern as MetricsCollector and TracingCollector,
// allowing integration with any logging backend that supports context-based correlation.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting session performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for
// better tracing integration. This interface is optional - the session uses the
// context-aware methods when available, falling back to the base interface.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from
// session operations, integrable with any tracing backend.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// buildOperationLabels creates standard metric labels for session operations.
func buildOperationLabels(operation, status string) map[string]string {
	return map[string]string{
		LogAttrOperation: operation,
		LogAttrStatus:    status,
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds.
func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// recordOperationMetrics records duration and call counters for an operation.
// It handles both context-aware and basic metrics collectors automatically.
func recordOperationMetrics(
	ctx context.Context,
	collector MetricsCollector,
	operation string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := buildOperationLabels(operation, status)

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, OperationDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, OperationCallsMetric, labels)
	} else {
		collector.RecordDuration(OperationDurationMetric, duration, labels)
		collector.IncrementCounter(OperationCallsMetric, labels)
	}

	if status == StatusNoop {
		if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
			contextualCollector.IncrementCounterContext(ctx, OperationNoopMetric, labels)
		} else {
			collector.IncrementCounter(OperationNoopMetric, labels)
		}
	}
}

// startOperationSpan starts a distributed tracing span for a session operation.
// Returns the original context and nil span if tracing is disabled.
func startOperationSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	operation string,
	assetID string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	attrs := map[string]string{
		LogAttrOperation: operation,
		LogAttrAssetID:   assetID,
	}

	return tracingCollector.StartSpan(ctx, SpanNameOperation, attrs)
}

// finishOperationSpan completes a tracing span with the operation outcome.
func finishOperationSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// logOperationStart logs the beginning of operation processing.
func logOperationStart(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
	assetID string,
) {
	args := []any{LogAttrOperation, operation, LogAttrAssetID, assetID}

	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, LogMsgOperationStarted, args...)
	} else if logger != nil {
		logger.Debug(LogMsgOperationStarted, args...)
	}
}

// logOperationSuccess logs successful operation completion.
func logOperationSuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
	assetID string,
	status string,
	duration time.Duration,
) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrAssetID, assetID,
		LogAttrStatus, status,
		LogAttrDurationMS, toMilliseconds(duration),
	}

	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, LogMsgOperationCompleted, args...)
	} else if logger != nil {
		logger.Info(LogMsgOperationCompleted, args...)
	}
}

// logOperationError logs operation processing errors.
func logOperationError(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
	assetID string,
	err error,
) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrAssetID, assetID,
		LogAttrError, err.Error(),
	}

	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, LogMsgOperationFailed, args...)
	} else if logger != nil {
		logger.Error(LogMsgOperationFailed, args...)
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// statusForError maps an error to the status label recorded for the operation.
func statusForError(err error) string {
	switch {
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	default:
		return StatusError
	}
}
