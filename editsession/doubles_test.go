package editsession_test

import (
	"context"
	"sync"
	"time"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/editsession"
)

// failingStore is an editlog.Store whose every operation fails with err.
type failingStore struct {
	err error
}

func (s *failingStore) Append(_ context.Context, _ editlog.Event) (editlog.SequenceNumberUint, error) {
	return 0, s.err
}

func (s *failingStore) EventsForAsset(_ context.Context, _ string) (editlog.Events, error) {
	return nil, s.err
}

func (s *failingStore) SetEventActive(_ context.Context, _ string, _ string, _ bool) error {
	return s.err
}

func (s *failingStore) SetActiveThrough(_ context.Context, _ string, _ editlog.SequenceNumberUint) error {
	return s.err
}

func (s *failingStore) EraseAsset(_ context.Context, _ string) error {
	return s.err
}

func (s *failingStore) CountSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return 0, s.err
}

// recordingLogger captures log messages per level.
type recordingLogger struct {
	mu           sync.Mutex
	warnMessages []string
}

func (l *recordingLogger) Debug(_ string, _ ...any) {}

func (l *recordingLogger) Info(_ string, _ ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warnMessages = append(l.warnMessages, msg)
}

func (l *recordingLogger) Error(_ string, _ ...any) {}

// staticRenderInfo serves a fixed RenderInfo for every asset.
type staticRenderInfo struct {
	info editsession.RenderInfo
}

func (p staticRenderInfo) RenderInfoFor(_ context.Context, _ string) (editsession.RenderInfo, error) {
	return p.info, nil
}

// recordingMetricsCollector captures counter increments and duration samples.
type recordingMetricsCollector struct {
	mu        sync.Mutex
	counters  []recordedMetric
	durations []recordedMetric
}

type recordedMetric struct {
	metric string
	labels map[string]string
}

func newRecordingMetricsCollector() *recordingMetricsCollector {
	return &recordingMetricsCollector{}
}

func (c *recordingMetricsCollector) RecordDuration(metric string, _ time.Duration, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.durations = append(c.durations, recordedMetric{metric: metric, labels: labels})
}

func (c *recordingMetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters = append(c.counters, recordedMetric{metric: metric, labels: labels})
}

func (c *recordingMetricsCollector) RecordValue(_ string, _ float64, _ map[string]string) {}

func (c *recordingMetricsCollector) counterTotal(metric string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, m := range c.counters {
		if m.metric == metric {
			total++
		}
	}

	return total
}

func (c *recordingMetricsCollector) counterWithStatus(metric string, status string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, m := range c.counters {
		if m.metric == metric && m.labels[editsession.LogAttrStatus] == status {
			total++
		}
	}

	return total
}

func (c *recordingMetricsCollector) durationCount(metric string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, m := range c.durations {
		if m.metric == metric {
			total++
		}
	}

	return total
}
