package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID uint16

const (
	// MetricIssueSuccess counts successful token pair issuances.
	MetricIssueSuccess MetricID = iota
	// MetricIssueFailure counts failed issuances.
	MetricIssueFailure
	// MetricVerifySuccess counts access tokens accepted by Verify.
	MetricVerifySuccess
	// MetricVerifyFailure counts access tokens rejected for structural
	// reasons (malformed, bad signature, expired).
	MetricVerifyFailure
	// MetricVerifyRevoked counts revoked access tokens presented before
	// their natural expiry.
	MetricVerifyRevoked
	// MetricRotateSuccess counts successful refresh rotations.
	MetricRotateSuccess
	// MetricRotateFailure counts failed rotations of any kind.
	MetricRotateFailure
	// MetricReplayDetected counts fingerprint mismatches treated as replay.
	MetricReplayDetected
	// MetricRenewalCeilingExceeded counts rotations rejected because the
	// chain outlived its absolute ceiling.
	MetricRenewalCeilingExceeded
	// MetricRotateRaceLost counts rotations that lost the compare-and-swap
	// race to a concurrent rotation.
	MetricRotateRaceLost
	// MetricSessionRevoked counts full session revocations (logout, replay,
	// ceiling).
	MetricSessionRevoked
	// MetricStoreUnavailable counts operations denied because the backing
	// store was unreachable.
	MetricStoreUnavailable
	// MetricVerifyLatency is the Verify hot-path latency histogram.
	MetricVerifyLatency

	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and an optional latency histogram for the
// Verify hot path. All methods are safe for concurrent use; a nil or
// disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg. When Enabled is
// false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the metrics system records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample for id. Only [MetricVerifyLatency] is
// histogram-backed.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricVerifyLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current value of a counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

// bucketIndex maps a duration onto the exposition bounds
// 5ms/10ms/25ms/50ms/100ms/250ms/500ms/+Inf.
func bucketIndex(d time.Duration) int {
	switch {
	case d < 5*time.Millisecond:
		return 0
	case d < 10*time.Millisecond:
		return 1
	case d < 25*time.Millisecond:
		return 2
	case d < 50*time.Millisecond:
		return 3
	case d < 100*time.Millisecond:
		return 4
	case d < 250*time.Millisecond:
		return 5
	case d < 500*time.Millisecond:
		return 6
	default:
		return 7
	}
}
