package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef binds a metric ID to its exposition name and help string.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram metric ID to its exposition name and help
// string.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is the shared counter definition table consumed by both
// exporters. Order determines exposition order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricIssueSuccess, Name: "gosession_issue_success_total", Help: "Successful token pair issuances."},
	{ID: goSession.MetricIssueFailure, Name: "gosession_issue_failure_total", Help: "Failed token pair issuances."},
	{ID: goSession.MetricVerifySuccess, Name: "gosession_verify_success_total", Help: "Access tokens accepted by verification."},
	{ID: goSession.MetricVerifyFailure, Name: "gosession_verify_failure_total", Help: "Access tokens rejected for structural reasons."},
	{ID: goSession.MetricVerifyRevoked, Name: "gosession_verify_revoked_total", Help: "Revoked access tokens presented before natural expiry."},
	{ID: goSession.MetricRotateSuccess, Name: "gosession_rotate_success_total", Help: "Successful refresh rotations."},
	{ID: goSession.MetricRotateFailure, Name: "gosession_rotate_failure_total", Help: "Failed refresh rotations."},
	{ID: goSession.MetricReplayDetected, Name: "gosession_replay_detected_total", Help: "Refresh fingerprint mismatches treated as replay."},
	{ID: goSession.MetricRenewalCeilingExceeded, Name: "gosession_renewal_ceiling_exceeded_total", Help: "Rotations rejected at the absolute renewal ceiling."},
	{ID: goSession.MetricRotateRaceLost, Name: "gosession_rotate_race_lost_total", Help: "Rotations that lost the compare-and-swap race."},
	{ID: goSession.MetricSessionRevoked, Name: "gosession_session_revoked_total", Help: "Full session revocations."},
	{ID: goSession.MetricStoreUnavailable, Name: "gosession_store_unavailable_total", Help: "Operations denied because the backing store was unreachable."},
}

// HistogramDefs lists the histogram-backed metrics.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricVerifyLatency, Name: "gosession_verify_latency_seconds", Help: "Verify latency histogram."},
}

// HistogramBounds are the bucket upper bounds in exposition form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds metric-name-safe forms of the bounds for
// exporters that encode the bound into the instrument name.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form the
// Prometheus exposition format expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
