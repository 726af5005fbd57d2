// Package internaldefs holds the metric definition tables shared by the
// Prometheus and OpenTelemetry exporters so the two surfaces cannot drift.
package internaldefs
