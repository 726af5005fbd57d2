// Package goSession manages the session-token lifecycle for server workloads:
// issuing, verifying, rotating, and revoking access/refresh token pairs, with
// refresh-token replay detection and a hard renewal ceiling.
//
// The package is designed for concurrent request handling: Manager methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config],
// and value types (Identity, TokenPair, MetricsSnapshot). Token signing lives
// in the token subpackage, Redis state in the store subpackage, HTTP
// enforcement in middleware. The audit event model lives under internal/ and
// is re-exported here.
//
// # What this package must NOT do
//
//   - Expose Redis clients or record encodings in its public API.
//   - Own timers or schedulers; TTL expiry is delegated to the backing store.
//   - Hold package-level store state; every handle is constructed by the
//     Builder and shared by reference.
//
// # Security contract
//
// A store outage is always a denial (fail closed). A refresh fingerprint
// mismatch is treated as evidence of token theft and revokes the entire
// session chain, not just the presented token.
package goSession
