// Package store provides the Redis-backed state for goSession: the per-subject
// refresh-token record and the access-token revocation list.
//
// # Refresh records
//
// Exactly one refresh record exists per subject. Records are encoded as a
// compact versioned binary blob with the token fingerprint at a fixed offset,
// which lets the rotation compare-and-swap run as a single Lua script without
// decoding the whole record server-side. TTL expiry is delegated to Redis;
// no in-process timers exist.
//
// # Revocation list
//
// Revoked access-token fingerprints are stored as keys whose TTL equals the
// token's remaining natural lifetime, so entries prune themselves the moment
// the token would have died anyway.
//
// # Failure mode
//
// Every Redis failure is wrapped in [ErrStoreUnavailable]. Callers must treat
// that as a denial; the Manager never interprets an unreachable store as
// "not revoked" or "record absent".
package store
