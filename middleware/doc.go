// Package middleware exposes the HTTP enforcement hook built on top of
// goSession.Manager verification.
//
// [Guard] reads the access token from the Authorization header or the
// configured cookie, calls Manager.Verify, and injects the decoded identity
// into the request context. Every failure — malformed token, bad signature,
// expiry, revocation, store outage — surfaces externally as the same
// "access denied" rejection; the internal kind drives metrics and audit
// only.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Manager calls. It does NOT
// implement verification logic itself — all decisions are delegated to
// Manager.Verify.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to the Manager).
//   - Access Redis (the Manager handles I/O).
//   - Leak why verification failed to untrusted callers.
package middleware
