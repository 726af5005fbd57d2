package goSession

import "errors"

// The closed failure set of the session manager. Every error returned by
// [Manager] methods matches exactly one of these via errors.Is; codec and
// store internals are wrapped, never surfaced raw. The middleware package
// maps these to caller-facing rejections without leaking the internal kind.
var (
	// ErrTokenMalformed is returned when an access token cannot be parsed.
	ErrTokenMalformed = errors.New("access token malformed")
	// ErrTokenSignature is returned when an access token signature check fails.
	ErrTokenSignature = errors.New("access token signature invalid")
	// ErrTokenExpired is returned when an access token is past its expiry.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenRevoked is returned when a revoked access token is presented
	// before its natural expiry.
	ErrTokenRevoked = errors.New("access token revoked")
	// ErrRefreshNotFound is returned when no active session exists for the
	// subject of a presented refresh token.
	ErrRefreshNotFound = errors.New("refresh token not found")
	// ErrRefreshMismatch is returned when the presented refresh token does
	// not match the stored fingerprint (replay) or when a concurrent
	// rotation won the compare-and-swap race.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrRefreshInvalid is returned when a refresh token fails signature or
	// expiry checks, or when the renewal ceiling has been exceeded.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrInvalidIdentity is returned when Issue is called with an identity
	// that has no subject ID.
	ErrInvalidIdentity = errors.New("identity subject id required")
	// ErrStoreUnavailable is returned when the backing store is unreachable.
	// Verification fails closed; this is never treated as "not revoked".
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrManagerNotReady is returned when a Manager method is called before
	// Build completed.
	ErrManagerNotReady = errors.New("manager not initialized")
)
