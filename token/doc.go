// Package token implements the signed-token codec used by goSession: JWT creation
// and verification for access and refresh tokens, plus one-way token fingerprints.
//
// A [Codec] is bound to exactly one token class (one signing secret, one TTL
// ceiling). The Manager owns two codecs — access and refresh — configured with
// distinct secrets so a leaked access key can never forge refresh tokens.
//
// # Architecture boundaries
//
// The codec is pure computation: no Redis, no clocks beyond expiry stamping,
// no shared mutable state. Revocation and rotation bookkeeping are the caller's
// concern; Verify reports only structural failures (malformed, bad signature,
// expired).
package token
