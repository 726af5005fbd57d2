package token

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns the one-way derivation of a raw token value used for
// storage and comparison. The store layer only ever sees fingerprints, so a
// read of the backing store yields nothing that can be replayed as a token.
func Fingerprint(raw string) [32]byte {
	return sha256.Sum256([]byte(raw))
}

// FingerprintString renders a fingerprint as compact base64url for use in
// store keys and audit metadata.
func FingerprintString(fp [32]byte) string {
	return base64.RawURLEncoding.EncodeToString(fp[:])
}
