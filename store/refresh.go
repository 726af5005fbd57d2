package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every transport-level Redis failure. The Manager
// treats it as a verification failure, never as absence.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrRecordNotFound is returned when no refresh record exists for a subject.
var ErrRecordNotFound = errors.New("refresh record not found")

// ErrRecordExpired is returned when a record would be written with a
// non-positive TTL.
var ErrRecordExpired = errors.New("refresh record already expired")

const (
	casStatusNotFound int64 = 0
	casStatusMismatch int64 = 1
	casStatusSwapped  int64 = 2
)

// casScript compares the stored record's fingerprint (bytes 2..33 of the
// blob, 1-indexed; see fingerprintOffset in record.go) against the expected
// value and replaces the record only on a match. Running GET+compare+SET as
// one script is what makes rotation linearizable per subject.
const casScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
if string.sub(data, 2, 33) ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 2
`

var casLua = redis.NewScript(casScript)

// RefreshStore is the durable, TTL-backed record of the single currently
// valid refresh token per subject. Safe for concurrent use.
type RefreshStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRefreshStore creates a store using the given client and key prefix.
func NewRefreshStore(client redis.UniversalClient, prefix string) *RefreshStore {
	if prefix == "" {
		prefix = "gs"
	}
	return &RefreshStore{redis: client, prefix: prefix}
}

func (s *RefreshStore) key(subjectID string) string {
	return s.prefix + ":refresh:" + subjectID
}

// Put unconditionally establishes or replaces the record for its subject.
// The key expires at the record's ExpiresAt; Redis owns natural expiry.
func (s *RefreshStore) Put(ctx context.Context, rec *Record) error {
	ttl := rec.TTL(time.Now())
	if ttl <= 0 {
		return ErrRecordExpired
	}

	blob, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(rec.SubjectID), blob, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get fetches the record for subjectID, or [ErrRecordNotFound] when no
// active session exists.
func (s *RefreshStore) Get(ctx context.Context, subjectID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(subjectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() >= rec.ExpiresAt {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// CompareAndSwap atomically replaces the stored record for subjectID only if
// its current fingerprint equals expected. It reports false when the record
// is absent or the fingerprint has drifted — of N concurrent rotations
// presenting the same token, exactly one observes true.
func (s *RefreshStore) CompareAndSwap(ctx context.Context, subjectID string, expected [32]byte, rec *Record) (bool, error) {
	ttl := rec.TTL(time.Now())
	if ttl <= 0 {
		return false, ErrRecordExpired
	}

	blob, err := encodeRecord(rec)
	if err != nil {
		return false, err
	}

	result, err := casLua.Run(
		ctx,
		s.redis,
		[]string{s.key(subjectID)},
		expected[:],
		blob,
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	status, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("%w: invalid swap script response", ErrStoreUnavailable)
	}

	switch status {
	case casStatusSwapped:
		return true, nil
	case casStatusNotFound, casStatusMismatch:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown swap script status %d", ErrStoreUnavailable, status)
	}
}

// RevokeAll deletes the subject's record, forcing re-authentication.
// Deleting an absent record is not an error.
func (s *RefreshStore) RevokeAll(ctx context.Context, subjectID string) error {
	if err := s.redis.Del(ctx, s.key(subjectID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
