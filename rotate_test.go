package goSession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store"
)

func TestRotateIssuesFreshPair(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	first, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	second, err := env.manager.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation returned the same refresh token")
	}

	// The new access token carries the original identity without a
	// user-store round trip.
	identity, err := env.manager.Verify(ctx, second.AccessToken)
	if err != nil {
		t.Fatalf("verify rotated access token: %v", err)
	}
	if *identity != testIdentity() {
		t.Fatalf("identity = %+v, want %+v", identity, testIdentity())
	}

	// The new refresh token rotates again.
	if _, err := env.manager.Rotate(ctx, second.RefreshToken); err != nil {
		t.Fatalf("second rotate: %v", err)
	}
}

func TestRotateRejectsGarbageToken(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()

	if _, err := env.manager.Rotate(context.Background(), "not.a.token"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRotateWithoutActiveSession(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := env.manager.Revoke(ctx, pair.AccessToken, "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := env.manager.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("err = %v, want ErrRefreshNotFound", err)
	}
}

func TestReplayedRefreshTokenKillsSession(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	first, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := env.manager.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Presenting the superseded token is a replay signal.
	if _, err := env.manager.Rotate(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshMismatch) {
		t.Fatalf("replay: err = %v, want ErrRefreshMismatch", err)
	}

	// The whole chain is dead, including the latest legitimate token.
	if _, err := env.manager.Rotate(ctx, second.RefreshToken); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("rotate after replay: err = %v, want ErrRefreshNotFound", err)
	}
}

func TestRotatePreservesChainOrigin(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	t0 := time.Now()
	env.manager.now = func() time.Time { return t0 }

	pair, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	t1 := t0.Add(time.Hour)
	env.manager.now = func() time.Time { return t1 }

	if _, err := env.manager.Rotate(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	refreshStore := store.NewRefreshStore(env.redis, "gs")
	rec, err := refreshStore.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.IssuedAt != t0.Unix() {
		t.Fatalf("chain origin = %d, want %d (rotation must never reset it)", rec.IssuedAt, t0.Unix())
	}
	if rec.LastRotatedAt != t1.Unix() {
		t.Fatalf("last rotated = %d, want %d", rec.LastRotatedAt, t1.Unix())
	}
	if rec.ExpiresAt != t1.Add(env.manager.config.Refresh.TTL).Unix() {
		t.Fatalf("expiry = %d, want %d (rotation slides the token TTL)", rec.ExpiresAt, t1.Add(env.manager.config.Refresh.TTL).Unix())
	}
}

func TestRotateEnforcesRenewalCeiling(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Age the chain past the default 30-day ceiling without touching the
	// fingerprint, then attempt one more rotation.
	refreshStore := store.NewRefreshStore(env.redis, "gs")
	rec, err := refreshStore.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	rec.IssuedAt = time.Now().Add(-31 * 24 * time.Hour).Unix()
	if err := refreshStore.Put(ctx, rec); err != nil {
		t.Fatalf("put aged record: %v", err)
	}

	if _, err := env.manager.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("rotate past ceiling: err = %v, want ErrRefreshInvalid", err)
	}

	// The ceiling violation terminates the session.
	if _, err := refreshStore.Get(ctx, "user-1"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("record after ceiling: err = %v, want ErrRecordNotFound", err)
	}
}

func TestRememberMeUsesLongerCeiling(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := env.manager.Issue(ctx, testIdentity(), true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// 31 days exceeds the normal ceiling but not the remember-me one.
	refreshStore := store.NewRefreshStore(env.redis, "gs")
	rec, err := refreshStore.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	rec.IssuedAt = time.Now().Add(-31 * 24 * time.Hour).Unix()
	if err := refreshStore.Put(ctx, rec); err != nil {
		t.Fatalf("put aged record: %v", err)
	}

	if _, err := env.manager.Rotate(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("rotate within remember-me ceiling: %v", err)
	}
}

func TestCorruptRecordInvalidatesSession(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := env.mini.Set("gs:refresh:user-1", "garbage-blob"); err != nil {
		t.Fatalf("corrupt record: %v", err)
	}

	if _, err := env.manager.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("rotate with corrupt record: err = %v, want ErrRefreshInvalid", err)
	}

	// The unreadable record is removed rather than left to poison retries.
	refreshStore := store.NewRefreshStore(env.redis, "gs")
	if _, err := refreshStore.Get(ctx, "user-1"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("record after corruption: err = %v, want ErrRecordNotFound", err)
	}
}

func TestRefreshRecordExpiresNaturally(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	env.mini.FastForward(env.manager.config.Refresh.TTL + time.Hour)

	if _, err := env.manager.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshNotFound) && !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("rotate after natural expiry: err = %v, want not-found or invalid", err)
	}
}
