package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// Concurrent rotations of the same refresh token must admit exactly one
// winner. Losers observe either the fingerprint mismatch or, if a loser's
// mismatch already killed the chain, the record's absence; none receive a
// usable pair.
func TestConcurrentRotationSingleWinner(t *testing.T) {
	env, done := newManagerTest(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := env.manager.Issue(ctx, testIdentity(), false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const workers = 16

	var wg sync.WaitGroup
	results := make([]error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			<-start
			_, err := env.manager.Rotate(ctx, pair.RefreshToken)
			results[slot] = err
		}(i)
	}

	close(start)
	wg.Wait()

	var wins int
	for slot, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrRefreshMismatch), errors.Is(err, ErrRefreshNotFound):
		default:
			t.Fatalf("worker %d: unexpected error %v", slot, err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful rotation, got %d", wins)
	}
}
