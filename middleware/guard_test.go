package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newGuardTest(t *testing.T) (*goSession.Manager, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := goSession.DefaultConfig()
	cfg.Token.AccessSecret = []byte("guard-access-secret-0123456789abcde")
	cfg.Token.RefreshSecret = []byte("guard-refresh-secret-0123456789abcd")

	manager, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}

	return manager, func() {
		manager.Close()
		rdb.Close()
		mr.Close()
	}
}

func issueAccessToken(t *testing.T, manager *goSession.Manager) *goSession.TokenPair {
	t.Helper()
	pair, err := manager.Issue(context.Background(), goSession.Identity{
		SubjectID: "user-1",
		Email:     "alice@example.com",
		Role:      "admin",
	}, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return pair
}

func echoIdentityHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("guarded handler reached without identity in context")
		}
		_, _ = w.Write([]byte(identity.SubjectID))
	})
}

func TestGuardAcceptsBearerToken(t *testing.T) {
	manager, done := newGuardTest(t)
	defer done()
	pair := issueAccessToken(t, manager)

	handler := Guard(manager)(echoIdentityHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "user-1" {
		t.Fatalf("body = %q, want user-1", got)
	}
}

func TestGuardRejectsUniformly(t *testing.T) {
	manager, done := newGuardTest(t)
	defer done()
	pair := issueAccessToken(t, manager)

	if err := manager.Revoke(context.Background(), pair.AccessToken, "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	handler := Guard(manager)(echoIdentityHandler(t))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"non-bearer scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
		{"revoked token", "Bearer " + pair.AccessToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			// Every failure kind reads identically from outside.
			if got := strings.TrimSpace(rec.Body.String()); got != "access denied" {
				t.Fatalf("body = %q, want access denied", got)
			}
		})
	}
}

func TestGuardCookieFallback(t *testing.T) {
	manager, done := newGuardTest(t)
	defer done()
	pair := issueAccessToken(t, manager)

	handler := GuardWithOptions(manager, Options{AccessCookie: "access_token"})(echoIdentityHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// The bearer header wins over the cookie when both are present.
	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: pair.AccessToken})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with bad bearer = %d, want 401", rec.Code)
	}
}

func TestGuardNilManagerRejects(t *testing.T) {
	handler := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached with nil manager")
	}))

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestIdentityFromContextMissing(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatal("empty context reported an identity")
	}
}

func TestRejectionForMapsRefreshErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"not found", goSession.ErrRefreshNotFound, "please log in again"},
		{"mismatch", goSession.ErrRefreshMismatch, "please log in again"},
		{"invalid", goSession.ErrRefreshInvalid, "session expired, log in again"},
		{"store outage", goSession.ErrStoreUnavailable, "access denied"},
		{"revoked access", goSession.ErrTokenRevoked, "access denied"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rejection := RejectionFor(tc.err)
			if rejection.Status != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rejection.Status)
			}
			if rejection.Message != tc.message {
				t.Fatalf("message = %q, want %q", rejection.Message, tc.message)
			}
		})
	}
}
