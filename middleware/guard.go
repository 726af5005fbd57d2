package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

type identityContextKey struct{}

// Options configures token extraction. The zero value reads the
// Authorization header only.
type Options struct {
	// AccessCookie names a cookie to fall back to when no bearer token is
	// present. Empty disables cookie extraction.
	AccessCookie string
}

// IdentityFromContext returns the identity injected by [Guard] for the
// current request.
func IdentityFromContext(ctx context.Context) (*goSession.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goSession.Identity)
	return id, ok
}

// Guard returns middleware that verifies the access token on every request
// and rejects with a uniform "access denied" on any failure.
func Guard(manager *goSession.Manager) func(http.Handler) http.Handler {
	return GuardWithOptions(manager, Options{})
}

// GuardWithOptions is [Guard] with explicit extraction options.
func GuardWithOptions(manager *goSession.Manager, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				reject(w)
				return
			}

			tok, ok := extractAccessToken(r, opts)
			if !ok {
				reject(w)
				return
			}

			ctx := goSession.WithClientIP(r.Context(), clientIP(r))
			identity, err := manager.Verify(ctx, tok)
			if err != nil {
				// The internal kind stays internal; external callers always
				// see the same rejection.
				reject(w)
				return
			}

			ctx = context.WithValue(ctx, identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter) {
	http.Error(w, "access denied", http.StatusUnauthorized)
}

func extractAccessToken(r *http.Request, opts Options) (string, bool) {
	if tok, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return tok, true
	}
	if opts.AccessCookie != "" {
		if cookie, err := r.Cookie(opts.AccessCookie); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
