package api

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/schedly/trustgate/internal/auth"
)

// rateLimitMiddleware applies the sliding window keyed on the caller's
// IP (chi's RealIP has already resolved proxies). It runs before
// authentication so abusive callers are rejected cheaply.
func (s *Server) rateLimitMiddleware(rule RateLimitRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			decision, err := s.limiter.Check(r.Context(), key, rule.MaxRequests, rule.Window)
			if err != nil {
				// A broken window store must not take the API down.
				s.logger.Error("rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				retry := decision.RetryAfterSeconds()
				s.logger.Warn("request rate limited",
					"key", key,
					"path", r.URL.Path,
					"retry_after_s", retry,
				)
				if retry > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retry))
				}
				s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP already replaced RemoteAddr with a bare address.
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// authMiddleware resolves the bearer credential to an identity and puts
// it in the request context. Every request is verified independently.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.authenticator.Authenticate(r.Context(), r.Header)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrProviderUnavailable):
				s.writeError(w, http.StatusServiceUnavailable, "identity provider unavailable")
			case errors.Is(err, auth.ErrMissingCredential):
				s.writeError(w, http.StatusUnauthorized, "missing or malformed credential")
			default:
				s.writeError(w, http.StatusUnauthorized, "invalid credential")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}
