package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/mail"
	"strings"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyEmail contextKey = "email"

// requireIdentity validates the X-User-Email header and attaches the
// normalized email to the request context.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get("X-User-Email"))
		if email == "" {
			response.Unauthorized(w, "Missing X-User-Email header", s.logger)
			return
		}

		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			response.BadRequest(w, "Invalid email in X-User-Email header", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyEmail, strings.ToLower(email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin checks the X-Admin-Key header against the configured shared
// secret. An empty configured key disables the whole admin surface.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.config.Admin.Key
		if key == "" {
			response.Forbidden(w, "Admin surface is disabled", s.logger)
			return
		}

		provided := r.Header.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			response.Forbidden(w, "Invalid admin key", s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkoutRateLimit throttles checkout/borrow per identity.
// Must be used after requireIdentity.
func (s *Server) checkoutRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := getEmail(r.Context())
		if email != "" && !s.checkoutLimiter.Allow(email) {
			s.logger.Warn("checkout rate limit hit", "email", email)
			response.Error(w, http.StatusTooManyRequests, "Too many checkout attempts, slow down", s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getEmail extracts the caller identity from request context.
// Returns empty string outside identity routes.
func getEmail(ctx context.Context) string {
	if email, ok := ctx.Value(contextKeyEmail).(string); ok {
		return email
	}
	return ""
}
