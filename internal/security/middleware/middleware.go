package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/security"
	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/auth"
)

type ClaimsContextKey struct{}

// UserResolver confirms a token's subject still exists; a token for a
// removed credential is rejected even before expiry.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RateLimiter is the per-caller ceiling check
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// isPublic lists the endpoints the gate skips. GET /api/fees is the
// only public business read.
func isPublic(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return true
	case "/api/auth/login":
		return true
	case "/api/fees":
		return r.Method == http.MethodGet
	}
	return false
}

// JWTMiddleware validates bearer tokens, resolves the credential record
// and stores the claims in the request context
func JWTMiddleware(tm *auth.TokenManager, users UserResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			if _, err := users.GetByID(r.Context(), claims.UserID); err != nil {
				log.Warn("token subject no longer exists", slog.String("user_id", claims.UserID))
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware enforces the per-user request ceiling. Anonymous
// requests on public paths are keyed by client IP.
func RateLimitMiddleware(limiter RateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = claims.UserID
			} else if isPublic(r) {
				key = ClientIP(r)
			}

			if !limiter.Allow(r.Context(), key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission wraps a handler with a role capability check
func RequirePermission(authz *security.AuthorizationService, perm security.Permission, auditLog *audit.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil {
			http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
			return
		}
		if err := authz.ValidatePermission(security.Role(claims.Role), perm); err != nil {
			if auditLog != nil {
				auditLog.LogDenied(r.Context(), claims.UserID, r.URL.Path, string(perm))
			}
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// AuditMiddleware records admin mutations on the security trail
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				switch r.Method {
				case http.MethodPost, http.MethodPut, http.MethodDelete:
					auditLog.LogAction(r.Context(), claims.UserID, r.Method, "api", r.URL.Path, "initiated")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext returns the authenticated claims, or nil
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

// ClientIP extracts the caller address for anonymous rate limiting
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginWindow is the strict ceiling applied to login attempts per IP
const (
	LoginMaxAttempts = 5
	LoginWindow      = 15 * time.Minute
)
