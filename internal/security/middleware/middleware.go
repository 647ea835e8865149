package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/respond"
	"github.com/yourorg/personnelapi/internal/security"
	"github.com/yourorg/personnelapi/internal/security/auth"
	"github.com/yourorg/personnelapi/internal/security/ratelimit"
	"github.com/yourorg/personnelapi/internal/service"
)

type UserContextKey struct{}

// Authentication resolves the caller from the session cookie first, then
// from an Authorization bearer key. A missing or failing credential leaves
// the request anonymous instead of erroring; the authorization gate decides
// later whether anonymity is acceptable for the route. A cookie that fails
// verification is treated exactly like an absent one, so responses never
// reveal whether a presented signature was valid.
func Authentication(sessions *auth.SessionManager, tokens *service.TokenService, users domain.UserRepository, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, sessions, tokens, users, log); user != nil {
				ctx := context.WithValue(r.Context(), UserContextKey{}, user)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(r *http.Request, sessions *auth.SessionManager, tokens *service.TokenService, users domain.UserRepository, log *slog.Logger) *domain.User {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		if claims, err := sessions.Verify(cookie.Value); err != nil {
			log.Debug("session cookie rejected", slog.String("error", err.Error()))
		} else if user, err := users.GetByID(r.Context(), claims.UserID); err == nil && user.IsActive {
			return user
		}
	}

	if key, ok := auth.BearerKey(r.Header.Get("Authorization")); ok {
		user, err := tokens.Validate(r.Context(), key)
		if err != nil {
			log.Debug("bearer key rejected", slog.String("error", err.Error()))
			return nil
		}
		return user
	}

	return nil
}

// CurrentUser returns the authenticated user stored in ctx, or nil for an
// anonymous request.
func CurrentUser(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(UserContextKey{}).(*domain.User); ok {
		return u
	}
	return nil
}

// RequirePermission gates a route on a permission. Anonymous callers get
// Unauthenticated, authenticated callers without the permission get
// Forbidden.
func RequirePermission(authz *security.AuthorizationService, perm security.Permission, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				respond.Error(w, log, apperror.New(apperror.Unauthenticated, "authentication required"))
				return
			}
			if !authz.HasPermission(user.Role, perm) {
				respond.Error(w, log, apperror.New(apperror.Forbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects callers whose budget for the window is spent. The key
// is derived per request; login uses the client address so one address
// cannot brute-force credentials.
func RateLimit(limiter *ratelimit.Limiter, keyFunc func(*http.Request) string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if !limiter.Allow(r.Context(), key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				respond.Error(w, log, apperror.New(apperror.RateLimited, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientAddress extracts the caller's address for rate-limit keying,
// preferring the first X-Forwarded-For hop when a proxy sets it.
func ClientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// ValidateJSONContentType rejects mutating requests whose body is not
// declared as JSON.
func ValidateJSONContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				respond.Error(w, log, apperror.New(apperror.BadRequest, "Content-Type must be application/json"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
