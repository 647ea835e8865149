package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/personnelapi/internal/security"
	"github.com/yourorg/personnelapi/internal/security/middleware"
	"github.com/yourorg/personnelapi/internal/security/ratelimit"
)

// RouterDeps collects everything the route table needs.
type RouterDeps struct {
	Auth        *AuthHandler
	Tokens      *TokenHandler
	Departments *DepartmentHandler
	Personnels  *PersonnelHandler
	Health      *HealthHandler
	Authz       *security.AuthorizationService
	// LoginLimiter is optional; without it login is not rate limited.
	LoginLimiter *ratelimit.Limiter
	Logger       *slog.Logger
}

// NewRouter builds the route table. Permission gating is declared here,
// per route, so the whole access policy is readable in one place.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	gate := func(perm security.Permission, h http.HandlerFunc) http.Handler {
		return middleware.RequirePermission(deps.Authz, perm, log)(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", Root)
	mux.HandleFunc("GET /healthz", deps.Health.Liveness)
	mux.HandleFunc("GET /readyz", deps.Health.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /auth/register", deps.Auth.Register)
	login := http.Handler(http.HandlerFunc(deps.Auth.Login))
	if deps.LoginLimiter != nil {
		login = middleware.RateLimit(deps.LoginLimiter, middleware.ClientAddress, log)(login)
	}
	mux.Handle("POST /auth/login", login)
	mux.Handle("POST /auth/logout", gate(security.PermManageOwnTokens, deps.Auth.Logout))
	mux.Handle("PUT /auth/password", gate(security.PermManageOwnTokens, deps.Auth.ChangePassword))

	mux.Handle("GET /tokens", gate(security.PermManageOwnTokens, deps.Tokens.List))
	mux.Handle("POST /tokens", gate(security.PermManageOwnTokens, deps.Tokens.Create))
	mux.Handle("DELETE /tokens/{id}", gate(security.PermManageOwnTokens, deps.Tokens.Delete))

	mux.Handle("GET /departments", gate(security.PermReadDepartments, deps.Departments.List))
	mux.Handle("POST /departments", gate(security.PermWriteDepartments, deps.Departments.Create))
	mux.Handle("GET /departments/{id}", gate(security.PermReadDepartments, deps.Departments.Get))
	mux.Handle("PUT /departments/{id}", gate(security.PermWriteDepartments, deps.Departments.Update))
	mux.Handle("DELETE /departments/{id}", gate(security.PermWriteDepartments, deps.Departments.Delete))

	mux.Handle("GET /personnels", gate(security.PermReadPersonnels, deps.Personnels.List))
	mux.Handle("POST /personnels", gate(security.PermWritePersonnels, deps.Personnels.Create))
	mux.Handle("GET /personnels/{id}", gate(security.PermReadPersonnels, deps.Personnels.Get))
	mux.Handle("PUT /personnels/{id}", gate(security.PermWritePersonnels, deps.Personnels.Update))
	mux.Handle("DELETE /personnels/{id}", gate(security.PermWritePersonnels, deps.Personnels.Delete))

	// Everything unmatched falls through to the 404 envelope.
	mux.HandleFunc("/", NotFound)

	return mux
}
