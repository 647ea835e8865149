package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/personnelapi/internal/apperror"
	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/featureflags"
	"github.com/yourorg/personnelapi/internal/observability/metrics"
	"github.com/yourorg/personnelapi/internal/respond"
	"github.com/yourorg/personnelapi/internal/security/audit"
	"github.com/yourorg/personnelapi/internal/security/auth"
	"github.com/yourorg/personnelapi/internal/security/middleware"
	"github.com/yourorg/personnelapi/internal/service"
)

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Device   string `json:"device,omitempty"`
}

// LoginResponse returns the bearer key alongside the user. The key is only
// ever visible in this response.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	User      *domain.User `json:"user"`
}

// ChangePasswordRequest carries a password rotation.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// AuthHandler handles registration, login, logout and password changes.
// Login establishes both credentials at once: a session cookie for browsers
// and a bearer key for API clients.
type AuthHandler struct {
	authService  *service.AuthService
	tokenService *service.TokenService
	sessions     *auth.SessionManager
	auditLog     *audit.Logger
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService, tokenService *service.TokenService, sessions *auth.SessionManager, auditLog *audit.Logger, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
		sessions:     sessions,
		auditLog:     auditLog,
		logger:       logger,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if featureflags.Enabled(featureflags.ClosedRegistration) {
		respond.Error(w, h.logger, apperror.New(apperror.Forbidden, "registration is closed"))
		return
	}

	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.auditLog.LogAction(r.Context(), user.ID, "register", "user", user.ID, "ok")
	respond.JSON(w, http.StatusCreated, "registered", user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		metrics.ObserveLogin("failure")
		h.auditLog.LogLogin(r.Context(), req.Username, "failure")
		respond.Error(w, h.logger, err)
		return
	}

	token, rawKey, err := h.tokenService.Issue(r.Context(), user, req.Device)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	sessionValue, err := h.sessions.Issue(user.ID)
	if err != nil {
		respond.Error(w, h.logger, apperror.Wrap(apperror.Internal, err, "failed to establish session"))
		return
	}
	http.SetCookie(w, h.sessions.Cookie(sessionValue))

	metrics.ObserveLogin("success")
	metrics.ObserveTokenIssued()
	h.auditLog.LogLogin(r.Context(), user.ID, "success")
	h.auditLog.LogTokenIssued(r.Context(), user.ID, token.ID)

	respond.JSON(w, http.StatusOK, "logged in", LoginResponse{
		Token:     rawKey,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	})
}

// Logout handles POST /auth/logout. The session cookie is cleared and, if
// the caller authenticated with a bearer key, that key is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	if key, ok := auth.BearerKey(r.Header.Get("Authorization")); ok {
		if err := h.tokenService.RevokeByKey(r.Context(), key); err != nil && !apperror.Is(err, apperror.NotFound) {
			respond.Error(w, h.logger, err)
			return
		}
	}
	http.SetCookie(w, h.sessions.ClearCookie())

	h.auditLog.LogLogout(r.Context(), user.ID)
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

// ChangePassword handles PUT /auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var req ChangePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.auditLog.LogAction(r.Context(), user.ID, "change_password", "user", user.ID, "ok")
	respond.JSON(w, http.StatusOK, "password changed", nil)
}
