package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/personnelapi/internal/observability/metrics"
	"github.com/yourorg/personnelapi/internal/respond"
	"github.com/yourorg/personnelapi/internal/security/audit"
	"github.com/yourorg/personnelapi/internal/security/middleware"
	"github.com/yourorg/personnelapi/internal/service"
)

// CreateTokenRequest names the device a new bearer key is issued for.
type CreateTokenRequest struct {
	Device string `json:"device,omitempty" validate:"max=128"`
}

// CreateTokenResponse returns the new key. The key cannot be retrieved
// again afterwards; listing only shows token metadata.
type CreateTokenResponse struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Device    string     `json:"device,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// TokenHandler manages a user's bearer keys for multi-device access.
type TokenHandler struct {
	tokenService *service.TokenService
	auditLog     *audit.Logger
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(tokenService *service.TokenService, auditLog *audit.Logger, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenHandler{tokenService: tokenService, auditLog: auditLog, logger: logger}
}

// List handles GET /tokens: the caller's own active tokens.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	tokens, err := h.tokenService.ListForUser(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", tokens)
}

// Create handles POST /tokens: issue another key for the caller.
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var req CreateTokenRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respond.Error(w, h.logger, err)
			return
		}
	}

	token, rawKey, err := h.tokenService.Issue(r.Context(), user, req.Device)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	metrics.ObserveTokenIssued()
	h.auditLog.LogTokenIssued(r.Context(), user.ID, token.ID)
	respond.JSON(w, http.StatusCreated, "token issued", CreateTokenResponse{
		ID:        token.ID,
		Token:     rawKey,
		Device:    token.Device,
		ExpiresAt: token.ExpiresAt,
	})
}

// Delete handles DELETE /tokens/{id}: revoke one key, owner or admin.
func (h *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	id := r.PathValue("id")

	if err := h.tokenService.Revoke(r.Context(), id, user); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	metrics.ObserveTokenRevoked()
	h.auditLog.LogTokenRevoked(r.Context(), user.ID, id)
	respond.NoContent(w)
}
