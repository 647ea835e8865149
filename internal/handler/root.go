package handler

import (
	"net/http"

	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/respond"
	"github.com/yourorg/personnelapi/internal/security/middleware"
)

// WelcomeResponse echoes the caller's identity on the root route.
type WelcomeResponse struct {
	IsLogin bool         `json:"isLogin"`
	User    *domain.User `json:"user,omitempty"`
}

// Root handles GET / with a welcome payload echoing the caller's identity.
func Root(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	respond.JSON(w, http.StatusOK, "welcome to the personnel API", WelcomeResponse{
		IsLogin: user != nil,
		User:    user,
	})
}

// NotFound writes the fallback 404 envelope for unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respond.NotFoundRoute(w)
}
