package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/personnelapi/internal/infrastructure/redis"
	"github.com/yourorg/personnelapi/pkg/database"
)

// HealthResponse reports component statuses.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	pool   *database.ConnectionPool
	redis  *redis.Client
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool *database.ConnectionPool, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{pool: pool, redis: redisClient, logger: logger}
}

// Liveness handles GET /healthz. The process being able to answer is the
// whole check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness handles GET /readyz: the database must answer; Redis is
// reported but does not fail readiness because the limiter degrades open
// without it.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]string{"database": "ok", "redis": "ok"}
	status := http.StatusOK
	overall := "ok"

	if err := h.pool.Health(ctx); err != nil {
		h.logger.Warn("readiness: database unhealthy", slog.String("error", err.Error()))
		components["database"] = "unavailable"
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	if h.redis == nil {
		components["redis"] = "not configured"
	} else if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn("readiness: redis unhealthy", slog.String("error", err.Error()))
		components["redis"] = "unavailable"
	}

	writeHealth(w, status, HealthResponse{Status: overall, Components: components})
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
