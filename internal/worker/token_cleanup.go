package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/personnelapi/internal/domain"
	"github.com/yourorg/personnelapi/internal/observability/metrics"
)

// TokenCleanupWorker periodically removes expired token rows. Expired
// tokens are already rejected at validation time; the worker keeps the
// table from accumulating dead rows.
type TokenCleanupWorker struct {
	tokens   domain.TokenRepository
	logger   *slog.Logger
	interval time.Duration
}

// NewTokenCleanupWorker creates a new cleanup worker.
func NewTokenCleanupWorker(tokens domain.TokenRepository, logger *slog.Logger, interval time.Duration) *TokenCleanupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCleanupWorker{tokens: tokens, logger: logger, interval: interval}
}

// Start runs the cleanup loop until ctx is canceled.
func (w *TokenCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("token cleanup worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("token cleanup worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *TokenCleanupWorker) runOnce(ctx context.Context) {
	purged, err := w.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		w.logger.Error("token cleanup failed", slog.String("error", err.Error()))
		return
	}
	if purged > 0 {
		metrics.ObserveTokensPurged(purged)
		w.logger.Info("expired tokens purged", slog.Int("count", purged))
	}
}
