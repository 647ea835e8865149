package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/personnelapi/internal/handler"
	"github.com/yourorg/personnelapi/internal/infrastructure/logger"
	"github.com/yourorg/personnelapi/internal/infrastructure/redis"
	"github.com/yourorg/personnelapi/internal/observability/metrics"
	"github.com/yourorg/personnelapi/internal/observability/tracing"
	"github.com/yourorg/personnelapi/internal/reliability/retry"
	"github.com/yourorg/personnelapi/internal/repository"
	"github.com/yourorg/personnelapi/internal/security"
	"github.com/yourorg/personnelapi/internal/security/audit"
	"github.com/yourorg/personnelapi/internal/security/auth"
	"github.com/yourorg/personnelapi/internal/security/middleware"
	"github.com/yourorg/personnelapi/internal/security/ratelimit"
	"github.com/yourorg/personnelapi/internal/service"
	"github.com/yourorg/personnelapi/internal/worker"
	"github.com/yourorg/personnelapi/pkg/config"
	"github.com/yourorg/personnelapi/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting personnel API server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect database", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, cfg.DatabaseURL, database.DefaultPoolOptions(), log)
	})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis only backs the login rate limiter, which fails open, so a
	// missing Redis degrades instead of blocking startup.
	redisClient, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect redis", func(ctx context.Context) (*redis.Client, error) {
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil
	})
	if err != nil {
		log.Warn("redis unavailable, login rate limiting disabled", slog.String("error", err.Error()))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	db := pool.GetDB()
	userRepo := repository.NewPostgresUserRepository(db, log)
	tokenRepo := repository.NewPostgresTokenRepository(db, log)
	departmentRepo := repository.NewPostgresDepartmentRepository(db, log)
	personnelRepo := repository.NewPostgresPersonnelRepository(db, log)

	authService := service.NewAuthService(userRepo, log)
	tokenService := service.NewTokenService(tokenRepo, userRepo, cfg.TokenTTL, log)
	departmentService := service.NewDepartmentService(departmentRepo, personnelRepo, log)
	personnelService := service.NewPersonnelService(personnelRepo, departmentRepo, log)

	sessions := auth.NewSessionManager(cfg.SecretKey, "personnelapi", cfg.SessionTTL, cfg.Environment != "development")
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)

	var loginLimiter *ratelimit.Limiter
	if redisClient != nil {
		loginLimiter = ratelimit.NewLimiter(redisClient, cfg.LoginRateLimit, cfg.LoginRateWindow, log)
	}

	mux := handler.NewRouter(handler.RouterDeps{
		Auth:         handler.NewAuthHandler(authService, tokenService, sessions, auditLogger, log),
		Tokens:       handler.NewTokenHandler(tokenService, auditLogger, log),
		Departments:  handler.NewDepartmentHandler(departmentService, repository.DepartmentSchema(cfg.PageSizeDefault, cfg.PageSizeMax), log),
		Personnels:   handler.NewPersonnelHandler(personnelService, repository.PersonnelSchema(cfg.PageSizeDefault, cfg.PageSizeMax), log),
		Health:       handler.NewHealthHandler(pool, redisClient, log),
		Authz:        authz,
		LoginLimiter: loginLimiter,
		Logger:       log,
	})

	// CORS honoring configured origins; preflight is answered here.
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain: request ID -> metrics -> tracing -> content type -> auth -> CORS -> routes
	rootHandler := withRequestID(
		metrics.HTTPMiddleware(
			otelhttp.NewHandler(
				middleware.ValidateJSONContentType(log)(
					middleware.Authentication(sessions, tokenService, userRepo, log)(handlerWithCORS),
				),
				"personnelapi",
			),
		),
		log,
	)

	cleanupWorker := worker.NewTokenCleanupWorker(tokenRepo, log, cfg.TokenCleanupEvery)
	go cleanupWorker.Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("rate_limiting", loginLimiter != nil),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop the cleanup worker
	log.Info("server stopped")
}

// withRequestID attaches a request ID to the context and response headers,
// and logs request completion.
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := audit.WithRequestID(r.Context(), reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
