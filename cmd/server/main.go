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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/powerfitness/gymd/internal/handler"
	"github.com/powerfitness/gymd/internal/infrastructure/logger"
	"github.com/powerfitness/gymd/internal/infrastructure/redis"
	"github.com/powerfitness/gymd/internal/notification"
	"github.com/powerfitness/gymd/internal/observability/metrics"
	"github.com/powerfitness/gymd/internal/observability/tracing"
	"github.com/powerfitness/gymd/internal/repository"
	"github.com/powerfitness/gymd/internal/security"
	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/auth"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/security/ratelimit"
	"github.com/powerfitness/gymd/internal/service"
	"github.com/powerfitness/gymd/internal/storage"
	"github.com/powerfitness/gymd/internal/worker"
	"github.com/powerfitness/gymd/pkg/config"
	"github.com/powerfitness/gymd/pkg/database"
)

func main() {
	// 1. Load configuration; missing JWT secret aborts here
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting gymd server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op without an OTLP endpoint configured)
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Config{
		ServiceName: "gymd",
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Postgres pool + schema bootstrap
	pool, err := database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Migrate(ctx); err != nil {
		log.Error("schema bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Redis for rate-limit counters; the limiter fails open, so a
	// missing Redis degrades limits instead of blocking startup.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, rate limiting degraded", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 6. Avatar object storage (optional)
	avatarStore, err := storage.NewAvatarStore(ctx, cfg.MinIO, log)
	if err != nil {
		log.Error("failed to initialize object storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	memberRepo := repository.NewPostgresMemberRepository(pool.DB(), log)
	auditRepo := repository.NewPostgresAuditRepository(pool.DB(), log)
	userRepo := repository.NewPostgresUserRepository(pool.DB(), log)
	feeRepo := repository.NewPostgresFeePlanRepository(pool.DB(), log)

	// 8. Security components
	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenIssuer)
	if err != nil {
		log.Error("failed to initialize token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)
	var limiterBackend ratelimit.Counter
	if redisClient != nil {
		limiterBackend = redisClient
	} else {
		limiterBackend = ratelimit.NopCounter{}
	}
	rateLimiter := ratelimit.NewLimiter(limiterBackend, cfg.RateLimitPerMinute, time.Minute, log)

	// 9. Notification stack
	renderer := notification.NewReceiptRenderer("PowerFitness")
	mailer := notification.NewMailer(cfg.SMTP, log)
	dispatcher := notification.NewDispatcher(renderer, mailer, log)
	go dispatcher.Start(ctx)

	// 10. Services
	memberService := service.NewMemberService(pool.DB(), memberRepo, auditRepo, dispatcher, log)
	authService := service.NewAuthService(userRepo, tokenManager, log)
	feeService := service.NewFeeService(feeRepo, log)

	if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("admin bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Reminder worker
	reminderWorker := worker.NewReminderWorker(
		memberRepo,
		dispatcher,
		log,
		time.Duration(cfg.ReminderIntervalHours)*time.Hour,
		cfg.ReminderLeadDays,
	)
	go reminderWorker.Start(ctx)

	// 12. Routes
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Login:    handler.NewLoginHandler(authService, rateLimiter, auditLogger, log),
		Auth:     handler.NewAuthHandler(authService, log),
		Members:  handler.NewMemberHandler(memberService, avatarStore, auditLogger, log),
		Update:   handler.NewMemberUpdateHandler(memberService, avatarStore, auditLogger, log),
		Delete:   handler.NewMemberDeleteHandler(memberService, auditLogger, log),
		Restore:  handler.NewMemberRestoreHandler(memberService, auditLogger, log),
		History:  handler.NewHistoryHandler(memberService, log),
		Fees:     handler.NewFeeHandler(feeService, log),
		Receipts: handler.NewReceiptHandler(memberService, renderer, dispatcher, log),
		Health:   handler.NewHealthHandler(pool, redisClient, log),
	}, authz, auditLogger)
	mux.Handle("GET /metrics", promhttp.Handler())

	// CORS honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain: request ID -> JWT -> audit -> rate limit -> content type -> CORS -> mux.
	// Audit and rate limiting key off the claims, so JWT must run first.
	rootHandler := withRequestID(
		middleware.JWTMiddleware(tokenManager, userRepo, log)(
			middleware.AuditMiddleware(auditLogger)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.ValidateContentType(log)(handlerWithCORS),
				),
			),
		),
		log,
	)
	rootHandler = metrics.HTTPMetricsMiddleware(rootHandler)
	rootHandler = otelhttp.NewHandler(rootHandler, "gymd.http")

	// 13. HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit_per_minute", cfg.RateLimitPerMinute),
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

	cancel() // stops the dispatcher and reminder worker
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// withRequestID attaches a request ID to the context and response headers for traceability
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
