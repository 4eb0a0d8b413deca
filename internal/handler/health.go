package handler

import (
	"log/slog"
	"net/http"

	"github.com/powerfitness/gymd/internal/infrastructure/redis"
	"github.com/powerfitness/gymd/pkg/database"
)

// HealthHandler handles liveness and readiness probes
type HealthHandler struct {
	pool   *database.ConnectionPool
	redis  *redis.Client
	logger *slog.Logger
}

func NewHealthHandler(pool *database.ConnectionPool, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{pool: pool, redis: redisClient, logger: logger}
}

// HealthResponse represents the liveness status
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse reports per-dependency checks
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz. Returns 200 whenever the process serves.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness handles GET /readyz. Postgres must answer; Redis is
// reported but not required, matching the limiter's fail-open stance.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if err := h.pool.Health(r.Context()); err != nil {
		checks["postgres"] = "unavailable: " + err.Error()
		ready = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = "unavailable: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := http.StatusOK
	resp := ReadinessResponse{Status: "ready", Checks: checks}
	if !ready {
		status = http.StatusServiceUnavailable
		resp.Status = "not ready"
	}
	writeJSON(w, status, resp)
}
