package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/security/ratelimit"
	"github.com/powerfitness/gymd/internal/service"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse contains the issued token and account summary
type LoginResponse struct {
	Token string       `json:"token"`
	Role  string       `json:"role"`
	User  UserResponse `json:"user"`
}

// LoginHandler handles user authentication. Login attempts get a strict
// per-IP window on top of the general rate limit.
type LoginHandler struct {
	authService *service.AuthService
	limiter     *ratelimit.Limiter
	auditLog    *audit.Logger
	logger      *slog.Logger
}

func NewLoginHandler(authService *service.AuthService, limiter *ratelimit.Limiter, auditLog *audit.Logger, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		authService: authService,
		limiter:     limiter,
		auditLog:    auditLog,
		logger:      logger,
	}
}

// ServeHTTP handles POST /api/auth/login requests
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)
	if h.limiter != nil && !h.limiter.AllowStrict(r.Context(), ip, middleware.LoginMaxAttempts, middleware.LoginWindow) {
		h.logger.Warn("login attempts throttled", slog.String("ip", ip))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "too many login attempts"})
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if h.auditLog != nil {
			h.auditLog.LogLogin(r.Context(), req.Username, ip, false)
		}
		writeDomainError(w, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogLogin(r.Context(), user.Username, ip, true)
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Role:  user.Role,
		User:  toUserResponse(user),
	})
}
