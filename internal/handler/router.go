package handler

import (
	"net/http"

	"github.com/powerfitness/gymd/internal/security"
	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/middleware"
)

// Handlers bundles the HTTP handlers for route registration, shared by
// the server binary and the integration tests.
type Handlers struct {
	Login    *LoginHandler
	Auth     *AuthHandler
	Members  *MemberHandler
	Update   *MemberUpdateHandler
	Delete   *MemberDeleteHandler
	Restore  *MemberRestoreHandler
	History  *HistoryHandler
	Fees     *FeeHandler
	Receipts *ReceiptHandler
	Health   *HealthHandler
}

// RegisterRoutes wires every endpoint with its capability gate.
func RegisterRoutes(mux *http.ServeMux, h Handlers, authz *security.AuthorizationService, auditLog *audit.Logger) {
	guard := func(perm security.Permission, next http.HandlerFunc) http.HandlerFunc {
		return middleware.RequirePermission(authz, perm, auditLog, next)
	}

	mux.Handle("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/register", guard(security.PermManageUsers, h.Auth.Register))
	mux.HandleFunc("GET /api/auth/profile", h.Auth.Profile)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)

	mux.HandleFunc("GET /api/members", guard(security.PermListMembers, h.Members.List))
	mux.HandleFunc("GET /api/members/{id}", guard(security.PermListMembers, h.Members.Get))
	mux.HandleFunc("POST /api/members", guard(security.PermManageMembers, h.Members.Create))
	mux.HandleFunc("PUT /api/members/{id}", guard(security.PermManageMembers, h.Update.ServeHTTP))
	mux.HandleFunc("DELETE /api/members/{id}", guard(security.PermManageMembers, h.Delete.ServeHTTP))
	mux.HandleFunc("POST /api/members/restore/{auditID}", guard(security.PermRestoreMember, h.Restore.ServeHTTP))

	// Download enforces its own admin-or-creator rule.
	mux.HandleFunc("GET /api/members/{id}/receipt", h.Receipts.Download)
	mux.HandleFunc("POST /api/members/{id}/send-receipt", guard(security.PermSendReceipt, h.Receipts.Send))

	mux.HandleFunc("GET /api/history", guard(security.PermViewHistory, h.History.List))
	mux.HandleFunc("DELETE /api/history/{id}", guard(security.PermPruneHistory, h.History.Delete))

	mux.HandleFunc("GET /api/fees", h.Fees.List)
	mux.HandleFunc("POST /api/fees", guard(security.PermManageFees, h.Fees.Create))
	mux.HandleFunc("PUT /api/fees/{id}", guard(security.PermManageFees, h.Fees.Update))
	mux.HandleFunc("DELETE /api/fees/{id}", guard(security.PermManageFees, h.Fees.Delete))

	if h.Health != nil {
		mux.HandleFunc("GET /healthz", h.Health.Health)
		mux.HandleFunc("GET /readyz", h.Health.Readiness)
	}
}
