package handler

import (
	"log/slog"
	"net/http"

	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
)

// MemberDeleteHandler handles member removal
type MemberDeleteHandler struct {
	memberService *service.MemberService
	auditLog      *audit.Logger
	logger        *slog.Logger
}

func NewMemberDeleteHandler(memberService *service.MemberService, auditLog *audit.Logger, logger *slog.Logger) *MemberDeleteHandler {
	return &MemberDeleteHandler{
		memberService: memberService,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// ServeHTTP handles DELETE /api/members/{id}. The removal is permanent;
// the final snapshot stays on the history log for restore.
func (h *MemberDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "member id required"})
		return
	}

	if err := h.memberService.Delete(r.Context(), id, claims.UserID); err != nil {
		writeDomainError(w, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogMemberMutation(r.Context(), claims.UserID, "delete", id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "member deleted"})
}
