package handler

import (
	"log/slog"
	"net/http"

	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
)

// MemberRestoreHandler recreates members from Deleted history entries
type MemberRestoreHandler struct {
	memberService *service.MemberService
	auditLog      *audit.Logger
	logger        *slog.Logger
}

func NewMemberRestoreHandler(memberService *service.MemberService, auditLog *audit.Logger, logger *slog.Logger) *MemberRestoreHandler {
	return &MemberRestoreHandler{
		memberService: memberService,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// ServeHTTP handles POST /api/members/restore/{auditID}
func (h *MemberRestoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	auditID := r.PathValue("auditID")
	if auditID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "history entry id required"})
		return
	}

	member, err := h.memberService.Restore(r.Context(), auditID, claims.UserID)
	if err != nil {
		h.logger.Warn("restore rejected",
			slog.String("entry_id", auditID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogMemberMutation(r.Context(), claims.UserID, "restore", member.ID)
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}
