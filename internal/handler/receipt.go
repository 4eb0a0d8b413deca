package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/powerfitness/gymd/internal/notification"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
)

// ReceiptHandler renders and delivers payment receipts
type ReceiptHandler struct {
	memberService *service.MemberService
	renderer      *notification.ReceiptRenderer
	dispatcher    *notification.Dispatcher
	logger        *slog.Logger
}

func NewReceiptHandler(memberService *service.MemberService, renderer *notification.ReceiptRenderer, dispatcher *notification.Dispatcher, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		memberService: memberService,
		renderer:      renderer,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Download handles GET /api/members/{id}/receipt. Admins can download
// any receipt; other operators only for members they registered.
func (h *ReceiptHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	member, err := h.memberService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if claims.Role != "admin" && member.CreatedBy != claims.UserID {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return
	}

	pdf, err := h.renderer.Render(member)
	if err != nil {
		h.logger.Error("receipt rendering failed",
			slog.String("member_id", member.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "receipt rendering failed"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, member.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// Send handles POST /api/members/{id}/send-receipt. Unlike the
// create-time notification this dispatch is synchronous so the caller
// learns whether delivery worked.
func (h *ReceiptHandler) Send(w http.ResponseWriter, r *http.Request) {
	member, err := h.memberService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if member.Email == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "member has no email address"})
		return
	}

	if err := h.dispatcher.SendReceipt(r.Context(), member); err != nil {
		h.logger.Error("receipt delivery failed",
			slog.String("member_id", member.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "receipt delivery failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "receipt sent"})
}
