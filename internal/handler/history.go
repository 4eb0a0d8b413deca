package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryHandler serves the member history log
type HistoryHandler struct {
	memberService *service.MemberService
	logger        *slog.Logger
}

func NewHistoryHandler(memberService *service.MemberService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{memberService: memberService, logger: logger}
}

// List handles GET /api/history?limit&offset, newest first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "offset must not be negative"})
			return
		}
		offset = n
	}

	entries, err := h.memberService.History(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing history failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}

	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /api/history/{id}. Pruning an entry never
// touches member records.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "history entry id required"})
		return
	}

	actorID := ""
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		actorID = claims.UserID
	}
	if err := h.memberService.PruneHistoryEntry(r.Context(), id, actorID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "history entry deleted"})
}
