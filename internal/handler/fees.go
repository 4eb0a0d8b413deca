package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/powerfitness/gymd/internal/service"
)

// FeeHandler handles fee plan endpoints. Listing is public; writes are
// admin only (enforced at route registration).
type FeeHandler struct {
	feeService *service.FeeService
	logger     *slog.Logger
}

func NewFeeHandler(feeService *service.FeeService, logger *slog.Logger) *FeeHandler {
	return &FeeHandler{feeService: feeService, logger: logger}
}

// FeePlanRequest represents a create or update body
type FeePlanRequest struct {
	PlanName    string  `json:"planName"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Offer       string  `json:"offer"`
}

// List handles GET /api/fees
func (h *FeeHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.feeService.List(r.Context())
	if err != nil {
		h.logger.Error("listing fee plans failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	out := make([]FeePlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toFeePlanResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/fees
func (h *FeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req FeePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	plan, err := h.feeService.Create(r.Context(), service.FeePlanInput(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeePlanResponse(plan))
}

// Update handles PUT /api/fees/{id}
func (h *FeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req FeePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	plan, err := h.feeService.Update(r.Context(), r.PathValue("id"), service.FeePlanInput(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFeePlanResponse(plan))
}

// Delete handles DELETE /api/fees/{id}
func (h *FeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.feeService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "fee plan deleted"})
}
