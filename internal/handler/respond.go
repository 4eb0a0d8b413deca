package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
)

// ErrorResponse represents an error response body
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything unrecognized is a 500 with a generic body so internals never
// leak to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// MemberResponse is the wire shape of a member
type MemberResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	Sex        string    `json:"sex"`
	Duration   string    `json:"duration"`
	AmountPaid float64   `json:"amountPaid"`
	Due        float64   `json:"due"`
	Avatar     string    `json:"avatar,omitempty"`
	ExpiryDate time.Time `json:"expiryDate"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		Sex:        m.Sex,
		Duration:   string(m.Duration),
		AmountPaid: m.AmountPaid,
		Due:        m.Due,
		Avatar:     m.Avatar,
		ExpiryDate: m.ExpiryDate,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toMemberResponses(members []*domain.Member) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	return out
}

// HistoryEntryResponse is the wire shape of an audit entry
type HistoryEntryResponse struct {
	ID          string          `json:"id"`
	MemberID    string          `json:"memberId"`
	Action      string          `json:"action"`
	Snapshot    json.RawMessage `json:"snapshot"`
	PerformedBy string          `json:"performedBy"`
	Performer   string          `json:"performer,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toHistoryResponse(e *domain.AuditEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:          e.ID,
		MemberID:    e.MemberID,
		Action:      string(e.Action),
		Snapshot:    e.Snapshot,
		PerformedBy: e.PerformedBy,
		Performer:   e.PerformedByName,
		CreatedAt:   e.CreatedAt,
	}
}

// UserResponse is the wire shape of a credential holder, hash excluded
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

// FeePlanResponse is the wire shape of a fee plan
type FeePlanResponse struct {
	ID          string    `json:"id"`
	PlanName    string    `json:"planName"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Offer       string    `json:"offer,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toFeePlanResponse(p *domain.FeePlan) FeePlanResponse {
	return FeePlanResponse{
		ID:          p.ID,
		PlanName:    p.PlanName,
		Amount:      p.Amount,
		Description: p.Description,
		Offer:       p.Offer,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
