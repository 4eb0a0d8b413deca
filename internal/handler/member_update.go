package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
	"github.com/powerfitness/gymd/internal/storage"
)

// MemberUpdateHandler handles sparse member edits
type MemberUpdateHandler struct {
	memberService *service.MemberService
	avatars       *storage.AvatarStore
	auditLog      *audit.Logger
	logger        *slog.Logger
}

func NewMemberUpdateHandler(memberService *service.MemberService, avatars *storage.AvatarStore, auditLog *audit.Logger, logger *slog.Logger) *MemberUpdateHandler {
	return &MemberUpdateHandler{
		memberService: memberService,
		avatars:       avatars,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// ServeHTTP handles PUT /api/members/{id}. Fields absent from the body
// are left unchanged on the member.
func (h *MemberUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	patch, err := h.decodePatch(r, id)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	member, err := h.memberService.Update(r.Context(), id, patch, claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogMemberMutation(r.Context(), claims.UserID, "update", member.ID)
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

func (h *MemberUpdateHandler) decodePatch(r *http.Request, memberID string) (domain.MemberPatch, error) {
	var patch domain.MemberPatch

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req struct {
			Name       *string  `json:"name"`
			Phone      *string  `json:"phone"`
			Email      *string  `json:"email"`
			Sex        *string  `json:"sex"`
			Duration   *string  `json:"duration"`
			AmountPaid *float64 `json:"amountPaid"`
			Due        *float64 `json:"due"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return patch, errInvalidBody
		}
		patch.Name = req.Name
		patch.Phone = req.Phone
		patch.Email = req.Email
		patch.Sex = req.Sex
		if req.Duration != nil {
			d := domain.PlanDuration(*req.Duration)
			patch.Duration = &d
		}
		patch.AmountPaid = req.AmountPaid
		patch.Due = req.Due
		return patch, nil
	}

	if err := r.ParseMultipartForm(maxAvatarBytes + 1<<20); err != nil {
		return patch, errInvalidBody
	}
	setIfPresent := func(dst **string, field string) {
		if vs, ok := r.MultipartForm.Value[field]; ok && len(vs) > 0 {
			v := vs[0]
			*dst = &v
		}
	}
	setIfPresent(&patch.Name, "name")
	setIfPresent(&patch.Phone, "phone")
	setIfPresent(&patch.Email, "email")
	setIfPresent(&patch.Sex, "sex")
	if vs, ok := r.MultipartForm.Value["duration"]; ok && len(vs) > 0 {
		d := domain.PlanDuration(vs[0])
		patch.Duration = &d
	}
	for field, dst := range map[string]**float64{"amountPaid": &patch.AmountPaid, "due": &patch.Due} {
		if vs, ok := r.MultipartForm.Value[field]; ok && len(vs) > 0 && vs[0] != "" {
			f, err := strconv.ParseFloat(vs[0], 64)
			if err != nil {
				return patch, errInvalidBody
			}
			*dst = &f
		}
	}

	if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
		key, err := storeAvatar(r, h.avatars, files[0], memberID, h.logger)
		if err != nil {
			return patch, err
		}
		patch.Avatar = &key
	}
	return patch, nil
}
