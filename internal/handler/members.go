package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
	"github.com/powerfitness/gymd/internal/storage"
)

const maxAvatarBytes = 2 << 20

// MemberHandler handles member listing and registration
type MemberHandler struct {
	memberService *service.MemberService
	avatars       *storage.AvatarStore
	auditLog      *audit.Logger
	logger        *slog.Logger
}

func NewMemberHandler(memberService *service.MemberService, avatars *storage.AvatarStore, auditLog *audit.Logger, logger *slog.Logger) *MemberHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberHandler{
		memberService: memberService,
		avatars:       avatars,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// List handles GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.List(r.Context())
	if err != nil {
		h.logger.Error("listing members failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponses(members))
}

// Get handles GET /api/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.memberService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

// Create handles POST /api/members. The body is either JSON or a
// multipart form with an optional avatar image.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	input, avatar, err := h.decodeMemberForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if avatar != nil {
		key, err := storeAvatar(r, h.avatars, avatar, uuid.New().String(), h.logger)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		input.Avatar = key
	}

	member, err := h.memberService.Create(r.Context(), input, claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogMemberMutation(r.Context(), claims.UserID, "create", member.ID)
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

// decodeMemberForm reads a create request from either encoding.
func (h *MemberHandler) decodeMemberForm(r *http.Request) (service.CreateMemberInput, *multipart.FileHeader, error) {
	var input service.CreateMemberInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req struct {
			Name       string  `json:"name"`
			Phone      string  `json:"phone"`
			Email      string  `json:"email"`
			Sex        string  `json:"sex"`
			Duration   string  `json:"duration"`
			AmountPaid float64 `json:"amountPaid"`
			Due        float64 `json:"due"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return input, nil, errInvalidBody
		}
		input = service.CreateMemberInput{
			Name:       req.Name,
			Phone:      req.Phone,
			Email:      req.Email,
			Sex:        req.Sex,
			Duration:   req.Duration,
			AmountPaid: req.AmountPaid,
			Due:        req.Due,
		}
		return input, nil, nil
	}

	if err := r.ParseMultipartForm(maxAvatarBytes + 1<<20); err != nil {
		return input, nil, errInvalidBody
	}
	input = service.CreateMemberInput{
		Name:     r.FormValue("name"),
		Phone:    r.FormValue("phone"),
		Email:    r.FormValue("email"),
		Sex:      r.FormValue("sex"),
		Duration: r.FormValue("duration"),
	}
	if v := r.FormValue("amountPaid"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, nil, errInvalidBody
		}
		input.AmountPaid = f
	}
	if v := r.FormValue("due"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, nil, errInvalidBody
		}
		input.Due = f
	}

	var avatar *multipart.FileHeader
	if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
		avatar = files[0]
	}
	return input, avatar, nil
}

// storeAvatar validates and uploads an avatar image, returning the
// object key. Uploads are rejected when object storage is not configured.
func storeAvatar(r *http.Request, avatars *storage.AvatarStore, header *multipart.FileHeader, key string, logger *slog.Logger) (string, error) {
	if avatars == nil {
		return "", errAvatarsDisabled
	}
	if header.Size > maxAvatarBytes {
		return "", errAvatarTooLarge
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", errAvatarNotImage
	}

	file, err := header.Open()
	if err != nil {
		return "", errInvalidBody
	}
	defer file.Close()

	objectKey, err := avatars.Upload(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		logger.Error("avatar upload failed", slog.String("error", err.Error()))
		return "", errAvatarUpload
	}
	return objectKey, nil
}
