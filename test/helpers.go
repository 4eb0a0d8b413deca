package test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/handler"
	"github.com/powerfitness/gymd/internal/infrastructure/logger"
	"github.com/powerfitness/gymd/internal/notification"
	"github.com/powerfitness/gymd/internal/security"
	"github.com/powerfitness/gymd/internal/security/audit"
	"github.com/powerfitness/gymd/internal/security/auth"
	"github.com/powerfitness/gymd/internal/security/middleware"
	"github.com/powerfitness/gymd/internal/service"
	"github.com/powerfitness/gymd/pkg/config"
)

// TestServerHelper runs the full HTTP surface against in-memory stores,
// with the real JWT gate and permission checks in the chain.
type TestServerHelper struct {
	Server *httptest.Server
	Logger *slog.Logger

	AuthService   *service.AuthService
	MemberService *service.MemberService
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := logger.NewLogger("error")
	tokenManager, err := auth.NewTokenManager("integration-test-secret", "gymd-test")
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	users := newUserStore()
	members := newMemberStore()
	history := newHistoryStore()
	fees := newFeeStore()

	authService := service.NewAuthService(users, tokenManager, log)
	memberService := service.NewMemberService(nil, members, history, nil, log)
	feeService := service.NewFeeService(fees, log)

	renderer := notification.NewReceiptRenderer("Test Gym")
	mailer := notification.NewMailer(config.SMTPConfig{}, log)
	dispatcher := notification.NewDispatcher(renderer, mailer, log)

	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Login:    handler.NewLoginHandler(authService, nil, auditLogger, log),
		Auth:     handler.NewAuthHandler(authService, log),
		Members:  handler.NewMemberHandler(memberService, nil, auditLogger, log),
		Update:   handler.NewMemberUpdateHandler(memberService, nil, auditLogger, log),
		Delete:   handler.NewMemberDeleteHandler(memberService, auditLogger, log),
		Restore:  handler.NewMemberRestoreHandler(memberService, auditLogger, log),
		History:  handler.NewHistoryHandler(memberService, log),
		Fees:     handler.NewFeeHandler(feeService, log),
		Receipts: handler.NewReceiptHandler(memberService, renderer, dispatcher, log),
	}, authz, auditLogger)

	root := middleware.JWTMiddleware(tokenManager, users, log)(mux)
	server := httptest.NewServer(root)
	t.Cleanup(server.Close)

	return &TestServerHelper{
		Server:        server,
		Logger:        log,
		AuthService:   authService,
		MemberService: memberService,
	}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// BootstrapAdmin creates the admin account and returns a bearer token.
func (h *TestServerHelper) BootstrapAdmin(t *testing.T) string {
	t.Helper()
	if err := h.AuthService.EnsureAdmin(context.Background(), "admin", "adminpass"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	return h.LoginAs(t, "admin", "adminpass")
}

// LoginAs performs a login over HTTP and returns the issued token.
func (h *TestServerHelper) LoginAs(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(h.URL()+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s failed with status %d", username, resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return out.Token
}

// DoJSON issues a JSON request with an optional bearer token.
func (h *TestServerHelper) DoJSON(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.URL()+path, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return out
}

// In-memory stores backing the test server.

type userStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserStore() *userStore { return &userStore{users: make(map[string]*domain.User)} }

func (s *userStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return domain.ErrConflict
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *userStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *userStore) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

type memberStore struct {
	mu      sync.Mutex
	members map[string]*domain.Member
}

func newMemberStore() *memberStore { return &memberStore{members: make(map[string]*domain.Member)} }

func (s *memberStore) WithTx(*sql.Tx) domain.MemberRepository { return s }

func (s *memberStore) Create(_ context.Context, m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.Phone == m.Phone || (m.Email != "" && existing.Email == m.Email) {
			return domain.ErrConflict
		}
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

func (s *memberStore) GetByID(_ context.Context, id string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *memberStore) GetByPhone(_ context.Context, phone string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.Phone == phone {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memberStore) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.Email != "" && m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memberStore) Update(_ context.Context, m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; !ok {
		return domain.ErrNotFound
	}
	m.UpdatedAt = time.Now()
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

func (s *memberStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *memberStore) List(_ context.Context) ([]*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Member, 0, len(s.members))
	for _, m := range s.members {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memberStore) ListExpiringOn(_ context.Context, day time.Time) ([]*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var out []*domain.Member
	for _, m := range s.members {
		if !m.ExpiryDate.Before(start) && m.ExpiryDate.Before(end) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type historyStore struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func newHistoryStore() *historyStore { return &historyStore{} }

func (s *historyStore) WithTx(*sql.Tx) domain.AuditRepository { return s }

func (s *historyStore) Append(_ context.Context, e *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = time.Now()
	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *historyStore) GetByID(_ context.Context, id string) (*domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *historyStore) List(_ context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev := make([]*domain.AuditEntry, len(s.entries))
	for i, e := range s.entries {
		cp := *e
		rev[len(s.entries)-1-i] = &cp
	}
	if offset >= len(rev) {
		return nil, nil
	}
	rev = rev[offset:]
	if limit > 0 && limit < len(rev) {
		rev = rev[:limit]
	}
	return rev, nil
}

func (s *historyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type feeStore struct {
	mu    sync.Mutex
	plans map[string]*domain.FeePlan
}

func newFeeStore() *feeStore { return &feeStore{plans: make(map[string]*domain.FeePlan)} }

func (s *feeStore) Create(_ context.Context, p *domain.FeePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.plans {
		if existing.PlanName == p.PlanName {
			return domain.ErrConflict
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.plans[p.ID] = &cp
	return nil
}

func (s *feeStore) GetByID(_ context.Context, id string) (*domain.FeePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *feeStore) Update(_ context.Context, p *domain.FeePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	s.plans[p.ID] = &cp
	return nil
}

func (s *feeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *feeStore) List(_ context.Context) ([]*domain.FeePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.FeePlan, 0, len(s.plans))
	for _, p := range s.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
