package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/security/auth"
)

func newTestAuthService(t *testing.T) (*AuthService, *memUserRepo) {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret-for-auth-service", "gymd-test")
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	users := newMemUserRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(users, tokens, logger), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Desk.Staff", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Username != "desk.staff" {
		t.Fatalf("username must be stored lowercase, got %q", user.Username)
	}
	if user.Role != "user" {
		t.Fatalf("self-registered accounts get the user role, got %q", user.Role)
	}
	if user.PasswordHash == "secret1" {
		t.Fatal("password must not be stored in the clear")
	}

	token, loggedIn, err := svc.Login(ctx, "DESK.STAFF", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || loggedIn.ID != user.ID {
		t.Fatal("login must return a token for the registered account")
	}
}

func TestLoginUniformFailure(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "front", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, wrongPass := svc.Login(ctx, "front", "wrong")
	_, _, noUser := svc.Login(ctx, "nobody", "whatever")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected invalid credentials, got %v", wrongPass)
	}
	if !errors.Is(noUser, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected invalid credentials, got %v", noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Fatal("login failures must be indistinguishable")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "secret1"); !domain.IsValidation(err) {
		t.Fatalf("empty username: expected validation error, got %v", err)
	}
	if _, err := svc.Register(ctx, "short", "12345"); !domain.IsValidation(err) {
		t.Fatalf("short password: expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "taken", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "TAKEN", "secret2"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestEnsureAdminIdempotent(t *testing.T) {
	svc, users := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "boss", "secret1"); err != nil {
		t.Fatalf("first bootstrap failed: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "boss", "different"); err != nil {
		t.Fatalf("second bootstrap must be a no-op, got %v", err)
	}

	admin, err := users.GetByUsername(ctx, "boss")
	if err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if admin.Role != "admin" {
		t.Fatalf("bootstrap account must be admin, got %q", admin.Role)
	}

	// Second bootstrap kept the original password.
	if _, _, err := svc.Login(ctx, "boss", "secret1"); err != nil {
		t.Fatalf("original password must still work: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "rotator", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Refresh(ctx, user.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a fresh token")
	}
	if _, err := svc.Refresh(ctx, "gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("refresh for missing user: expected not found, got %v", err)
	}
}
