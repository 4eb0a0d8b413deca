package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/security/auth"
)

const (
	bcryptCost    = 12
	tokenLifetime = time.Hour
)

// AuthService handles credential management and login.
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Login checks a username/password pair and issues a signed token.
// Unknown usernames and wrong passwords produce the same error so the
// response never reveals which part was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role, tokenLifetime)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return token, user, nil
}

// Register creates a new operator account with the "user" role.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.createUser(ctx, username, password, "user")
}

// Profile returns the account behind a user id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Refresh issues a fresh token for an already-authenticated user.
func (s *AuthService) Refresh(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role, tokenLifetime)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
// Called once at startup; a second start is a no-op.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		s.logger.Warn("admin bootstrap skipped, no credentials configured")
		return nil
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if _, err := s.createUser(ctx, username, password, "admin"); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("bootstrapping admin account: %w", err)
	}
	s.logger.Info("admin account bootstrapped", "username", username)
	return nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, &domain.ValidationError{Field: "username", Reason: "is required"}
	}
	if len(password) < 6 {
		return nil, &domain.ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
