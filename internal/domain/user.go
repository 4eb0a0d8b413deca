package domain

import (
	"context"
	"time"
)

// User represents a credential holder who can operate the system
type User struct {
	ID           string // UUID
	Username     string // Unique, stored lowercase
	PasswordHash string // Bcrypt hash (never returned in API responses)
	Role         string // "admin" or "user"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines data access for credentials
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
}
