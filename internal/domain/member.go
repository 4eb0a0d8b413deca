package domain

import (
	"context"
	"database/sql"
	"time"
)

// Member represents an active gym member
type Member struct {
	ID         string       // UUID
	Name       string       // Required
	Phone      string       // Required, unique among active members
	Email      string       // Optional, unique among active members when set
	Sex        string       // "Male" or "Female"
	Duration   PlanDuration // Plan duration descriptor
	AmountPaid float64
	Due        float64
	Avatar     string    // Object key of the uploaded avatar, empty if none
	ExpiryDate time.Time // Join date plus the plan duration
	CreatedBy  string    // User ID of the actor who created the record
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MemberPatch is a sparse update: nil fields are left unchanged.
// Empty strings are treated as absent, matching the admin UI which
// submits every form field on edit.
type MemberPatch struct {
	Name       *string
	Phone      *string
	Email      *string
	Sex        *string
	Duration   *PlanDuration
	AmountPaid *float64
	Due        *float64
	Avatar     *string
}

// MemberRepository defines data access for members.
// WithTx returns a repository bound to the given transaction so the
// lifecycle service can pair a member write with its audit entry.
type MemberRepository interface {
	WithTx(tx *sql.Tx) MemberRepository
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByPhone(ctx context.Context, phone string) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	Update(ctx context.Context, member *Member) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Member, error)
	ListExpiringOn(ctx context.Context, day time.Time) ([]*Member, error)
}
