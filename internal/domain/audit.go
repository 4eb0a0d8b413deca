package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// AuditAction identifies the lifecycle action an audit entry records
type AuditAction string

const (
	ActionCreated  AuditAction = "Created"
	ActionUpdated  AuditAction = "Updated"
	ActionDeleted  AuditAction = "Deleted"
	ActionRestored AuditAction = "Restored"
)

// AuditEntry is an append-only record of a member lifecycle action.
// Snapshot holds the member's full field values after the action
// (before removal, for deletes). Entries are never mutated; an admin
// may prune them independently of member state.
type AuditEntry struct {
	ID              string      // UUID
	MemberID        string      // Member the action concerns
	Action          AuditAction // Created, Updated, Deleted or Restored
	Snapshot        json.RawMessage
	PerformedBy     string // User ID of the actor
	PerformedByName string // Username, resolved on read
	CreatedAt       time.Time
}

// MemberSnapshot is the snapshot payload stored on an audit entry.
// It carries the member's business fields plus the identity and
// timestamps that Restore strips before creating the new record.
type MemberSnapshot struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Phone      string       `json:"phone"`
	Email      string       `json:"email,omitempty"`
	Sex        string       `json:"sex"`
	Duration   PlanDuration `json:"duration"`
	AmountPaid float64      `json:"amountPaid"`
	Due        float64      `json:"due"`
	Avatar     string       `json:"avatar,omitempty"`
	ExpiryDate time.Time    `json:"expiryDate"`
	CreatedBy  string       `json:"createdBy,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// SnapshotOf captures a member's current state for an audit entry
func SnapshotOf(m *Member) (json.RawMessage, error) {
	return json.Marshal(MemberSnapshot{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		Sex:        m.Sex,
		Duration:   m.Duration,
		AmountPaid: m.AmountPaid,
		Due:        m.Due,
		Avatar:     m.Avatar,
		ExpiryDate: m.ExpiryDate,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	})
}

// AuditRepository defines data access for the member history log
type AuditRepository interface {
	WithTx(tx *sql.Tx) AuditRepository
	Append(ctx context.Context, entry *AuditEntry) error
	GetByID(ctx context.Context, id string) (*AuditEntry, error)
	List(ctx context.Context, limit, offset int) ([]*AuditEntry, error)
	Delete(ctx context.Context, id string) error
}
