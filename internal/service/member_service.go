package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/observability/metrics"
)

// Notifier queues outbound member notifications. Satisfied by the
// notification dispatcher; nil disables notifications.
type Notifier interface {
	EnqueueReceipt(m *domain.Member)
}

// CreateMemberInput carries the fields accepted when registering a member.
type CreateMemberInput struct {
	Name       string
	Phone      string
	Email      string
	Sex        string
	Duration   string
	AmountPaid float64
	Due        float64
	Avatar     string
}

// MemberService owns the member lifecycle. Every mutation writes the
// member row and its history entry inside one transaction, so the
// history log never disagrees with member state.
type MemberService struct {
	db       *sql.DB
	members  domain.MemberRepository
	history  domain.AuditRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewMemberService(db *sql.DB, members domain.MemberRepository, history domain.AuditRepository, notifier Notifier, logger *slog.Logger) *MemberService {
	return &MemberService{
		db:       db,
		members:  members,
		history:  history,
		notifier: notifier,
		logger:   logger,
	}
}

// withinTx runs fn with transaction-bound repositories. With no database
// handle (in-memory repositories) fn runs against the repositories as-is.
func (s *MemberService) withinTx(ctx context.Context, fn func(members domain.MemberRepository, history domain.AuditRepository) error) error {
	if s.db == nil {
		return fn(s.members, s.history)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.members.WithTx(tx), s.history.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Create registers a new member and records a Created history entry.
func (s *MemberService) Create(ctx context.Context, input CreateMemberInput, actorID string) (*domain.Member, error) {
	if input.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "is required"}
	}
	if input.Phone == "" {
		return nil, &domain.ValidationError{Field: "phone", Reason: "is required"}
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return nil, &domain.ValidationError{Field: "email", Reason: "is not a valid address"}
		}
	}
	if input.AmountPaid < 0 {
		return nil, &domain.ValidationError{Field: "amountPaid", Reason: "must not be negative"}
	}
	if input.Due < 0 {
		return nil, &domain.ValidationError{Field: "due", Reason: "must not be negative"}
	}

	sex := input.Sex
	if sex == "" {
		sex = "Male"
	}
	if sex != "Male" && sex != "Female" {
		return nil, &domain.ValidationError{Field: "sex", Reason: "must be Male or Female"}
	}

	durationInput := input.Duration
	if durationInput == "" {
		durationInput = string(domain.DefaultDuration)
	}
	duration, err := domain.ParseDuration(durationInput)
	if err != nil {
		return nil, err
	}

	if _, err := s.members.GetByPhone(ctx, input.Phone); err == nil {
		return nil, fmt.Errorf("phone %s already registered: %w", input.Phone, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if input.Email != "" {
		if _, err := s.members.GetByEmail(ctx, input.Email); err == nil {
			return nil, fmt.Errorf("email %s already registered: %w", input.Email, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	member := &domain.Member{
		ID:         uuid.New().String(),
		Name:       input.Name,
		Phone:      input.Phone,
		Email:      input.Email,
		Sex:        sex,
		Duration:   duration,
		AmountPaid: input.AmountPaid,
		Due:        input.Due,
		Avatar:     input.Avatar,
		ExpiryDate: duration.ExpiryFrom(now),
		CreatedBy:  actorID,
	}

	err = s.withinTx(ctx, func(members domain.MemberRepository, history domain.AuditRepository) error {
		if err := members.Create(ctx, member); err != nil {
			return err
		}
		return s.appendEntry(ctx, history, member, domain.ActionCreated, actorID)
	})
	if err != nil {
		metrics.ObserveMemberOperation("create", "error")
		return nil, err
	}

	metrics.ObserveMemberOperation("create", "ok")
	s.logger.Info("member created", "member_id", member.ID, "actor", actorID)
	if s.notifier != nil {
		s.notifier.EnqueueReceipt(member)
	}
	return member, nil
}

// Update applies a sparse patch to a member and records an Updated entry.
// A changed plan duration restarts the membership clock from now.
func (s *MemberService) Update(ctx context.Context, id string, patch domain.MemberPatch, actorID string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != "" {
		member.Name = *patch.Name
	}
	if patch.Phone != nil && *patch.Phone != "" && *patch.Phone != member.Phone {
		if _, err := s.members.GetByPhone(ctx, *patch.Phone); err == nil {
			return nil, fmt.Errorf("phone %s already registered: %w", *patch.Phone, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		member.Phone = *patch.Phone
	}
	if patch.Email != nil && *patch.Email != "" && *patch.Email != member.Email {
		if _, err := mail.ParseAddress(*patch.Email); err != nil {
			return nil, &domain.ValidationError{Field: "email", Reason: "is not a valid address"}
		}
		if _, err := s.members.GetByEmail(ctx, *patch.Email); err == nil {
			return nil, fmt.Errorf("email %s already registered: %w", *patch.Email, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		member.Email = *patch.Email
	}
	if patch.Sex != nil && *patch.Sex != "" {
		if *patch.Sex != "Male" && *patch.Sex != "Female" {
			return nil, &domain.ValidationError{Field: "sex", Reason: "must be Male or Female"}
		}
		member.Sex = *patch.Sex
	}
	if patch.Duration != nil && *patch.Duration != "" {
		duration, err := domain.ParseDuration(string(*patch.Duration))
		if err != nil {
			return nil, err
		}
		if duration != member.Duration {
			member.Duration = duration
			member.ExpiryDate = duration.ExpiryFrom(time.Now())
		}
	}
	if patch.AmountPaid != nil {
		if *patch.AmountPaid < 0 {
			return nil, &domain.ValidationError{Field: "amountPaid", Reason: "must not be negative"}
		}
		member.AmountPaid = *patch.AmountPaid
	}
	if patch.Due != nil {
		if *patch.Due < 0 {
			return nil, &domain.ValidationError{Field: "due", Reason: "must not be negative"}
		}
		member.Due = *patch.Due
	}
	if patch.Avatar != nil && *patch.Avatar != "" {
		member.Avatar = *patch.Avatar
	}

	err = s.withinTx(ctx, func(members domain.MemberRepository, history domain.AuditRepository) error {
		if err := members.Update(ctx, member); err != nil {
			return err
		}
		return s.appendEntry(ctx, history, member, domain.ActionUpdated, actorID)
	})
	if err != nil {
		metrics.ObserveMemberOperation("update", "error")
		return nil, err
	}

	metrics.ObserveMemberOperation("update", "ok")
	s.logger.Info("member updated", "member_id", member.ID, "actor", actorID)
	return member, nil
}

// Delete removes a member permanently. The Deleted history entry holds
// the final snapshot and is written before the row is removed, in the
// same transaction, so a failed log leaves the member untouched.
func (s *MemberService) Delete(ctx context.Context, id string, actorID string) error {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.withinTx(ctx, func(members domain.MemberRepository, history domain.AuditRepository) error {
		if err := s.appendEntry(ctx, history, member, domain.ActionDeleted, actorID); err != nil {
			return err
		}
		return members.Delete(ctx, id)
	})
	if err != nil {
		metrics.ObserveMemberOperation("delete", "error")
		return err
	}

	metrics.ObserveMemberOperation("delete", "ok")
	s.logger.Info("member deleted", "member_id", id, "actor", actorID)
	return nil
}

// Restore recreates a member from a Deleted history entry. The restored
// member gets a fresh identity and timestamps; only the business fields
// are carried over from the snapshot.
func (s *MemberService) Restore(ctx context.Context, entryID string, actorID string) (*domain.Member, error) {
	entry, err := s.history.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Action != domain.ActionDeleted {
		return nil, fmt.Errorf("entry %s records %s, only deletions can be restored: %w",
			entryID, entry.Action, domain.ErrInvalidState)
	}

	var snapshot domain.MemberSnapshot
	if err := json.Unmarshal(entry.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot of entry %s: %w", entryID, err)
	}

	if snapshot.Email != "" {
		if _, err := s.members.GetByEmail(ctx, snapshot.Email); err == nil {
			return nil, fmt.Errorf("email %s now belongs to another member: %w", snapshot.Email, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if _, err := s.members.GetByPhone(ctx, snapshot.Phone); err == nil {
		return nil, fmt.Errorf("phone %s now belongs to another member: %w", snapshot.Phone, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	member := &domain.Member{
		ID:         uuid.New().String(),
		Name:       snapshot.Name,
		Phone:      snapshot.Phone,
		Email:      snapshot.Email,
		Sex:        snapshot.Sex,
		Duration:   snapshot.Duration,
		AmountPaid: snapshot.AmountPaid,
		Due:        snapshot.Due,
		Avatar:     snapshot.Avatar,
		ExpiryDate: snapshot.ExpiryDate,
		CreatedBy:  actorID,
	}

	err = s.withinTx(ctx, func(members domain.MemberRepository, history domain.AuditRepository) error {
		if err := members.Create(ctx, member); err != nil {
			return err
		}
		return s.appendEntry(ctx, history, member, domain.ActionRestored, actorID)
	})
	if err != nil {
		metrics.ObserveMemberOperation("restore", "error")
		return nil, err
	}

	metrics.ObserveMemberOperation("restore", "ok")
	s.logger.Info("member restored", "member_id", member.ID, "from_entry", entryID, "actor", actorID)
	return member, nil
}

// Get returns a single member by id.
func (s *MemberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	return s.members.GetByID(ctx, id)
}

// List returns all members, newest first.
func (s *MemberService) List(ctx context.Context) ([]*domain.Member, error) {
	return s.members.List(ctx)
}

// History returns a page of the member history log.
func (s *MemberService) History(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	return s.history.List(ctx, limit, offset)
}

// PruneHistoryEntry removes a single history entry. Pruning does not
// touch member state; a Deleted entry that was pruned simply can no
// longer be restored from.
func (s *MemberService) PruneHistoryEntry(ctx context.Context, entryID string, actorID string) error {
	if err := s.history.Delete(ctx, entryID); err != nil {
		return err
	}
	s.logger.Info("history entry pruned", "entry_id", entryID, "actor", actorID)
	return nil
}

func (s *MemberService) appendEntry(ctx context.Context, history domain.AuditRepository, member *domain.Member, action domain.AuditAction, actorID string) error {
	snapshot, err := domain.SnapshotOf(member)
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}
	return history.Append(ctx, &domain.AuditEntry{
		ID:          uuid.New().String(),
		MemberID:    member.ID,
		Action:      action,
		Snapshot:    snapshot,
		PerformedBy: actorID,
	})
}
