package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/pkg/database"
)

// PostgresMemberRepository implements domain.MemberRepository using PostgreSQL
type PostgresMemberRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPostgresMemberRepository creates a new member repository
func NewPostgresMemberRepository(db *sql.DB, logger *slog.Logger) *PostgresMemberRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMemberRepository{db: db, logger: logger}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *PostgresMemberRepository) WithTx(tx *sql.Tx) domain.MemberRepository {
	cp := *r
	cp.db = tx
	return &cp
}

const memberColumns = `id, name, phone, email, sex, duration, amount_paid, due, avatar, expiry_date, created_by, created_at, updated_at`

// Create inserts a new member
func (r *PostgresMemberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (id, name, phone, email, sex, duration, amount_paid, due, avatar, expiry_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		m.ID,
		m.Name,
		m.Phone,
		nullString(m.Email),
		m.Sex,
		string(m.Duration),
		m.AmountPaid,
		m.Due,
		nullString(m.Avatar),
		m.ExpiryDate,
		nullString(m.CreatedBy),
	).Scan(&m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member with same phone or email: %w", domain.ErrConflict)
		}
		r.logger.Error("failed to create member",
			slog.String("phone", m.Phone),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

// GetByID retrieves a member by ID
func (r *PostgresMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
}

// GetByPhone retrieves a member by phone number
func (r *PostgresMemberRepository) GetByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE phone = $1`, phone)
}

// GetByEmail retrieves a member by email
func (r *PostgresMemberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE email = $1`, email)
}

func (r *PostgresMemberRepository) getOne(ctx context.Context, query string, arg any) (*domain.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// Update persists all fields of an existing member
func (r *PostgresMemberRepository) Update(ctx context.Context, m *domain.Member) error {
	query := `
		UPDATE members
		SET name = $1, phone = $2, email = $3, sex = $4, duration = $5,
		    amount_paid = $6, due = $7, avatar = $8, expiry_date = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		m.Name,
		m.Phone,
		nullString(m.Email),
		m.Sex,
		string(m.Duration),
		m.AmountPaid,
		m.Due,
		nullString(m.Avatar),
		m.ExpiryDate,
		m.ID,
	).Scan(&m.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("member with same phone or email: %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to update member: %w", err)
	}

	return nil
}

// Delete removes a member permanently. Callers pair it with a Deleted
// audit entry in the same transaction.
func (r *PostgresMemberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List returns all members, newest first
func (r *PostgresMemberRepository) List(ctx context.Context) ([]*domain.Member, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM members ORDER BY created_at DESC`)
}

// ListExpiringOn returns members whose membership expires on the given day
func (r *PostgresMemberRepository) ListExpiringOn(ctx context.Context, day time.Time) ([]*domain.Member, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.list(ctx,
		`SELECT `+memberColumns+` FROM members WHERE expiry_date >= $1 AND expiry_date < $2 ORDER BY expiry_date`,
		start, end,
	)
}

func (r *PostgresMemberRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list members", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	var (
		m         domain.Member
		email     sql.NullString
		avatar    sql.NullString
		createdBy sql.NullString
		duration  string
	)

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Phone,
		&email,
		&m.Sex,
		&duration,
		&m.AmountPaid,
		&m.Due,
		&avatar,
		&m.ExpiryDate,
		&createdBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Email = email.String
	m.Avatar = avatar.String
	m.CreatedBy = createdBy.String
	m.Duration = domain.PlanDuration(duration)
	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
