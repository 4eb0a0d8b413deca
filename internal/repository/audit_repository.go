package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/pkg/database"
)

// PostgresAuditRepository implements domain.AuditRepository using PostgreSQL.
// The history log is the system of record for lifecycle actions: Append
// performs no business validation.
type PostgresAuditRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPostgresAuditRepository creates a new audit log repository
func NewPostgresAuditRepository(db *sql.DB, logger *slog.Logger) *PostgresAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuditRepository{db: db, logger: logger}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *PostgresAuditRepository) WithTx(tx *sql.Tx) domain.AuditRepository {
	cp := *r
	cp.db = tx
	return &cp
}

// Append inserts a new audit entry
func (r *PostgresAuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	query := `
		INSERT INTO member_history (id, member_id, action, snapshot, performed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.ID,
		e.MemberID,
		string(e.Action),
		[]byte(e.Snapshot),
		nullString(e.PerformedBy),
	).Scan(&e.CreatedAt)

	if err != nil {
		r.logger.Error("failed to append audit entry",
			slog.String("member_id", e.MemberID),
			slog.String("action", string(e.Action)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// GetByID retrieves an audit entry by ID
func (r *PostgresAuditRepository) GetByID(ctx context.Context, id string) (*domain.AuditEntry, error) {
	query := `
		SELECT h.id, h.member_id, h.action, h.snapshot, h.performed_by, COALESCE(u.username, ''), h.created_at
		FROM member_history h
		LEFT JOIN users u ON u.id = h.performed_by
		WHERE h.id = $1
	`

	e, err := scanAuditEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}
	return e, nil
}

// List returns audit entries newest first
func (r *PostgresAuditRepository) List(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	query := `
		SELECT h.id, h.member_id, h.action, h.snapshot, h.performed_by, COALESCE(u.username, ''), h.created_at
		FROM member_history h
		LEFT JOIN users u ON u.id = h.performed_by
		ORDER BY h.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("failed to list audit entries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Delete prunes an audit entry; member state is unaffected
func (r *PostgresAuditRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM member_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete audit entry: %w", err)
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

func scanAuditEntry(row rowScanner) (*domain.AuditEntry, error) {
	var (
		e           domain.AuditEntry
		action      string
		snapshot    []byte
		performedBy sql.NullString
	)

	err := row.Scan(&e.ID, &e.MemberID, &action, &snapshot, &performedBy, &e.PerformedByName, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	e.Action = domain.AuditAction(action)
	e.Snapshot = snapshot
	e.PerformedBy = performedBy.String
	return &e, nil
}
