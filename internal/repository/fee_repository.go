package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/powerfitness/gymd/internal/domain"
)

// PostgresFeePlanRepository implements domain.FeePlanRepository using PostgreSQL
type PostgresFeePlanRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresFeePlanRepository creates a new fee plan repository
func NewPostgresFeePlanRepository(db *sql.DB, logger *slog.Logger) *PostgresFeePlanRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFeePlanRepository{db: db, logger: logger}
}

// Create inserts a new fee plan
func (r *PostgresFeePlanRepository) Create(ctx context.Context, plan *domain.FeePlan) error {
	query := `
		INSERT INTO fee_plans (id, plan_name, amount, description, offer)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		plan.ID,
		plan.PlanName,
		plan.Amount,
		plan.Description,
		plan.Offer,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plan name taken: %w", domain.ErrConflict)
		}
		r.logger.Error("failed to create fee plan",
			slog.String("plan_name", plan.PlanName),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create fee plan: %w", err)
	}

	return nil
}

// GetByID retrieves a fee plan by ID
func (r *PostgresFeePlanRepository) GetByID(ctx context.Context, id string) (*domain.FeePlan, error) {
	plan := &domain.FeePlan{}
	query := `SELECT id, plan_name, amount, description, offer, created_at, updated_at FROM fee_plans WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.PlanName,
		&plan.Amount,
		&plan.Description,
		&plan.Offer,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get fee plan: %w", err)
	}
	return plan, nil
}

// Update updates an existing fee plan
func (r *PostgresFeePlanRepository) Update(ctx context.Context, plan *domain.FeePlan) error {
	query := `
		UPDATE fee_plans
		SET plan_name = $1, amount = $2, description = $3, offer = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		plan.PlanName,
		plan.Amount,
		plan.Description,
		plan.Offer,
		plan.ID,
	).Scan(&plan.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("plan name taken: %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to update fee plan: %w", err)
	}

	return nil
}

// Delete removes a fee plan
func (r *PostgresFeePlanRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fee_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fee plan: %w", err)
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

// List returns all fee plans
func (r *PostgresFeePlanRepository) List(ctx context.Context) ([]*domain.FeePlan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, plan_name, amount, description, offer, created_at, updated_at FROM fee_plans ORDER BY amount`)
	if err != nil {
		r.logger.Error("failed to list fee plans", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list fee plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.FeePlan
	for rows.Next() {
		plan := &domain.FeePlan{}
		err := rows.Scan(
			&plan.ID,
			&plan.PlanName,
			&plan.Amount,
			&plan.Description,
			&plan.Offer,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}
