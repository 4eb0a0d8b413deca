package domain

import (
	"context"
	"time"
)

// FeePlan is a published membership plan with pricing. Fee plans are
// not coupled to the member lifecycle.
type FeePlan struct {
	ID          string // UUID
	PlanName    string // Unique
	Amount      float64
	Description string
	Offer       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FeePlanRepository defines data access for fee plans
type FeePlanRepository interface {
	Create(ctx context.Context, plan *FeePlan) error
	GetByID(ctx context.Context, id string) (*FeePlan, error)
	Update(ctx context.Context, plan *FeePlan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*FeePlan, error)
}
