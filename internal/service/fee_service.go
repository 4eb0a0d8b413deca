package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/powerfitness/gymd/internal/domain"
)

// FeePlanInput carries the fields accepted when creating or updating a plan.
type FeePlanInput struct {
	PlanName    string
	Amount      float64
	Description string
	Offer       string
}

// FeeService manages the published fee plans.
type FeeService struct {
	plans  domain.FeePlanRepository
	logger *slog.Logger
}

func NewFeeService(plans domain.FeePlanRepository, logger *slog.Logger) *FeeService {
	return &FeeService{plans: plans, logger: logger}
}

func (s *FeeService) Create(ctx context.Context, input FeePlanInput) (*domain.FeePlan, error) {
	if err := validatePlanInput(input); err != nil {
		return nil, err
	}

	plan := &domain.FeePlan{
		ID:          uuid.New().String(),
		PlanName:    input.PlanName,
		Amount:      input.Amount,
		Description: input.Description,
		Offer:       input.Offer,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("fee plan created", "plan_id", plan.ID, "name", plan.PlanName)
	return plan, nil
}

func (s *FeeService) Update(ctx context.Context, id string, input FeePlanInput) (*domain.FeePlan, error) {
	if err := validatePlanInput(input); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.PlanName = input.PlanName
	plan.Amount = input.Amount
	plan.Description = input.Description
	plan.Offer = input.Offer

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *FeeService) Delete(ctx context.Context, id string) error {
	return s.plans.Delete(ctx, id)
}

func (s *FeeService) Get(ctx context.Context, id string) (*domain.FeePlan, error) {
	return s.plans.GetByID(ctx, id)
}

func (s *FeeService) List(ctx context.Context) ([]*domain.FeePlan, error) {
	return s.plans.List(ctx)
}

func validatePlanInput(input FeePlanInput) error {
	if input.PlanName == "" {
		return &domain.ValidationError{Field: "planName", Reason: "is required"}
	}
	if input.Amount < 0 {
		return &domain.ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return nil
}
