package service

import (
	"context"
	"strings"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// PlanService manages service plans.
type PlanService struct {
	plans repository.PlanRepository
}

// NewPlanService constructs the service.
func NewPlanService(plans repository.PlanRepository) *PlanService {
	return &PlanService{plans: plans}
}

func validatePlan(plan *domain.Plan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	if err := requireText("name", plan.Name); err != nil {
		return err
	}
	if plan.MonthlyPrice.IsNegative() {
		return apperrors.NewValidationError("monthly price must not be negative", map[string]any{"monthly_price": plan.MonthlyPrice.String()})
	}
	return nil
}

// CreatePlan stores a plan.
func (s *PlanService) CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, apperrors.MapError(err)
	}
	return plan, nil
}

// UpdatePlan replaces a plan's fields.
func (s *PlanService) UpdatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, mapRepoError(err, "plan", plan.ID)
	}
	return plan, nil
}

// GetPlan fetches a plan.
func (s *PlanService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "plan", id)
	}
	return plan, nil
}

// ListPlans lists plans, cheapest first.
func (s *PlanService) ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	plans, err := s.plans.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return plans, nil
}

// DeletePlan removes a plan. Clients on the plan block the delete.
func (s *PlanService) DeletePlan(ctx context.Context, id string) error {
	return mapRepoError(s.plans.Delete(ctx, id), "plan", id)
}
