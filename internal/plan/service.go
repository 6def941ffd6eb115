package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/gym"
)

type Service interface {
	CreatePlan(ctx context.Context, ownerID uuid.UUID, req CreatePlanRequest) (*Plan, error)
	ListPlans(ctx context.Context, gymID uuid.UUID) ([]Plan, error)
	DeactivatePlan(ctx context.Context, ownerID, planID uuid.UUID) error
	AssignPlan(ctx context.Context, ownerID uuid.UUID, req AssignPlanRequest) (*StudentPlan, error)
}

type service struct {
	repo Repository
	gyms gym.Repository
}

func NewService(repo Repository, gyms gym.Repository) Service {
	return &service{repo: repo, gyms: gyms}
}

func (s *service) CreatePlan(ctx context.Context, ownerID uuid.UUID, req CreatePlanRequest) (*Plan, error) {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, g.ID, req)
}

func (s *service) ListPlans(ctx context.Context, gymID uuid.UUID) ([]Plan, error) {
	return s.repo.List(ctx, gymID)
}

func (s *service) DeactivatePlan(ctx context.Context, ownerID, planID uuid.UUID) error {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	plan, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.GymID != g.ID {
		return ErrPlanNotFound
	}

	return s.repo.Deactivate(ctx, planID)
}

func (s *service) AssignPlan(ctx context.Context, ownerID uuid.UUID, req AssignPlanRequest) (*StudentPlan, error) {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.GymID != g.ID {
		return nil, ErrPlanNotFound
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", req.StartDate, err)
	}

	return s.repo.Assign(ctx, g.ID, req.StudentID, req.PlanID, startDate)
}
