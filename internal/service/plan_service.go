package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanInput is used for create and patch; nil fields are left unchanged.
type PlanInput struct {
	UserID      primitive.ObjectID
	Name        *string
	Description *string
	Goal        *string
	StartDate   *time.Time
	EndDate     *time.Time
	Items       []domain.PlanItem
	IsActive    *bool
}

// PlanService serves one kind of plan; meal and workout plans share it.
type PlanService interface {
	Create(ctx context.Context, actor *authz.Actor, in PlanInput) (*domain.Plan, error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Plan, error)
	List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Plan, error)
	Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in PlanInput) (*domain.Plan, error)
	Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error
}

type planService struct {
	plans repository.PlanRepository
	users repository.UserRepository
	kind  authz.Kind
}

// NewPlanService serves the plans stored in plans.
func NewPlanService(plans repository.PlanRepository, users repository.UserRepository) PlanService {
	kind := authz.KindMealPlan
	if plans.Kind() == domain.PlanKindWorkout {
		kind = authz.KindWorkoutPlan
	}
	return &planService{plans: plans, users: users, kind: kind}
}

func (s *planService) resource(p *domain.Plan) authz.Resource {
	creator := p.CreatedBy
	return authz.Resource{Kind: s.kind, OwnerID: p.UserID, CreatorID: &creator}
}

func (s *planService) Create(ctx context.Context, actor *authz.Actor, in PlanInput) (*domain.Plan, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Validationf("name is required")
	}
	p := &domain.Plan{
		Kind:      s.plans.Kind(),
		UserID:    ownerFor(actor, in.UserID),
		CreatedBy: actor.ID,
		IsActive:  true,
	}
	if err := applyPlanInput(p, in); err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, s.resource(p), authz.Write); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.users, p.UserID, "userId"); err != nil {
		return nil, err
	}
	if _, err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Plan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, s.resource(p), authz.Read); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Plan, error) {
	q, err := scopedList(actor, s.kind, params, planListOptions)
	if err != nil {
		return nil, err
	}
	return s.plans.List(ctx, q)
}

func (s *planService) Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in PlanInput) (*domain.Plan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, s.resource(p), authz.Write); err != nil {
		return nil, err
	}
	if err := applyPlanInput(p, in); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, s.resource(p), authz.Write); err != nil {
		return err
	}
	return s.plans.Delete(ctx, p.ID)
}

func applyPlanInput(p *domain.Plan, in PlanInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Validationf("name cannot be empty")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Goal != nil {
		p.Goal = *in.Goal
	}
	if in.StartDate != nil {
		start := in.StartDate.UTC()
		p.StartDate = &start
	}
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		p.EndDate = &end
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return domain.Validationf("endDate is before startDate")
	}
	if in.Items != nil {
		for i, item := range in.Items {
			if strings.TrimSpace(item.Title) == "" || item.Day < 0 {
				return domain.Validationf("plan item %d needs a title and a day", i+1)
			}
		}
		p.Items = in.Items
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}
