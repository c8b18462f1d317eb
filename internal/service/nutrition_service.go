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

// NutritionLogInput is used for create and patch; nil fields are left unchanged.
type NutritionLogInput struct {
	UserID      primitive.ObjectID
	Date        *time.Time
	MealType    *domain.MealType
	Foods       []domain.FoodItem
	WaterIntake *float64
	Notes       *string
}

type NutritionService interface {
	Create(ctx context.Context, actor *authz.Actor, in NutritionLogInput) (*domain.NutritionLog, error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.NutritionLog, error)
	List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.NutritionLog, error)
	Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in NutritionLogInput) (*domain.NutritionLog, error)
	Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error
}

type nutritionService struct {
	logs  repository.NutritionLogRepository
	users repository.UserRepository
}

func NewNutritionService(repos *repository.Repositories) NutritionService {
	return &nutritionService{logs: repos.NutritionLogs, users: repos.Users}
}

func nutritionResource(n *domain.NutritionLog) authz.Resource {
	return authz.Resource{Kind: authz.KindNutritionLog, OwnerID: n.UserID}
}

func (s *nutritionService) Create(ctx context.Context, actor *authz.Actor, in NutritionLogInput) (*domain.NutritionLog, error) {
	if in.MealType == nil {
		return nil, domain.Validationf("mealType is required")
	}
	n := &domain.NutritionLog{UserID: ownerFor(actor, in.UserID), CreatedBy: actor.ID, Date: time.Now().UTC(), Foods: []domain.FoodItem{}}
	if err := applyNutritionInput(n, in); err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, nutritionResource(n), authz.Write); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.users, n.UserID, "userId"); err != nil {
		return nil, err
	}
	if _, err := s.logs.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *nutritionService) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.NutritionLog, error) {
	n, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, nutritionResource(n), authz.Read); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *nutritionService) List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.NutritionLog, error) {
	q, err := scopedList(actor, authz.KindNutritionLog, params, nutritionListOptions)
	if err != nil {
		return nil, err
	}
	return s.logs.List(ctx, q)
}

func (s *nutritionService) Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in NutritionLogInput) (*domain.NutritionLog, error) {
	n, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, nutritionResource(n), authz.Write); err != nil {
		return nil, err
	}
	if err := applyNutritionInput(n, in); err != nil {
		return nil, err
	}
	if err := s.logs.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *nutritionService) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	n, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, nutritionResource(n), authz.Write); err != nil {
		return err
	}
	return s.logs.Delete(ctx, n.ID)
}

// applyNutritionInput copies set fields and recomputes the calorie total.
func applyNutritionInput(n *domain.NutritionLog, in NutritionLogInput) error {
	if in.Date != nil {
		n.Date = in.Date.UTC()
	}
	if in.MealType != nil {
		if !in.MealType.Valid() {
			return domain.Validationf("unknown meal type %q", *in.MealType)
		}
		n.MealType = *in.MealType
	}
	if in.Foods != nil {
		for i, f := range in.Foods {
			if strings.TrimSpace(f.Name) == "" {
				return domain.Validationf("food %d has no name", i+1)
			}
			if f.Calories < 0 || f.Quantity < 0 {
				return domain.Validationf("food %q has negative values", f.Name)
			}
		}
		n.Foods = in.Foods
	}
	if in.WaterIntake != nil {
		if *in.WaterIntake < 0 {
			return domain.Validationf("waterIntake cannot be negative")
		}
		n.WaterIntake = *in.WaterIntake
	}
	if in.Notes != nil {
		n.Notes = *in.Notes
	}
	n.SumCalories()
	return nil
}
