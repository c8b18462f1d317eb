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

// WorkoutInput is used for create and patch; nil fields are left unchanged.
type WorkoutInput struct {
	UserID         primitive.ObjectID
	Name           *string
	Type           *string
	Date           *time.Time
	Duration       *int
	CaloriesBurned *int
	Exercises      []domain.ExerciseEntry
	Notes          *string
}

type WorkoutService interface {
	Create(ctx context.Context, actor *authz.Actor, in WorkoutInput) (*domain.Workout, error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Workout, error)
	List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Workout, error)
	Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
	Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error
}

type workoutService struct {
	workouts repository.WorkoutRepository
	users    repository.UserRepository
}

func NewWorkoutService(repos *repository.Repositories) WorkoutService {
	return &workoutService{workouts: repos.Workouts, users: repos.Users}
}

func workoutResource(w *domain.Workout) authz.Resource {
	return authz.Resource{Kind: authz.KindWorkout, OwnerID: w.UserID}
}

func (s *workoutService) Create(ctx context.Context, actor *authz.Actor, in WorkoutInput) (*domain.Workout, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Validationf("name is required")
	}
	w := &domain.Workout{UserID: ownerFor(actor, in.UserID), CreatedBy: actor.ID, Date: time.Now().UTC()}
	if err := applyWorkoutInput(w, in); err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, workoutResource(w), authz.Write); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.users, w.UserID, "userId"); err != nil {
		return nil, err
	}
	if _, err := s.workouts.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *workoutService) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Workout, error) {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, workoutResource(w), authz.Read); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *workoutService) List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Workout, error) {
	q, err := scopedList(actor, authz.KindWorkout, params, workoutListOptions)
	if err != nil {
		return nil, err
	}
	return s.workouts.List(ctx, q)
}

func (s *workoutService) Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, workoutResource(w), authz.Write); err != nil {
		return nil, err
	}
	if err := applyWorkoutInput(w, in); err != nil {
		return nil, err
	}
	if err := s.workouts.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *workoutService) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, workoutResource(w), authz.Write); err != nil {
		return err
	}
	return s.workouts.Delete(ctx, w.ID)
}

func applyWorkoutInput(w *domain.Workout, in WorkoutInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Validationf("name cannot be empty")
		}
		w.Name = name
	}
	if in.Type != nil {
		w.Type = *in.Type
	}
	if in.Date != nil {
		w.Date = in.Date.UTC()
	}
	if in.Duration != nil {
		if *in.Duration < 0 {
			return domain.Validationf("duration cannot be negative")
		}
		w.Duration = *in.Duration
	}
	if in.CaloriesBurned != nil {
		if *in.CaloriesBurned < 0 {
			return domain.Validationf("caloriesBurned cannot be negative")
		}
		w.CaloriesBurned = *in.CaloriesBurned
	}
	if in.Exercises != nil {
		for i, e := range in.Exercises {
			if strings.TrimSpace(e.Name) == "" {
				return domain.Validationf("exercise %d has no name", i+1)
			}
		}
		w.Exercises = in.Exercises
	}
	if in.Notes != nil {
		w.Notes = *in.Notes
	}
	return nil
}
