package mongo

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mealPlanCollectionName    = "meal_plans"
	workoutPlanCollectionName = "workout_plans"
)

// mongoPlanRepository implements repository.PlanRepository for one plan kind.
type mongoPlanRepository struct {
	kind       domain.PlanKind
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a plan repository; each kind has its own collection.
func NewMongoPlanRepository(db *mongo.Database, kind domain.PlanKind) repository.PlanRepository {
	name := workoutPlanCollectionName
	if kind == domain.PlanKindMeal {
		name = mealPlanCollectionName
	}
	return &mongoPlanRepository{
		kind:       kind,
		collection: db.Collection(name),
	}
}

func (r *mongoPlanRepository) Kind() domain.PlanKind { return r.kind }

// Create inserts a new plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.CreatedBy == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires userId, createdBy, and name")
	}
	plan.ID = primitive.NewObjectID()
	plan.Kind = r.kind
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return insert(ctx, r.collection, plan)
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	return findByID[domain.Plan](ctx, r.collection, id)
}

func (r *mongoPlanRepository) List(ctx context.Context, q query.List) ([]domain.Plan, error) {
	return findList[domain.Plan](ctx, r.collection, q)
}

// Update modifies plan content. UserID, CreatedBy and CreatedAt are not changed.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}
	return setFields(ctx, r.collection, plan.ID, bson.M{
		"name":        plan.Name,
		"description": plan.Description,
		"goal":        plan.Goal,
		"startDate":   plan.StartDate, // Pass pointer directly
		"endDate":     plan.EndDate,
		"items":       plan.Items,
		"isActive":    plan.IsActive,
	})
}

func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func planIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
		{
			// Quickly find active plans for a user
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
}
