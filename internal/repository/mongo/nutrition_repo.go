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
)

const nutritionCollectionName = "nutrition_logs"

// mongoNutritionLogRepository implements repository.NutritionLogRepository
type mongoNutritionLogRepository struct {
	collection *mongo.Collection
}

func NewMongoNutritionLogRepository(db *mongo.Database) repository.NutritionLogRepository {
	return &mongoNutritionLogRepository{
		collection: db.Collection(nutritionCollectionName),
	}
}

func (r *mongoNutritionLogRepository) Create(ctx context.Context, log *domain.NutritionLog) (primitive.ObjectID, error) {
	if log.UserID == primitive.NilObjectID || log.MealType == "" {
		return primitive.NilObjectID, errors.New("nutrition log requires userId and mealType")
	}
	log.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	return insert(ctx, r.collection, log)
}

func (r *mongoNutritionLogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.NutritionLog, error) {
	return findByID[domain.NutritionLog](ctx, r.collection, id)
}

func (r *mongoNutritionLogRepository) List(ctx context.Context, q query.List) ([]domain.NutritionLog, error) {
	return findList[domain.NutritionLog](ctx, r.collection, q)
}

func (r *mongoNutritionLogRepository) Update(ctx context.Context, log *domain.NutritionLog) error {
	if log.ID == primitive.NilObjectID {
		return errors.New("nutrition log ID is required for update")
	}
	return setFields(ctx, r.collection, log.ID, bson.M{
		"date":          log.Date,
		"mealType":      log.MealType,
		"foods":         log.Foods,
		"totalCalories": log.TotalCalories,
		"waterIntake":   log.WaterIntake,
		"notes":         log.Notes,
	})
}

func (r *mongoNutritionLogRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
