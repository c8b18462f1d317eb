package mongo

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// NewRepositories wires every Mongo repository against db.
func NewRepositories(db *mongo.Database) *repository.Repositories {
	return &repository.Repositories{
		Users:         NewMongoUserRepository(db),
		Trainers:      NewMongoTrainerProfileRepository(db),
		Appointments:  NewMongoAppointmentRepository(db),
		Workouts:      NewMongoWorkoutRepository(db),
		NutritionLogs: NewMongoNutritionLogRepository(db),
		MealPlans:     NewMongoPlanRepository(db, domain.PlanKindMeal),
		WorkoutPlans:  NewMongoPlanRepository(db, domain.PlanKindWorkout),
		Payments:      NewMongoPaymentRepository(db),
		Subscriptions: NewMongoSubscriptionRepository(db),
	}
}
