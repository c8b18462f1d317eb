package memory

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"
)

// NewRepositories returns a fresh, empty set of in-memory repositories.
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Users:         NewUserRepository(),
		Trainers:      NewTrainerProfileRepository(),
		Appointments:  NewAppointmentRepository(),
		Workouts:      NewWorkoutRepository(),
		NutritionLogs: NewNutritionLogRepository(),
		MealPlans:     NewPlanRepository(domain.PlanKindMeal),
		WorkoutPlans:  NewPlanRepository(domain.PlanKindWorkout),
		Payments:      NewPaymentRepository(),
		Subscriptions: NewSubscriptionRepository(),
	}
}
