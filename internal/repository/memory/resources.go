package memory

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"
	"context"
	"errors"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type appointmentRepository struct {
	appointments *table[domain.Appointment]
}

// NewAppointmentRepository returns an empty in-memory repository.AppointmentRepository.
func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{appointments: newTable(func(a *domain.Appointment) primitive.ObjectID { return a.ID })}
}

func (r *appointmentRepository) Create(_ context.Context, appt *domain.Appointment) (primitive.ObjectID, error) {
	if appt.UserID == primitive.NilObjectID || appt.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("appointment requires userId and trainerId")
	}
	appt.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	if appt.Status == "" {
		appt.Status = domain.AppointmentPending
	}
	return appt.ID, r.appointments.insert(*appt, nil)
}

func (r *appointmentRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	return r.appointments.get(id)
}

func (r *appointmentRepository) List(_ context.Context, q query.List) ([]domain.Appointment, error) {
	return r.appointments.list(q)
}

func (r *appointmentRepository) Update(_ context.Context, appt *domain.Appointment) error {
	return r.appointments.update(appt.ID, func(a *domain.Appointment) {
		owner, created := a.UserID, a.CreatedAt
		*a = *appt
		a.UserID, a.CreatedAt = owner, created
		a.UpdatedAt = time.Now().UTC()
	})
}

func (r *appointmentRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.appointments.delete(id)
}

func (r *appointmentRepository) SetStatus(_ context.Context, id primitive.ObjectID, status domain.AppointmentStatus, from ...domain.AppointmentStatus) (bool, error) {
	return r.appointments.apply(id, func(a *domain.Appointment) bool {
		if len(from) > 0 && !slices.Contains(from, a.Status) {
			return false
		}
		a.Status = status
		a.UpdatedAt = time.Now().UTC()
		return true
	}), nil
}

type workoutRepository struct {
	workouts *table[domain.Workout]
}

// NewWorkoutRepository returns an empty in-memory repository.WorkoutRepository.
func NewWorkoutRepository() repository.WorkoutRepository {
	return &workoutRepository{workouts: newTable(func(w *domain.Workout) primitive.ObjectID { return w.ID })}
}

func (r *workoutRepository) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and name")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	return workout.ID, r.workouts.insert(*workout, nil)
}

func (r *workoutRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	return r.workouts.get(id)
}

func (r *workoutRepository) List(_ context.Context, q query.List) ([]domain.Workout, error) {
	return r.workouts.list(q)
}

func (r *workoutRepository) Update(_ context.Context, workout *domain.Workout) error {
	return r.workouts.update(workout.ID, func(w *domain.Workout) {
		owner, creator, created := w.UserID, w.CreatedBy, w.CreatedAt
		*w = *workout
		w.UserID, w.CreatedBy, w.CreatedAt = owner, creator, created
		w.UpdatedAt = time.Now().UTC()
	})
}

func (r *workoutRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.workouts.delete(id)
}

type nutritionLogRepository struct {
	logs *table[domain.NutritionLog]
}

// NewNutritionLogRepository returns an empty in-memory repository.NutritionLogRepository.
func NewNutritionLogRepository() repository.NutritionLogRepository {
	return &nutritionLogRepository{logs: newTable(func(n *domain.NutritionLog) primitive.ObjectID { return n.ID })}
}

func (r *nutritionLogRepository) Create(_ context.Context, log *domain.NutritionLog) (primitive.ObjectID, error) {
	if log.UserID == primitive.NilObjectID || log.MealType == "" {
		return primitive.NilObjectID, errors.New("nutrition log requires userId and mealType")
	}
	log.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	return log.ID, r.logs.insert(*log, nil)
}

func (r *nutritionLogRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.NutritionLog, error) {
	return r.logs.get(id)
}

func (r *nutritionLogRepository) List(_ context.Context, q query.List) ([]domain.NutritionLog, error) {
	return r.logs.list(q)
}

func (r *nutritionLogRepository) Update(_ context.Context, log *domain.NutritionLog) error {
	return r.logs.update(log.ID, func(n *domain.NutritionLog) {
		owner, creator, created := n.UserID, n.CreatedBy, n.CreatedAt
		*n = *log
		n.UserID, n.CreatedBy, n.CreatedAt = owner, creator, created
		n.UpdatedAt = time.Now().UTC()
	})
}

func (r *nutritionLogRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.logs.delete(id)
}

type planRepository struct {
	kind  domain.PlanKind
	plans *table[domain.Plan]
}

// NewPlanRepository returns an empty in-memory repository.PlanRepository for kind.
func NewPlanRepository(kind domain.PlanKind) repository.PlanRepository {
	return &planRepository{kind: kind, plans: newTable(func(p *domain.Plan) primitive.ObjectID { return p.ID })}
}

func (r *planRepository) Kind() domain.PlanKind { return r.kind }

func (r *planRepository) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.CreatedBy == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires userId, createdBy, and name")
	}
	plan.ID = primitive.NewObjectID()
	plan.Kind = r.kind
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return plan.ID, r.plans.insert(*plan, nil)
}

func (r *planRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	return r.plans.get(id)
}

func (r *planRepository) List(_ context.Context, q query.List) ([]domain.Plan, error) {
	return r.plans.list(q)
}

func (r *planRepository) Update(_ context.Context, plan *domain.Plan) error {
	return r.plans.update(plan.ID, func(p *domain.Plan) {
		kind, owner, creator, created := p.Kind, p.UserID, p.CreatedBy, p.CreatedAt
		*p = *plan
		p.Kind, p.UserID, p.CreatedBy, p.CreatedAt = kind, owner, creator, created
		p.UpdatedAt = time.Now().UTC()
	})
}

func (r *planRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.plans.delete(id)
}
