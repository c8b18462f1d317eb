package repository

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository errors are the shared domain errors so services can return them unchanged.
var (
	ErrNotFound  = domain.ErrNotFound
	ErrDuplicate = domain.ErrConflict
	ErrTransient = domain.ErrTransient
)

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context, q query.List) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error // name, phone, avatarKey
	SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	SetStripeCustomerID(ctx context.Context, id primitive.ObjectID, customerID string) error
	SetSubscription(ctx context.Context, id primitive.ObjectID, status domain.SubscriptionStatus, plan string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TrainerProfileRepository defines the interface for trainer profiles and their client lists.
type TrainerProfileRepository interface {
	Create(ctx context.Context, profile *domain.TrainerProfile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error)
	List(ctx context.Context, q query.List) ([]domain.TrainerProfile, error)
	Update(ctx context.Context, profile *domain.TrainerProfile) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddClient(ctx context.Context, profileID, clientID primitive.ObjectID) error
	RemoveClient(ctx context.Context, profileID, clientID primitive.ObjectID) error
	CountByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
}

// AppointmentRepository defines the interface for interacting with appointment data.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error)
	List(ctx context.Context, q query.List) ([]domain.Appointment, error)
	Update(ctx context.Context, appt *domain.Appointment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// SetStatus moves the appointment to status only when its current status
	// is one of from (any status when from is empty). Reports whether it matched.
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.AppointmentStatus, from ...domain.AppointmentStatus) (bool, error)
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	List(ctx context.Context, q query.List) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// NutritionLogRepository defines the interface for interacting with nutrition logs.
type NutritionLogRepository interface {
	Create(ctx context.Context, log *domain.NutritionLog) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.NutritionLog, error)
	List(ctx context.Context, q query.List) ([]domain.NutritionLog, error)
	Update(ctx context.Context, log *domain.NutritionLog) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository stores one kind of plan (meal or workout).
type PlanRepository interface {
	Kind() domain.PlanKind
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	List(ctx context.Context, q query.List) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PaymentRepository defines the interface for interacting with payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Payment, error)
	List(ctx context.Context, q query.List) ([]domain.Payment, error)
	SetExternalID(ctx context.Context, id primitive.ObjectID, externalID string) error
	// Resolve moves a pending payment to a terminal status. Re-applying the
	// same status overwrites it again; a different terminal status is refused.
	// Reports whether the write matched.
	Resolve(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus, receipt *domain.Receipt, failureReason string, at time.Time) (bool, error)
	HasCompletedForTarget(ctx context.Context, target domain.PaymentTarget) (bool, error)
	AddRefund(ctx context.Context, id primitive.ObjectID, refund domain.Refund) error
}

// SubscriptionRepository defines the interface for interacting with subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Subscription, error)
	GetCurrentByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error)
	SetExternalID(ctx context.Context, id primitive.ObjectID, externalID string) error
	// ApplyState overwrites the processor-owned fields. A canceled
	// subscription only accepts another canceled state. Reports whether it matched.
	ApplyState(ctx context.Context, id primitive.ObjectID, state domain.SubscriptionState) (bool, error)
	// DisableAutoRenew clears autoRenew and leaves every other field as stored.
	DisableAutoRenew(ctx context.Context, id primitive.ObjectID) error
	// AddPayment appends entry unless a history entry for the same payment exists.
	AddPayment(ctx context.Context, id primitive.ObjectID, entry domain.PaymentHistoryEntry) error
}

// Repositories bundles one implementation of every repository.
type Repositories struct {
	Users         UserRepository
	Trainers      TrainerProfileRepository
	Appointments  AppointmentRepository
	Workouts      WorkoutRepository
	NutritionLogs NutritionLogRepository
	MealPlans     PlanRepository
	WorkoutPlans  PlanRepository
	Payments      PaymentRepository
	Subscriptions SubscriptionRepository
}
