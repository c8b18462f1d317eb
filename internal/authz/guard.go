// Package authz decides whether an actor may read or write a resource.
// Decisions are pure: nothing here touches storage.
package authz

import (
	"fmt"

	"alcyxob/fitness-hub/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action int

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// Kind identifies the resource family being accessed.
type Kind string

const (
	KindUser         Kind = "user"
	KindAppointment  Kind = "appointment"
	KindWorkout      Kind = "workout"
	KindNutritionLog Kind = "nutrition_log"
	KindMealPlan     Kind = "meal_plan"
	KindWorkoutPlan  Kind = "workout_plan"
	KindPayment      Kind = "payment"
	KindSubscription Kind = "subscription"
)

// Actor is the authenticated caller, with the client list of their
// trainer profile when they have one.
type Actor struct {
	ID      primitive.ObjectID
	Role    domain.Role
	clients map[primitive.ObjectID]struct{}
}

// NewActor builds an Actor from a user and their (optional) trainer profile.
func NewActor(user *domain.User, profile *domain.TrainerProfile) *Actor {
	a := &Actor{ID: user.ID, Role: user.Role, clients: map[primitive.ObjectID]struct{}{}}
	if profile != nil && profile.UserID == user.ID {
		for _, c := range profile.Clients {
			a.clients[c] = struct{}{}
		}
	}
	return a
}

func (a *Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// IsTrainerOf reports whether the actor is a trainer with clientID on their client list.
func (a *Actor) IsTrainerOf(clientID primitive.ObjectID) bool {
	if a.Role != domain.RoleTrainer {
		return false
	}
	_, ok := a.clients[clientID]
	return ok
}

// Resource is the authorization-relevant view of a stored record.
type Resource struct {
	Kind    Kind
	OwnerID primitive.ObjectID
	// TrainerID is the trainer assigned to an appointment.
	TrainerID *primitive.ObjectID
	// CreatorID is who wrote a plan.
	CreatorID *primitive.ObjectID
}

// CanAccess applies the access policy:
// admins may do anything, owners may do anything with their own records,
// and a trainer may read their clients' records and write some of them.
func CanAccess(actor *Actor, res Resource, action Action) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() || actor.ID == res.OwnerID {
		return true
	}
	if !actor.IsTrainerOf(res.OwnerID) {
		return false
	}
	if res.Kind == KindPayment || res.Kind == KindSubscription {
		return false
	}
	if action == Read {
		return true
	}
	switch res.Kind {
	case KindWorkout, KindNutritionLog:
		return true
	case KindAppointment:
		return res.TrainerID != nil && *res.TrainerID == actor.ID
	case KindMealPlan, KindWorkoutPlan:
		return res.CreatorID != nil && *res.CreatorID == actor.ID
	}
	return false
}

// Authorize is CanAccess as an error: nil when allowed, PermissionDenied otherwise.
// The caller must already know the resource exists.
func Authorize(actor *Actor, res Resource, action Action) error {
	if CanAccess(actor, res, action) {
		return nil
	}
	return fmt.Errorf("%w: cannot %s this %s", domain.ErrPermissionDenied, action, res.Kind)
}
