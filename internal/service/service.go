// Package service holds the use cases behind the HTTP API. Every method takes
// the resolved *authz.Actor of the caller and returns domain errors.
package service

import (
	"context"
	"errors"
	"net/url"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// List options for each resource family.
var (
	appointmentListOptions = query.Options{
		Fields: []string{"date", "duration", "type", "location", "status", "price", "trainerId", "createdAt", "updatedAt"},
	}
	workoutListOptions = query.Options{
		Fields: []string{"name", "type", "date", "duration", "caloriesBurned", "exercises.name", "createdBy", "createdAt", "updatedAt"},
	}
	nutritionListOptions = query.Options{
		Fields: []string{"date", "mealType", "totalCalories", "waterIntake", "foods.name", "createdBy", "createdAt", "updatedAt"},
	}
	planListOptions = query.Options{
		Fields:      []string{"name", "goal", "isActive", "startDate", "endDate", "createdBy", "createdAt", "updatedAt"},
		DefaultSort: "-createdAt",
	}
	paymentListOptions = query.Options{
		Fields: []string{"date", "status", "amount", "currency", "description", "paidAt", "createdAt"},
	}
	userListOptions = query.Options{
		Fields:      []string{"name", "email", "role", "subscriptionStatus", "subscriptionPlan", "createdAt"},
		DefaultSort: "-createdAt",
	}
	trainerListOptions = query.Options{
		Fields:      []string{"userId", "specializations", "certifications", "experienceYears", "hourlyRate", "rating", "createdAt"},
		DefaultSort: "-createdAt",
	}
)

// scopedList builds the list query for an owned resource: the target owner
// is the userId parameter (default the caller) and must be readable by actor.
func scopedList(actor *authz.Actor, kind authz.Kind, params url.Values, opts query.Options) (query.List, error) {
	owner, err := query.TargetOwner(params, actor.ID)
	if err != nil {
		return query.List{}, err
	}
	if err := authz.Authorize(actor, authz.Resource{Kind: kind, OwnerID: owner}, authz.Read); err != nil {
		return query.List{}, err
	}
	return query.Build(params, &query.Scope{Field: query.OwnerParam, Owner: owner}, opts)
}

// ownerFor returns the owner a new record is created for: requested when
// set, the caller otherwise.
func ownerFor(actor *authz.Actor, requested primitive.ObjectID) primitive.ObjectID {
	if requested.IsZero() {
		return actor.ID
	}
	return requested
}

func requireAdmin(actor *authz.Actor) error {
	if actor == nil || !actor.IsAdmin() {
		return domain.ErrPermissionDenied
	}
	return nil
}

// loadUser reads a user, reporting an unknown id as a validation error of field.
func loadUser(ctx context.Context, users repository.UserRepository, id primitive.ObjectID, field string) (*domain.User, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Validationf("%s does not reference an existing user", field)
	}
	return u, err
}

// buildUnscoped builds a list query over a whole collection.
func buildUnscoped(params url.Values, opts query.Options) (query.List, error) {
	return query.Build(params, nil, opts)
}
