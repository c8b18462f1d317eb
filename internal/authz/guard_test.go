package authz

import (
	"errors"
	"testing"

	"alcyxob/fitness-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	owner, stranger, admin, trainer, otherTrainer *Actor
}

func newFixture() fixture {
	ownerUser := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	trainerUser := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleTrainer}
	otherTrainerUser := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleTrainer}

	trainer := NewActor(trainerUser, &domain.TrainerProfile{UserID: trainerUser.ID, Clients: []primitive.ObjectID{ownerUser.ID}})
	otherTrainer := NewActor(otherTrainerUser, &domain.TrainerProfile{UserID: otherTrainerUser.ID, Clients: []primitive.ObjectID{ownerUser.ID}})

	return fixture{
		owner:        NewActor(ownerUser, nil),
		stranger:     NewActor(&domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}, nil),
		admin:        NewActor(&domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}, nil),
		trainer:      trainer,
		otherTrainer: otherTrainer,
	}
}

func ptr(id primitive.ObjectID) *primitive.ObjectID { return &id }

func TestCanAccess_AdminAndSelf(t *testing.T) {
	f := newFixture()
	kinds := []Kind{KindAppointment, KindWorkout, KindNutritionLog, KindMealPlan, KindWorkoutPlan, KindPayment, KindSubscription}
	for _, k := range kinds {
		res := Resource{Kind: k, OwnerID: f.owner.ID}
		for _, act := range []Action{Read, Write} {
			assert.True(t, CanAccess(f.admin, res, act), "admin %s %s", act, k)
			assert.True(t, CanAccess(f.owner, res, act), "owner %s %s", act, k)
			assert.False(t, CanAccess(f.stranger, res, act), "stranger %s %s", act, k)
		}
	}
}

func TestCanAccess_TrainerOfClient(t *testing.T) {
	f := newFixture()
	trainerID := f.trainer.ID
	otherID := f.otherTrainer.ID

	cases := []struct {
		name   string
		res    Resource
		action Action
		want   bool
	}{
		{"read workout", Resource{Kind: KindWorkout, OwnerID: f.owner.ID}, Read, true},
		{"write workout", Resource{Kind: KindWorkout, OwnerID: f.owner.ID}, Write, true},
		{"write nutrition log", Resource{Kind: KindNutritionLog, OwnerID: f.owner.ID}, Write, true},
		{"read appointment of another trainer", Resource{Kind: KindAppointment, OwnerID: f.owner.ID, TrainerID: &otherID}, Read, true},
		{"write own appointment", Resource{Kind: KindAppointment, OwnerID: f.owner.ID, TrainerID: &trainerID}, Write, true},
		{"write appointment of another trainer", Resource{Kind: KindAppointment, OwnerID: f.owner.ID, TrainerID: &otherID}, Write, false},
		{"write appointment without trainer", Resource{Kind: KindAppointment, OwnerID: f.owner.ID}, Write, false},
		{"read meal plan", Resource{Kind: KindMealPlan, OwnerID: f.owner.ID, CreatorID: &otherID}, Read, true},
		{"write own meal plan", Resource{Kind: KindMealPlan, OwnerID: f.owner.ID, CreatorID: &trainerID}, Write, true},
		{"write workout plan by other creator", Resource{Kind: KindWorkoutPlan, OwnerID: f.owner.ID, CreatorID: ptr(f.owner.ID)}, Write, false},
		{"read payment", Resource{Kind: KindPayment, OwnerID: f.owner.ID}, Read, false},
		{"read subscription", Resource{Kind: KindSubscription, OwnerID: f.owner.ID}, Read, false},
		{"read non-client workout", Resource{Kind: KindWorkout, OwnerID: f.stranger.ID}, Read, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccess(f.trainer, tc.res, tc.action))
		})
	}
}

func TestCanAccess_ClientListRequiresTrainerRole(t *testing.T) {
	// A demoted trainer keeps a stale profile around; it grants nothing.
	owner := primitive.NewObjectID()
	u := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	actor := NewActor(u, &domain.TrainerProfile{UserID: u.ID, Clients: []primitive.ObjectID{owner}})
	assert.False(t, CanAccess(actor, Resource{Kind: KindWorkout, OwnerID: owner}, Read))

	// A profile belonging to someone else is ignored.
	trainer := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleTrainer}
	actor = NewActor(trainer, &domain.TrainerProfile{UserID: primitive.NewObjectID(), Clients: []primitive.ObjectID{owner}})
	assert.False(t, CanAccess(actor, Resource{Kind: KindWorkout, OwnerID: owner}, Read))

	assert.False(t, CanAccess(nil, Resource{Kind: KindWorkout, OwnerID: owner}, Read))
}

func TestAuthorize(t *testing.T) {
	f := newFixture()
	res := Resource{Kind: KindWorkout, OwnerID: f.owner.ID}

	assert.NoError(t, Authorize(f.owner, res, Write))
	err := Authorize(f.stranger, res, Read)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
