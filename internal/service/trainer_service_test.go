package service

import (
	"net/url"
	"testing"

	"alcyxob/fitness-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateProfile_TransitionsRole(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	u := f.user(t, "Tess", domain.RoleUser)

	profile, err := svc.CreateProfile(f.ctx, f.actor(t, u), TrainerProfileInput{Bio: ptr("  coach  "), HourlyRate: ptr(int64(5000))})
	require.NoError(t, err)
	assert.Equal(t, "coach", profile.Bio)
	assert.Equal(t, []primitive.ObjectID{}, profile.Clients)

	stored, err := f.repos.Users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTrainer, stored.Role)

	_, err = svc.CreateProfile(f.ctx, f.actor(t, u), TrainerProfileInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, svc.DeleteProfile(f.ctx, f.actor(t, u), profile.ID))
	stored, err = f.repos.Users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, stored.Role)
}

func TestCreateProfile_AdminKeepsRole(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	admin := f.user(t, "Root", domain.RoleAdmin)

	profile, err := svc.CreateProfile(f.ctx, f.actor(t, admin), TrainerProfileInput{})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProfile(f.ctx, f.actor(t, admin), profile.ID))

	stored, err := f.repos.Users.GetByID(f.ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
}

func TestCreateProfile_RejectsNegativeValues(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	u := f.user(t, "Tess", domain.RoleUser)

	_, err := svc.CreateProfile(f.ctx, f.actor(t, u), TrainerProfileInput{ExperienceYears: ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	stored, err := f.repos.Users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, stored.Role)
}

func TestProfileEditing_OwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	tr, profile := f.trainer(t)
	stranger := f.user(t, "Eve", domain.RoleUser)
	admin := f.user(t, "Root", domain.RoleAdmin)

	_, err := svc.UpdateProfile(f.ctx, f.actor(t, stranger), profile.ID, TrainerProfileInput{Bio: ptr("hacked")})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.UpdateProfile(f.ctx, f.actor(t, stranger), primitive.NewObjectID(), TrainerProfileInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := svc.UpdateProfile(f.ctx, f.actor(t, admin), profile.ID, TrainerProfileInput{Specializations: []string{"yoga"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"yoga"}, updated.Specializations)

	updated, err = svc.UpdateProfile(f.ctx, f.actor(t, tr), profile.ID, TrainerProfileInput{ExperienceYears: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.ExperienceYears)
	assert.Equal(t, []string{"yoga"}, updated.Specializations)
}

func TestAddClient(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	tr, profile := f.trainer(t)
	client := f.user(t, "Cleo", domain.RoleUser)

	added, err := svc.AddClient(f.ctx, f.actor(t, tr), profile.ID, ClientRef{Email: client.Email})
	require.NoError(t, err)
	assert.Equal(t, client.ID, added.ID)

	// Adding twice is a no-op.
	_, err = svc.AddClient(f.ctx, f.actor(t, tr), profile.ID, ClientRef{ID: client.ID})
	require.NoError(t, err)

	clients, err := svc.GetClients(f.ctx, f.actor(t, tr), profile.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, client.ID, clients[0].ID)
	assert.True(t, f.actor(t, tr).IsTrainerOf(client.ID))

	_, err = svc.AddClient(f.ctx, f.actor(t, tr), profile.ID, ClientRef{ID: tr.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddClient(f.ctx, f.actor(t, tr), profile.ID, ClientRef{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddClient(f.ctx, f.actor(t, tr), profile.ID, ClientRef{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddClient(f.ctx, f.actor(t, client), profile.ID, ClientRef{ID: client.ID})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	require.NoError(t, svc.RemoveClient(f.ctx, f.actor(t, tr), profile.ID, client.ID))
	assert.ErrorIs(t, svc.RemoveClient(f.ctx, f.actor(t, tr), profile.ID, client.ID), domain.ErrNotFound)
	assert.False(t, f.actor(t, tr).IsTrainerOf(client.ID))
}

func TestAddClient_TrainerLimit(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	for i := 0; i < domain.MaxTrainersPerClient; i++ {
		f.trainer(t, client)
	}
	tr, profile := f.trainer(t)

	_, err := svc.AddClient(f.ctx, f.actor(t, tr), profile.ID, ClientRef{ID: client.ID})
	assert.ErrorIs(t, err, ErrTooManyTrainers)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListProfiles(t *testing.T) {
	f := newFixture(t)
	svc := NewTrainerService(f.repos, f.log)
	_, cheap := f.trainer(t)
	_, pricey := f.trainer(t)
	cheap.HourlyRate, pricey.HourlyRate = 3000, 9000
	require.NoError(t, f.repos.Trainers.Update(f.ctx, cheap))
	require.NoError(t, f.repos.Trainers.Update(f.ctx, pricey))

	got, err := svc.ListProfiles(f.ctx, url.Values{"hourlyRate[gte]": {"5000"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pricey.ID, got[0].ID)

	_, err = svc.ListProfiles(f.ctx, url.Values{"clients": {"x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}
