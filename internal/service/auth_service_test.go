package service

import (
	"testing"
	"time"

	"alcyxob/fitness-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.repos, "secret", time.Hour, f.log)

	user, err := auth.Register(f.ctx, "Ann", "  Ann@Example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash)

	_, err = auth.Register(f.ctx, "Ann again", "ann@example.com", "password2")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = auth.Register(f.ctx, "Bob", "bob@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.repos, "secret", time.Hour, f.log)
	registered, err := auth.Register(f.ctx, "Ann", "ann@example.com", "password1")
	require.NoError(t, err)

	_, _, err = auth.Login(f.ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, _, err = auth.Login(f.ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	token, user, err := auth.Login(f.ctx, "ANN@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	actor, err := auth.Authenticate(f.ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, actor.ID)
	assert.Equal(t, domain.RoleUser, actor.Role)

	// Role changes apply to tokens issued before them.
	require.NoError(t, f.repos.Users.SetRole(f.ctx, registered.ID, domain.RoleAdmin))
	actor, err = auth.Authenticate(f.ctx, token)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.repos, "secret", time.Hour, f.log)
	other := NewAuthService(f.repos, "another-secret", time.Hour, f.log)
	_, err := auth.Register(f.ctx, "Ann", "ann@example.com", "password1")
	require.NoError(t, err)
	foreign, _, err := other.Login(f.ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	for name, token := range map[string]string{"garbage": "not-a-token", "wrong secret": foreign, "empty": ""} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Authenticate(f.ctx, token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestAuthenticate_LoadsTrainerClients(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.repos, "secret", time.Hour, f.log)
	client := f.user(t, "Client", domain.RoleUser)
	registered, err := auth.Register(f.ctx, "Tess", "tess@example.com", "password1")
	require.NoError(t, err)

	trainers := NewTrainerService(f.repos, f.log)
	_, err = trainers.CreateProfile(f.ctx, f.actor(t, registered), TrainerProfileInput{})
	require.NoError(t, err)
	profile, err := f.repos.Trainers.GetByUserID(f.ctx, registered.ID)
	require.NoError(t, err)
	require.NoError(t, f.repos.Trainers.AddClient(f.ctx, profile.ID, client.ID))

	token, _, err := auth.Login(f.ctx, "tess@example.com", "password1")
	require.NoError(t, err)
	actor, err := auth.Authenticate(f.ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTrainer, actor.Role)
	assert.True(t, actor.IsTrainerOf(client.ID))
}
