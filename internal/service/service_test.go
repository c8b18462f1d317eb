package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor/processortest"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"
	"alcyxob/fitness-hub/internal/repository/memory"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	ctx   context.Context
	repos *repository.Repositories
	proc  *processortest.Fake
	log   *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return &fixture{
		ctx:   context.Background(),
		repos: memory.NewRepositories(),
		proc:  processortest.New(),
		log:   logger,
	}
}

func (f *fixture) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         name,
		Email:        primitive.NewObjectID().Hex() + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	_, err := f.repos.Users.Create(f.ctx, u)
	require.NoError(t, err)
	return u
}

// trainer creates a trainer with a profile listing clients.
func (f *fixture) trainer(t *testing.T, clients ...*domain.User) (*domain.User, *domain.TrainerProfile) {
	t.Helper()
	u := f.user(t, "Trainer", domain.RoleTrainer)
	profile := &domain.TrainerProfile{UserID: u.ID}
	for _, c := range clients {
		profile.Clients = append(profile.Clients, c.ID)
	}
	_, err := f.repos.Trainers.Create(f.ctx, profile)
	require.NoError(t, err)
	return u, profile
}

// actor resolves u the way the auth middleware does.
func (f *fixture) actor(t *testing.T, u *domain.User) *authz.Actor {
	t.Helper()
	stored, err := f.repos.Users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	profile, err := f.repos.Trainers.GetByUserID(f.ctx, u.ID)
	if errors.Is(err, repository.ErrNotFound) {
		profile = nil
	} else {
		require.NoError(t, err)
	}
	return authz.NewActor(stored, profile)
}

func ptr[T any](v T) *T { return &v }

// paymentsOf lists every payment of u.
func paymentsOf(t *testing.T, u *domain.User) query.List {
	t.Helper()
	q, err := query.Build(url.Values{}, &query.Scope{Field: query.OwnerParam, Owner: u.ID}, paymentListOptions)
	require.NoError(t, err)
	return q
}
