package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProfileExists    = fmt.Errorf("%w: trainer profile already exists", domain.ErrConflict)
	ErrTooManyTrainers  = fmt.Errorf("%w: client already has the maximum number of trainers", domain.ErrConflict)
	ErrClientIsTrainer  = domain.Validationf("a trainer cannot be their own client")
	ErrClientIdentifier = domain.Validationf("clientId or email is required")
)

// TrainerProfileInput carries profile fields; nil leaves a field unchanged on update.
type TrainerProfileInput struct {
	Bio             *string
	Specializations []string
	Certifications  []string
	ExperienceYears *int
	HourlyRate      *int64
}

// ClientRef names a client either by id or by email.
type ClientRef struct {
	ID    primitive.ObjectID
	Email string
}

type TrainerService interface {
	CreateProfile(ctx context.Context, actor *authz.Actor, in TrainerProfileInput) (*domain.TrainerProfile, error)
	GetProfile(ctx context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error)
	ListProfiles(ctx context.Context, params url.Values) ([]domain.TrainerProfile, error)
	UpdateProfile(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in TrainerProfileInput) (*domain.TrainerProfile, error)
	DeleteProfile(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error

	// Client management
	AddClient(ctx context.Context, actor *authz.Actor, profileID primitive.ObjectID, client ClientRef) (*domain.User, error)
	RemoveClient(ctx context.Context, actor *authz.Actor, profileID, clientID primitive.ObjectID) error
	GetClients(ctx context.Context, actor *authz.Actor, profileID primitive.ObjectID) ([]domain.User, error)
}

type trainerService struct {
	users    repository.UserRepository
	trainers repository.TrainerProfileRepository
	log      logrus.FieldLogger
}

func NewTrainerService(repos *repository.Repositories, log logrus.FieldLogger) TrainerService {
	return &trainerService{
		users:    repos.Users,
		trainers: repos.Trainers,
		log:      log.WithField("component", "trainers"),
	}
}

// CreateProfile gives the caller a trainer profile and the trainer role.
// Admins keep their role.
func (s *trainerService) CreateProfile(ctx context.Context, actor *authz.Actor, in TrainerProfileInput) (*domain.TrainerProfile, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	newRole := user.Role
	if !user.IsAdmin() && !user.IsTrainer() {
		if newRole, err = domain.TransitionRole(user.Role, domain.RoleTrainer); err != nil {
			return nil, err
		}
	}

	profile := &domain.TrainerProfile{UserID: user.ID, Clients: []primitive.ObjectID{}}
	if err := applyProfileInput(profile, in); err != nil {
		return nil, err
	}
	if _, err := s.trainers.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	if newRole != user.Role {
		if err := s.users.SetRole(ctx, user.ID, newRole); err != nil {
			// Keep profile and role in step.
			if delErr := s.trainers.Delete(ctx, profile.ID); delErr != nil {
				s.log.WithError(delErr).WithField("profile_id", profile.ID.Hex()).Error("orphaned trainer profile")
			}
			return nil, err
		}
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "profile_id": profile.ID.Hex()}).Info("trainer profile created")
	return profile, nil
}

func (s *trainerService) GetProfile(ctx context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error) {
	return s.trainers.GetByID(ctx, id)
}

// ListProfiles is the public trainer directory.
func (s *trainerService) ListProfiles(ctx context.Context, params url.Values) ([]domain.TrainerProfile, error) {
	q, err := buildUnscoped(params, trainerListOptions)
	if err != nil {
		return nil, err
	}
	return s.trainers.List(ctx, q)
}

func (s *trainerService) UpdateProfile(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in TrainerProfileInput) (*domain.TrainerProfile, error) {
	profile, err := s.editableProfile(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyProfileInput(profile, in); err != nil {
		return nil, err
	}
	if err := s.trainers.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes the profile and reverts the owner to a regular user
// (admins keep their role).
func (s *trainerService) DeleteProfile(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	profile, err := s.editableProfile(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.trainers.Delete(ctx, profile.ID); err != nil {
		return err
	}

	owner, err := s.users.GetByID(ctx, profile.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner.IsTrainer() {
		role, err := domain.TransitionRole(owner.Role, domain.RoleUser)
		if err != nil {
			return err
		}
		if err := s.users.SetRole(ctx, owner.ID, role); err != nil {
			return err
		}
	}
	s.log.WithFields(logrus.Fields{"user_id": owner.ID.Hex(), "profile_id": profile.ID.Hex()}).Info("trainer profile deleted")
	return nil
}

// AddClient puts a user on the trainer's client list. A user can be on at
// most domain.MaxTrainersPerClient lists.
func (s *trainerService) AddClient(ctx context.Context, actor *authz.Actor, profileID primitive.ObjectID, ref ClientRef) (*domain.User, error) {
	profile, err := s.editableProfile(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}

	var client *domain.User
	switch {
	case !ref.ID.IsZero():
		client, err = loadUser(ctx, s.users, ref.ID, "clientId")
	case ref.Email != "":
		client, err = s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(ref.Email)))
		if errors.Is(err, repository.ErrNotFound) {
			err = domain.Validationf("no user with email %s", ref.Email)
		}
	default:
		err = ErrClientIdentifier
	}
	if err != nil {
		return nil, err
	}
	if client.ID == profile.UserID {
		return nil, ErrClientIsTrainer
	}
	if profile.HasClient(client.ID) {
		return client, nil
	}

	count, err := s.trainers.CountByClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxTrainersPerClient {
		return nil, ErrTooManyTrainers
	}
	if err := s.trainers.AddClient(ctx, profile.ID, client.ID); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"profile_id": profile.ID.Hex(), "client_id": client.ID.Hex()}).Info("client added")
	return client, nil
}

func (s *trainerService) RemoveClient(ctx context.Context, actor *authz.Actor, profileID, clientID primitive.ObjectID) error {
	profile, err := s.editableProfile(ctx, actor, profileID)
	if err != nil {
		return err
	}
	if !profile.HasClient(clientID) {
		return fmt.Errorf("%w: client is not on this trainer's list", domain.ErrNotFound)
	}
	return s.trainers.RemoveClient(ctx, profile.ID, clientID)
}

// GetClients retrieves the users on the trainer's client list.
func (s *trainerService) GetClients(ctx context.Context, actor *authz.Actor, profileID primitive.ObjectID) ([]domain.User, error) {
	profile, err := s.editableProfile(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	clients := make([]domain.User, 0, len(profile.Clients))
	for _, id := range profile.Clients {
		u, err := s.users.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue // deleted account still listed
		}
		if err != nil {
			return nil, err
		}
		clients = append(clients, *u)
	}
	return clients, nil
}

// editableProfile loads a profile that actor owns (or actor is admin).
func (s *trainerService) editableProfile(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.TrainerProfile, error) {
	profile, err := s.trainers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != profile.UserID {
		return nil, fmt.Errorf("%w: not your trainer profile", domain.ErrPermissionDenied)
	}
	return profile, nil
}

func applyProfileInput(p *domain.TrainerProfile, in TrainerProfileInput) error {
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Specializations != nil {
		p.Specializations = in.Specializations
	}
	if in.Certifications != nil {
		p.Certifications = in.Certifications
	}
	if in.ExperienceYears != nil {
		if *in.ExperienceYears < 0 {
			return domain.Validationf("experienceYears cannot be negative")
		}
		p.ExperienceYears = *in.ExperienceYears
	}
	if in.HourlyRate != nil {
		if *in.HourlyRate < 0 {
			return domain.Validationf("hourlyRate cannot be negative")
		}
		p.HourlyRate = *in.HourlyRate
	}
	return nil
}
