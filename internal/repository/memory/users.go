package memory

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	users *table[domain.User]
}

// NewUserRepository returns an empty in-memory repository.UserRepository.
func NewUserRepository() repository.UserRepository {
	return &userRepository{users: newTable(func(u *domain.User) primitive.ObjectID { return u.ID })}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.users.insert(*user, func(existing, row *domain.User) error {
		if strings.EqualFold(existing.Email, row.Email) {
			return fmt.Errorf("%w: email %s", repository.ErrDuplicate, row.Email)
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.users.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.users.get(id)
}

func (r *userRepository) List(_ context.Context, q query.List) ([]domain.User, error) {
	return r.users.list(q)
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	return r.users.update(user.ID, func(u *domain.User) {
		u.Name = user.Name
		u.Phone = user.Phone
		u.AvatarKey = user.AvatarKey
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *userRepository) SetRole(_ context.Context, id primitive.ObjectID, role domain.Role) error {
	return r.users.update(id, func(u *domain.User) {
		u.Role = role
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *userRepository) SetStripeCustomerID(_ context.Context, id primitive.ObjectID, customerID string) error {
	return r.users.update(id, func(u *domain.User) {
		u.StripeCustomerID = customerID
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *userRepository) SetSubscription(_ context.Context, id primitive.ObjectID, status domain.SubscriptionStatus, plan string) error {
	return r.users.update(id, func(u *domain.User) {
		u.SubscriptionStatus = status
		u.SubscriptionPlan = plan
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *userRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.users.delete(id)
}

type trainerProfileRepository struct {
	profiles *table[domain.TrainerProfile]
}

// NewTrainerProfileRepository returns an empty in-memory repository.TrainerProfileRepository.
func NewTrainerProfileRepository() repository.TrainerProfileRepository {
	return &trainerProfileRepository{profiles: newTable(func(p *domain.TrainerProfile) primitive.ObjectID { return p.ID })}
}

func (r *trainerProfileRepository) Create(_ context.Context, profile *domain.TrainerProfile) (primitive.ObjectID, error) {
	if profile.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("trainer profile requires userId")
	}
	profile.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.Clients == nil {
		profile.Clients = []primitive.ObjectID{}
	}

	err := r.profiles.insert(*profile, func(existing, row *domain.TrainerProfile) error {
		if existing.UserID == row.UserID {
			return fmt.Errorf("%w: user already has a trainer profile", repository.ErrDuplicate)
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return profile.ID, nil
}

func (r *trainerProfileRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error) {
	return r.profiles.get(id)
}

func (r *trainerProfileRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	return r.profiles.find(func(p *domain.TrainerProfile) bool { return p.UserID == userID })
}

func (r *trainerProfileRepository) List(_ context.Context, q query.List) ([]domain.TrainerProfile, error) {
	return r.profiles.list(q)
}

func (r *trainerProfileRepository) Update(_ context.Context, profile *domain.TrainerProfile) error {
	return r.profiles.update(profile.ID, func(p *domain.TrainerProfile) {
		p.Bio = profile.Bio
		p.Specializations = profile.Specializations
		p.Certifications = profile.Certifications
		p.ExperienceYears = profile.ExperienceYears
		p.HourlyRate = profile.HourlyRate
		p.UpdatedAt = time.Now().UTC()
	})
}

func (r *trainerProfileRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.profiles.delete(id)
}

// AddClient behaves like $addToSet.
func (r *trainerProfileRepository) AddClient(_ context.Context, profileID, clientID primitive.ObjectID) error {
	return r.profiles.update(profileID, func(p *domain.TrainerProfile) {
		if p.HasClient(clientID) {
			return
		}
		p.Clients = append(slices.Clone(p.Clients), clientID)
		p.UpdatedAt = time.Now().UTC()
	})
}

// RemoveClient behaves like $pull.
func (r *trainerProfileRepository) RemoveClient(_ context.Context, profileID, clientID primitive.ObjectID) error {
	return r.profiles.update(profileID, func(p *domain.TrainerProfile) {
		p.Clients = slices.DeleteFunc(slices.Clone(p.Clients), func(id primitive.ObjectID) bool { return id == clientID })
		p.UpdatedAt = time.Now().UTC()
	})
}

func (r *trainerProfileRepository) CountByClient(_ context.Context, clientID primitive.ObjectID) (int64, error) {
	n := r.profiles.count(func(p *domain.TrainerProfile) bool { return p.HasClient(clientID) })
	return int64(n), nil
}
