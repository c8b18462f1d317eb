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
	"alcyxob/fitness-hub/internal/storage"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrStorageDisabled = fmt.Errorf("%w: file storage is not configured", domain.ErrExternalService)

// Profile is a user together with a short-lived avatar URL.
type Profile struct {
	*domain.User
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UserUpdate holds the self-editable fields; nil leaves a field unchanged.
type UserUpdate struct {
	Name  *string
	Phone *string
}

// AvatarUpload tells the client where to PUT the image.
type AvatarUpload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type UserService interface {
	Me(ctx context.Context, actor *authz.Actor) (*Profile, error)
	UpdateMe(ctx context.Context, actor *authz.Actor, update UserUpdate) (*domain.User, error)
	CreateAvatarUpload(ctx context.Context, actor *authz.Actor, contentType string) (*AvatarUpload, error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.User, error)
	Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error
}

type userService struct {
	users    repository.UserRepository
	trainers repository.TrainerProfileRepository
	files    storage.FileStorage // nil when uploads are disabled
	log      logrus.FieldLogger
}

func NewUserService(repos *repository.Repositories, files storage.FileStorage, log logrus.FieldLogger) UserService {
	return &userService{
		users:    repos.Users,
		trainers: repos.Trainers,
		files:    files,
		log:      log.WithField("component", "users"),
	}
}

func (s *userService) Me(ctx context.Context, actor *authz.Actor) (*Profile, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: user}
	if user.AvatarKey != "" && s.files != nil {
		link, err := s.files.GeneratePresignedDownloadURL(ctx, user.AvatarKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			// The profile is still useful without the picture.
			s.log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("avatar url not generated")
		} else {
			profile.AvatarURL = link
		}
	}
	return profile, nil
}

func (s *userService) UpdateMe(ctx context.Context, actor *authz.Actor, update UserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		user.Name = name
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAvatarUpload issues a presigned PUT for a new avatar and records the
// key on the user. The previous avatar object is removed.
func (s *userService) CreateAvatarUpload(ctx context.Context, actor *authz.Actor, contentType string) (*AvatarUpload, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	key, err := storage.AvatarKey(user.ID, contentType)
	if err != nil {
		return nil, err
	}
	uploadURL, err := s.files.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	previous := user.AvatarKey
	user.AvatarKey = key
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" {
		s.removeObject(ctx, previous)
	}
	return &AvatarUpload{UploadURL: uploadURL, ObjectKey: key}, nil
}

// Get returns a user profile to the user, an admin, or the user's trainer.
func (s *userService) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindUser, OwnerID: user.ID}, authz.Read); err != nil {
		return nil, err
	}
	return user, nil
}

// List is the admin directory of all users.
func (s *userService) List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	q, err := buildUnscoped(params, userListOptions)
	if err != nil {
		return nil, err
	}
	return s.users.List(ctx, q)
}

// Delete removes a user, their trainer profile and their avatar. Admin only.
func (s *userService) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if user.IsTrainer() {
		profile, err := s.trainers.GetByUserID(ctx, user.ID)
		switch {
		case err == nil:
			if err := s.trainers.Delete(ctx, profile.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if user.AvatarKey != "" && s.files != nil {
		s.removeObject(ctx, user.AvatarKey)
	}
	s.log.WithField("user_id", user.ID.Hex()).Info("user deleted")
	return nil
}

// removeObject deletes a stored file, logging instead of failing.
func (s *userService) removeObject(ctx context.Context, key string) {
	if s.files == nil {
		return
	}
	if err := s.files.DeleteObject(ctx, key); err != nil {
		s.log.WithError(err).WithField("object_key", key).Warn("stale object not removed")
	}
}
