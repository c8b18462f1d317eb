package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer       = "fitness-hub"
	minPasswordLength = 8
)

var (
	ErrUserAlreadyExists    = fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
	ErrAuthenticationFailed = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	ErrInvalidToken         = fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthenticated)
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// Authenticate resolves a bearer token to the calling actor.
	Authenticate(ctx context.Context, token string) (*authz.Actor, error)
}

type authService struct {
	users         repository.UserRepository
	trainers      repository.TrainerProfileRepository
	jwtSecret     []byte
	jwtExpiration time.Duration
	log           logrus.FieldLogger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(repos *repository.Repositories, jwtSecret string, jwtExpiration time.Duration, log logrus.FieldLogger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		users:         repos.Users,
		trainers:      repos.Trainers,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		log:           log.WithField("component", "auth"),
	}
}

// Register creates a regular user. Trainer and admin roles are never self-assigned.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, domain.Validationf("name, email and password are required")
	}
	if len(password) < minPasswordLength {
		return nil, domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	s.log.WithField("user_id", user.ID.Hex()).Info("user registered")

	user.PasswordHash = ""
	return user, nil
}

// Login checks the credentials and issues a signed token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.Validationf("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) Authenticate(ctx context.Context, raw string) (*authz.Actor, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// The stored role wins over the claim: it changes when a trainer profile is created or removed.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	var profile *domain.TrainerProfile
	if user.IsTrainer() {
		profile, err = s.trainers.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return authz.NewActor(user, profile), nil
}

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
