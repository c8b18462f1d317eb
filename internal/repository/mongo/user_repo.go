package mongo

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository" // Import the repository interfaces package
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	// Basic validation, more robust validation belongs in service layer
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	// A duplicate email surfaces as repository.ErrDuplicate via the unique index
	return insert(ctx, r.collection, user)
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"email": email})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return findByID[domain.User](ctx, r.collection, id)
}

// List returns users matching an admin list query.
func (r *mongoUserRepository) List(ctx context.Context, q query.List) ([]domain.User, error) {
	return findList[domain.User](ctx, r.collection, q)
}

// Update modifies the profile fields a user may change about themselves.
// Email, role and billing fields have dedicated methods.
func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	if user.ID == primitive.NilObjectID {
		return errors.New("user ID is required for update")
	}
	return setFields(ctx, r.collection, user.ID, bson.M{
		"name":      user.Name,
		"phone":     user.Phone,
		"avatarKey": user.AvatarKey,
	})
}

// SetRole stores a role that the service already validated with domain.TransitionRole.
func (r *mongoUserRepository) SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error {
	return setFields(ctx, r.collection, id, bson.M{"role": role})
}

func (r *mongoUserRepository) SetStripeCustomerID(ctx context.Context, id primitive.ObjectID, customerID string) error {
	return setFields(ctx, r.collection, id, bson.M{"stripeCustomerId": customerID})
}

// SetSubscription mirrors the user's subscription state onto their record.
func (r *mongoUserRepository) SetSubscription(ctx context.Context, id primitive.ObjectID, status domain.SubscriptionStatus, plan string) error {
	return setFields(ctx, r.collection, id, bson.M{
		"subscriptionStatus": status,
		"subscriptionPlan":   plan,
	})
}

func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true), // Make email unique
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "stripeCustomerId", Value: 1}},
			Options: options.Index().SetSparse(true), // Sparse because not all users have a customer yet
		},
	}
}
