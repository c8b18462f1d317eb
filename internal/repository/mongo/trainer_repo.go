package mongo

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainerCollectionName = "trainers"

// mongoTrainerProfileRepository implements repository.TrainerProfileRepository
type mongoTrainerProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainerProfileRepository creates a new TrainerProfile repository.
func NewMongoTrainerProfileRepository(db *mongo.Database) repository.TrainerProfileRepository {
	return &mongoTrainerProfileRepository{
		collection: db.Collection(trainerCollectionName),
	}
}

// Create inserts a new trainer profile. The unique userId index rejects a second profile.
func (r *mongoTrainerProfileRepository) Create(ctx context.Context, profile *domain.TrainerProfile) (primitive.ObjectID, error) {
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
	return insert(ctx, r.collection, profile)
}

func (r *mongoTrainerProfileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error) {
	return findByID[domain.TrainerProfile](ctx, r.collection, id)
}

func (r *mongoTrainerProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	return findOne[domain.TrainerProfile](ctx, r.collection, bson.M{"userId": userID})
}

func (r *mongoTrainerProfileRepository) List(ctx context.Context, q query.List) ([]domain.TrainerProfile, error) {
	return findList[domain.TrainerProfile](ctx, r.collection, q)
}

// Update modifies the descriptive fields. UserID and Clients are not touched here.
func (r *mongoTrainerProfileRepository) Update(ctx context.Context, profile *domain.TrainerProfile) error {
	return setFields(ctx, r.collection, profile.ID, bson.M{
		"bio":             profile.Bio,
		"specializations": profile.Specializations,
		"certifications":  profile.Certifications,
		"experienceYears": profile.ExperienceYears,
		"hourlyRate":      profile.HourlyRate,
	})
}

func (r *mongoTrainerProfileRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// AddClient adds a client to the profile's client set.
func (r *mongoTrainerProfileRepository) AddClient(ctx context.Context, profileID, clientID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"clients": clientID}, // $addToSet prevents duplicates
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": profileID}, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainerProfileRepository) RemoveClient(ctx context.Context, profileID, clientID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"clients": clientID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": profileID}, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByClient counts the trainer profiles listing clientID.
func (r *mongoTrainerProfileRepository) CountByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"clients": clientID})
	return n, translate(err)
}

func trainerIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true), // One profile per user
		},
		{
			// Multikey index for client membership lookups
			Keys:    bson.D{{Key: "clients", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "specializations", Value: 1}},
			Options: options.Index(),
		},
	}
}
