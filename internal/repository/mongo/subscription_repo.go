package mongo

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const subscriptionCollectionName = "subscriptions"

// mongoSubscriptionRepository implements repository.SubscriptionRepository
type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new Subscription repository.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.Plan == "" {
		return primitive.NilObjectID, errors.New("subscription requires userId and plan")
	}
	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.Date.IsZero() {
		sub.Date = now
	}
	if sub.Status == "" {
		sub.Status = domain.SubscriptionPending
	}
	return insert(ctx, r.collection, sub)
}

func (r *mongoSubscriptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	return findByID[domain.Subscription](ctx, r.collection, id)
}

func (r *mongoSubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Subscription, error) {
	if externalID == "" {
		return nil, repository.ErrNotFound
	}
	return findOne[domain.Subscription](ctx, r.collection, bson.M{"externalId": externalID})
}

// GetCurrentByUser returns the user's most recent subscription.
func (r *mongoSubscriptionRepository) GetCurrentByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findOne[domain.Subscription](ctx, r.collection, bson.M{"userId": userID}, opts)
}

func (r *mongoSubscriptionRepository) SetExternalID(ctx context.Context, id primitive.ObjectID, externalID string) error {
	return setFields(ctx, r.collection, id, bson.M{"externalId": externalID})
}

// ApplyState writes the processor-owned fields. Unless the new state is
// itself canceled, the filter excludes canceled documents.
func (r *mongoSubscriptionRepository) ApplyState(ctx context.Context, id primitive.ObjectID, state domain.SubscriptionState) (bool, error) {
	set := bson.M{
		"status":             state.Status,
		"currentPeriodStart": state.CurrentPeriodStart,
		"currentPeriodEnd":   state.CurrentPeriodEnd,
		"autoRenew":          state.AutoRenew,
		"updatedAt":          time.Now().UTC(),
	}
	if state.PriceID != "" {
		set["priceId"] = state.PriceID
	}
	if state.CanceledAt != nil {
		set["canceledAt"] = state.CanceledAt
	}

	filter := bson.M{"_id": id}
	if state.Status != domain.SubscriptionCanceled {
		filter["status"] = bson.M{"$ne": domain.SubscriptionCanceled}
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, translate(err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoSubscriptionRepository) DisableAutoRenew(ctx context.Context, id primitive.ObjectID) error {
	return setFields(ctx, r.collection, id, bson.M{"autoRenew": false})
}

// AddPayment pushes entry only if no entry with the same paymentId exists.
func (r *mongoSubscriptionRepository) AddPayment(ctx context.Context, id primitive.ObjectID, entry domain.PaymentHistoryEntry) error {
	filter := bson.M{"_id": id, "paymentHistory.paymentId": bson.M{"$ne": entry.PaymentID}}
	update := bson.M{
		"$push": bson.M{"paymentHistory": entry},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func subscriptionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
}
