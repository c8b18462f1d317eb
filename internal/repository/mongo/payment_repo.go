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

const paymentCollectionName = "payments"

// paymentDoc is the stored shape of a payment; the target union is flattened
// into targetKind/targetId.
type paymentDoc struct {
	domain.Payment `bson:",inline"`
	TargetKind     string              `bson:"targetKind,omitempty"`
	TargetID       *primitive.ObjectID `bson:"targetId,omitempty"`
}

func toPaymentDoc(p *domain.Payment) paymentDoc {
	doc := paymentDoc{Payment: *p}
	if p.Target != nil {
		id := p.Target.TargetID()
		doc.TargetKind = domain.TargetKind(p.Target)
		doc.TargetID = &id
	}
	return doc
}

func (d *paymentDoc) toDomain() (*domain.Payment, error) {
	p := d.Payment
	if d.TargetKind != "" && d.TargetID != nil {
		target, err := domain.NewPaymentTarget(d.TargetKind, *d.TargetID)
		if err != nil {
			return nil, err
		}
		p.Target = target
	}
	return &p, nil
}

// mongoPaymentRepository implements repository.PaymentRepository
type mongoPaymentRepository struct {
	collection *mongo.Collection
}

// NewMongoPaymentRepository creates a new Payment repository.
func NewMongoPaymentRepository(db *mongo.Database) repository.PaymentRepository {
	return &mongoPaymentRepository{
		collection: db.Collection(paymentCollectionName),
	}
}

// Create inserts a new payment. New payments always start pending.
func (r *mongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (primitive.ObjectID, error) {
	if payment.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("payment requires userId")
	}
	payment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Date.IsZero() {
		payment.Date = now
	}
	payment.Status = domain.PaymentPending
	return insert(ctx, r.collection, toPaymentDoc(payment))
}

func (r *mongoPaymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Payment, error) {
	doc, err := findByID[paymentDoc](ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

// GetByExternalID looks a payment up by the processor's correlation id.
func (r *mongoPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Payment, error) {
	if externalID == "" {
		return nil, repository.ErrNotFound
	}
	doc, err := findOne[paymentDoc](ctx, r.collection, bson.M{"externalId": externalID})
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *mongoPaymentRepository) List(ctx context.Context, q query.List) ([]domain.Payment, error) {
	docs, err := findList[paymentDoc](ctx, r.collection, q)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.Payment, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, nil
}

func (r *mongoPaymentRepository) SetExternalID(ctx context.Context, id primitive.ObjectID, externalID string) error {
	return setFields(ctx, r.collection, id, bson.M{"externalId": externalID})
}

// Resolve only matches while the stored status is pending or already the
// requested one, so a completed payment never flips to failed.
func (r *mongoPaymentRepository) Resolve(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus, receipt *domain.Receipt, failureReason string, at time.Time) (bool, error) {
	if !status.Terminal() {
		return false, domain.Validationf("payment can only resolve to a terminal status, got %q", status)
	}
	set := bson.M{"status": status, "updatedAt": time.Now().UTC()}
	switch status {
	case domain.PaymentCompleted:
		set["paidAt"] = at
		if receipt != nil {
			set["receipt"] = receipt
		}
	case domain.PaymentFailed:
		set["failureReason"] = failureReason
	}

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": []domain.PaymentStatus{domain.PaymentPending, status}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, translate(err)
	}
	return result.MatchedCount > 0, nil
}

// HasCompletedForTarget reports whether the target was already paid.
func (r *mongoPaymentRepository) HasCompletedForTarget(ctx context.Context, target domain.PaymentTarget) (bool, error) {
	if target == nil {
		return false, nil
	}
	filter := bson.M{
		"targetKind": domain.TargetKind(target),
		"targetId":   target.TargetID(),
		"status":     domain.PaymentCompleted,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// AddRefund appends a refund; a refund with the same external id is recorded once.
func (r *mongoPaymentRepository) AddRefund(ctx context.Context, id primitive.ObjectID, refund domain.Refund) error {
	filter := bson.M{"_id": id, "refunds.externalId": bson.M{"$ne": refund.ExternalID}}
	update := bson.M{
		"$push": bson.M{"refunds": refund},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		// Either missing or already recorded.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func paymentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "targetKind", Value: 1}, {Key: "targetId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
}
