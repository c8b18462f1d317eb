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

const appointmentCollectionName = "appointments"

// mongoAppointmentRepository implements repository.AppointmentRepository
type mongoAppointmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAppointmentRepository creates a new Appointment repository backed by MongoDB.
func NewMongoAppointmentRepository(db *mongo.Database) repository.AppointmentRepository {
	return &mongoAppointmentRepository{
		collection: db.Collection(appointmentCollectionName),
	}
}

// Create inserts a new appointment into the database.
func (r *mongoAppointmentRepository) Create(ctx context.Context, appt *domain.Appointment) (primitive.ObjectID, error) {
	if appt.UserID == primitive.NilObjectID || appt.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("appointment requires userId and trainerId")
	}

	appt.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	if appt.Status == "" { // Default status if not provided
		appt.Status = domain.AppointmentPending
	}
	return insert(ctx, r.collection, appt)
}

// GetByID retrieves an appointment by its ID.
func (r *mongoAppointmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	return findByID[domain.Appointment](ctx, r.collection, id)
}

func (r *mongoAppointmentRepository) List(ctx context.Context, q query.List) ([]domain.Appointment, error) {
	return findList[domain.Appointment](ctx, r.collection, q)
}

// Update modifies an existing appointment. The owner (userId) is never written.
func (r *mongoAppointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	if appt.ID == primitive.NilObjectID {
		return errors.New("appointment ID is required for update")
	}
	return setFields(ctx, r.collection, appt.ID, bson.M{
		"trainerId":    appt.TrainerID,
		"date":         appt.Date,
		"duration":     appt.Duration,
		"type":         appt.Type,
		"location":     appt.Location,
		"notes":        appt.Notes,
		"price":        appt.Price,
		"status":       appt.Status,
		"cancelReason": appt.CancelReason,
		"canceledAt":   appt.CanceledAt,
		"feedback":     appt.Feedback,
	})
}

func (r *mongoAppointmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// SetStatus is a conditional single-document write, safe to retry.
func (r *mongoAppointmentRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.AppointmentStatus, from ...domain.AppointmentStatus) (bool, error) {
	filter := bson.M{"_id": id}
	if len(from) > 0 {
		filter["status"] = bson.M{"$in": from}
	}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translate(err)
	}
	return result.MatchedCount > 0, nil
}

func appointmentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// A specific user's appointments sorted by date
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
}
