package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentStatus type for appointment lifecycle
type AppointmentStatus string

const (
	AppointmentPending       AppointmentStatus = "pending"
	AppointmentConfirmed     AppointmentStatus = "confirmed" // Paid, or confirmed by the trainer
	AppointmentCompleted     AppointmentStatus = "completed"
	AppointmentCanceled      AppointmentStatus = "canceled"
	AppointmentPaymentFailed AppointmentStatus = "payment_failed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCanceled, AppointmentPaymentFailed:
		return true
	}
	return false
}

// Feedback left by the client once the session is completed.
type Feedback struct {
	Rating      int       `bson:"rating" json:"rating"` // 1..5
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	SubmittedAt time.Time `bson:"submittedAt" json:"submittedAt"`
}

// Appointment is a scheduled session between a user (owner) and a trainer.
type Appointment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`       // Owner, immutable
	TrainerID    primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Trainer's user id
	Date         time.Time          `bson:"date" json:"date"`
	Duration     int                `bson:"duration" json:"duration"` // minutes
	Type         string             `bson:"type,omitempty" json:"type,omitempty"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Price        int64              `bson:"price" json:"price"` // smallest currency unit
	Status       AppointmentStatus  `bson:"status" json:"status"`
	CancelReason string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CanceledAt   *time.Time         `bson:"canceledAt,omitempty" json:"canceledAt,omitempty"`
	Feedback     *Feedback          `bson:"feedback,omitempty" json:"feedback,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
