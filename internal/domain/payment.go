package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further status change is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// PaymentTarget is what a payment pays for. The set of implementations is
// closed: AppointmentRef, SubscriptionRef and ServiceRef.
type PaymentTarget interface {
	TargetID() primitive.ObjectID
	isPaymentTarget()
}

type AppointmentRef struct{ ID primitive.ObjectID }

type SubscriptionRef struct{ ID primitive.ObjectID }

// ServiceRef points at a one-off trainer service (e.g. a program purchase).
type ServiceRef struct{ ID primitive.ObjectID }

func (r AppointmentRef) TargetID() primitive.ObjectID  { return r.ID }
func (r SubscriptionRef) TargetID() primitive.ObjectID { return r.ID }
func (r ServiceRef) TargetID() primitive.ObjectID      { return r.ID }

func (AppointmentRef) isPaymentTarget()  {}
func (SubscriptionRef) isPaymentTarget() {}
func (ServiceRef) isPaymentTarget()      {}

// Target kind names used on the wire and in storage.
const (
	TargetKindAppointment  = "appointment"
	TargetKindSubscription = "subscription"
	TargetKindService      = "service"
)

// TargetKind returns the storage name of t, or "" for nil.
func TargetKind(t PaymentTarget) string {
	switch t.(type) {
	case AppointmentRef:
		return TargetKindAppointment
	case SubscriptionRef:
		return TargetKindSubscription
	case ServiceRef:
		return TargetKindService
	}
	return ""
}

// NewPaymentTarget rebuilds a target from its storage form.
func NewPaymentTarget(kind string, id primitive.ObjectID) (PaymentTarget, error) {
	switch kind {
	case TargetKindAppointment:
		return AppointmentRef{ID: id}, nil
	case TargetKindSubscription:
		return SubscriptionRef{ID: id}, nil
	case TargetKindService:
		return ServiceRef{ID: id}, nil
	case "":
		return nil, nil
	}
	return nil, Validationf("unknown payment target %q", kind)
}

// Receipt is captured from the processor when a payment succeeds.
type Receipt struct {
	URL             string `bson:"url,omitempty" json:"url,omitempty"`
	Email           string `bson:"email,omitempty" json:"email,omitempty"`
	PaymentIntentID string `bson:"paymentIntentId,omitempty" json:"-"`
	ChargeID        string `bson:"chargeId,omitempty" json:"chargeId,omitempty"`
	PaymentMethod   string `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	AmountPaid      int64  `bson:"amountPaid" json:"amountPaid"`
	Currency        string `bson:"currency,omitempty" json:"currency,omitempty"`
}

type Refund struct {
	ExternalID string    `bson:"externalId" json:"externalId"`
	Amount     int64     `bson:"amount" json:"amount"`
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Payment is a single billing transaction. Target is persisted by the
// repository as {kind, id}; it is not part of the BSON shape here.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Amount        int64              `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Status        PaymentStatus      `bson:"status" json:"status"`
	ExternalID    string             `bson:"externalId,omitempty" json:"externalId,omitempty"` // Processor correlation id
	Target        PaymentTarget      `bson:"-" json:"-"`
	Receipt       *Receipt           `bson:"receipt,omitempty" json:"receipt,omitempty"`
	FailureReason string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	Refunds       []Refund           `bson:"refunds,omitempty" json:"refunds,omitempty"`
	Date          time.Time          `bson:"date" json:"date"` // Creation date, used for list sorting
	PaidAt        *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RefundedAmount sums all refunds recorded on the payment.
func (p *Payment) RefundedAmount() int64 {
	var total int64
	for _, r := range p.Refunds {
		total += r.Amount
	}
	return total
}
