package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// PaymentHistoryEntry is appended to a subscription on every successful charge.
type PaymentHistoryEntry struct {
	PaymentID primitive.ObjectID `bson:"paymentId" json:"paymentId"`
	Amount    int64              `bson:"amount" json:"amount"`
	Currency  string             `bson:"currency" json:"currency"`
	PaidAt    time.Time          `bson:"paidAt" json:"paidAt"`
}

// Subscription is a recurring plan billed by the processor.
type Subscription struct {
	ID                 primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID    `bson:"userId" json:"userId"`
	Plan               string                `bson:"plan" json:"plan"`
	PriceID            string                `bson:"priceId" json:"priceId"`
	Status             SubscriptionStatus    `bson:"status" json:"status"`
	ExternalID         string                `bson:"externalId,omitempty" json:"externalId,omitempty"`
	CurrentPeriodStart *time.Time            `bson:"currentPeriodStart,omitempty" json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time            `bson:"currentPeriodEnd,omitempty" json:"currentPeriodEnd,omitempty"`
	AutoRenew          bool                  `bson:"autoRenew" json:"autoRenew"`
	CanceledAt         *time.Time            `bson:"canceledAt,omitempty" json:"canceledAt,omitempty"`
	PaymentHistory     []PaymentHistoryEntry `bson:"paymentHistory,omitempty" json:"paymentHistory,omitempty"`
	Date               time.Time             `bson:"date" json:"date"`
	CreatedAt          time.Time             `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time             `bson:"updatedAt" json:"updatedAt"`
}

// SubscriptionState is the processor-owned part of a subscription, written
// as a whole on every lifecycle event (last value wins).
type SubscriptionState struct {
	Status             SubscriptionStatus
	PriceID            string // empty keeps the stored value
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	AutoRenew          bool
	CanceledAt         *time.Time
}
