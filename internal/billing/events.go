// Package billing reconciles local payment and subscription records with
// lifecycle events reported by the payment processor. Every event is safe
// to apply more than once and in any order.
package billing

import (
	"time"

	"alcyxob/fitness-hub/internal/domain"
)

// Event is a processor lifecycle event already translated into local terms.
// The implementations are PaymentSucceeded, PaymentFailed,
// SubscriptionChanged and SubscriptionDeleted.
type Event interface {
	// Kind is a stable name used in logs and metrics.
	Kind() string
	// CorrelationID is the processor id matched against ExternalID.
	CorrelationID() string
	isEvent()
}

// PaymentSucceeded reports a captured payment.
type PaymentSucceeded struct {
	ExternalID string
	Receipt    *domain.Receipt
	OccurredAt time.Time
}

// PaymentFailed reports a declined or abandoned payment.
type PaymentFailed struct {
	ExternalID string
	Reason     string
	OccurredAt time.Time
}

// SubscriptionChanged reports a created or updated processor subscription.
// Status is the processor's own status string.
type SubscriptionChanged struct {
	ExternalID         string
	Created            bool
	Status             string
	PriceID            string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	OccurredAt         time.Time
}

// SubscriptionDeleted reports a subscription that ended.
type SubscriptionDeleted struct {
	ExternalID string
	CanceledAt time.Time
	OccurredAt time.Time
}

func (PaymentSucceeded) Kind() string { return "payment_succeeded" }
func (PaymentFailed) Kind() string    { return "payment_failed" }
func (e SubscriptionChanged) Kind() string {
	if e.Created {
		return "subscription_created"
	}
	return "subscription_updated"
}
func (SubscriptionDeleted) Kind() string { return "subscription_deleted" }

func (e PaymentSucceeded) CorrelationID() string    { return e.ExternalID }
func (e PaymentFailed) CorrelationID() string       { return e.ExternalID }
func (e SubscriptionChanged) CorrelationID() string { return e.ExternalID }
func (e SubscriptionDeleted) CorrelationID() string { return e.ExternalID }

func (PaymentSucceeded) isEvent()    {}
func (PaymentFailed) isEvent()       {}
func (SubscriptionChanged) isEvent() {}
func (SubscriptionDeleted) isEvent() {}
