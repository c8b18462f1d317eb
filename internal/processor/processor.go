// Package processor talks to the external payment processor: outbound API
// calls and verification of the webhooks it sends back.
package processor

import (
	"context"
)

// PaymentMethod is a saved card or other instrument of a customer.
type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	ExpMonth int64  `json:"expMonth,omitempty"`
	ExpYear  int64  `json:"expYear,omitempty"`
}

// CheckoutRequest describes a one-off hosted checkout.
type CheckoutRequest struct {
	CustomerID  string
	Description string
	Amount      int64 // smallest currency unit
	Currency    string
	Reference   string // local payment id, echoed back by the processor
	Metadata    map[string]string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PlanRequest creates a product with one recurring price.
type PlanRequest struct {
	Name        string
	Description string
	Amount      int64
	Currency    string
	Interval    string // day, week, month or year
}

type Plan struct {
	ProductID string `json:"productId"`
	PriceID   string `json:"priceId"`
}

type SubscriptionRequest struct {
	CustomerID string
	PriceID    string
	Metadata   map[string]string
}

// SubscriptionResult carries what the client needs to confirm the first payment.
type SubscriptionResult struct {
	ID              string
	Status          string
	PaymentIntentID string
	ClientSecret    string
	Amount          int64 // first invoice
	Currency        string
}

// RefundRequest refunds a charge or payment intent; Amount zero refunds in full.
type RefundRequest struct {
	PaymentIntentID string
	ChargeID        string
	Amount          int64
	Reason          string
}

type RefundResult struct {
	ID     string
	Amount int64
	Status string
}

// Processor is the outbound surface of the payment processor. Every error
// wraps domain.ErrExternalService.
type Processor interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
	CreateSetupIntent(ctx context.Context, customerID string) (string, error)
	ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error)
	AttachPaymentMethod(ctx context.Context, methodID, customerID string) (*PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, methodID string) error
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, externalID string) error
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
