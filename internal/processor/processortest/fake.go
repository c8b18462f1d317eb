// Package processortest provides an in-memory processor.Processor for tests.
package processortest

import (
	"context"
	"fmt"
	"sync"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor"
)

// Fake records calls and hands out sequential ids. Set Err to make every
// call fail with an external service error.
type Fake struct {
	mu sync.Mutex
	n  int

	Err error

	Customers     map[string]string // customer id -> email
	Methods       map[string][]processor.PaymentMethod
	Checkouts     []processor.CheckoutRequest
	Subscriptions []processor.SubscriptionRequest
	Canceled      []string
	Refunds       []processor.RefundRequest
	Plans         []processor.PlanRequest

	// SubscriptionAmount is reported as the first invoice amount.
	SubscriptionAmount int64
}

var _ processor.Processor = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Customers:          map[string]string{},
		Methods:            map[string][]processor.PaymentMethod{},
		SubscriptionAmount: 1999,
	}
}

func (f *Fake) next(prefix string) string {
	f.n++
	return fmt.Sprintf("%s_%d", prefix, f.n)
}

func (f *Fake) fail() error {
	if f.Err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalService, f.Err)
	}
	return nil
}

func (f *Fake) CreateCustomer(_ context.Context, email, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return "", err
	}
	id := f.next("cus")
	f.Customers[id] = email
	return id, nil
}

func (f *Fake) CreateSetupIntent(_ context.Context, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return "", err
	}
	return f.next("seti") + "_secret_" + customerID, nil
}

func (f *Fake) ListPaymentMethods(_ context.Context, customerID string) ([]processor.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return append([]processor.PaymentMethod{}, f.Methods[customerID]...), nil
}

func (f *Fake) AttachPaymentMethod(_ context.Context, methodID, customerID string) (*processor.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	m := processor.PaymentMethod{ID: methodID, Type: "card", Brand: "visa", Last4: "4242"}
	f.Methods[customerID] = append(f.Methods[customerID], m)
	return &m, nil
}

func (f *Fake) DetachPaymentMethod(_ context.Context, methodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	for customer, methods := range f.Methods {
		kept := methods[:0]
		for _, m := range methods {
			if m.ID != methodID {
				kept = append(kept, m)
			}
		}
		f.Methods[customer] = kept
	}
	return nil
}

func (f *Fake) CreateCheckoutSession(_ context.Context, req processor.CheckoutRequest) (*processor.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.Checkouts = append(f.Checkouts, req)
	id := f.next("cs")
	return &processor.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (f *Fake) CreatePlan(_ context.Context, req processor.PlanRequest) (*processor.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.Plans = append(f.Plans, req)
	return &processor.Plan{ProductID: f.next("prod"), PriceID: f.next("price")}, nil
}

func (f *Fake) CreateSubscription(_ context.Context, req processor.SubscriptionRequest) (*processor.SubscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.Subscriptions = append(f.Subscriptions, req)
	pi := f.next("pi")
	return &processor.SubscriptionResult{
		ID:              f.next("sub"),
		Status:          "incomplete",
		PaymentIntentID: pi,
		ClientSecret:    pi + "_secret",
		Amount:          f.SubscriptionAmount,
		Currency:        "usd",
	}, nil
}

func (f *Fake) CancelSubscriptionAtPeriodEnd(_ context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.Canceled = append(f.Canceled, externalID)
	return nil
}

func (f *Fake) Refund(_ context.Context, req processor.RefundRequest) (*processor.RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.Refunds = append(f.Refunds, req)
	return &processor.RefundResult{ID: f.next("re"), Amount: req.Amount, Status: "succeeded"}, nil
}
