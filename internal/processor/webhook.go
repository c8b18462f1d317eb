package processor

import (
	"encoding/json"
	"fmt"
	"time"

	"alcyxob/fitness-hub/internal/billing"
	"alcyxob/fitness-hub/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrInvalidSignature is returned for webhooks that fail verification.
var ErrInvalidSignature = fmt.Errorf("%w: invalid webhook signature", domain.ErrValidation)

// WebhookParser verifies Stripe webhooks and translates them into billing events.
type WebhookParser struct {
	secret string
}

func NewWebhookParser(secret string) *WebhookParser {
	return &WebhookParser{secret: secret}
}

// Parse verifies the Stripe-Signature header and translates the event. It
// returns a nil event for types reconciliation does not handle.
func (p *WebhookParser) Parse(payload []byte, signature string) (billing.Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return translateEvent(evt)
}

func translateEvent(evt stripe.Event) (billing.Event, error) {
	occurred := time.Unix(evt.Created, 0).UTC()
	if evt.Data == nil {
		return nil, domain.Validationf("event %s has no data", evt.ID)
	}

	switch evt.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := decode(evt, &pi); err != nil {
			return nil, err
		}
		return billing.PaymentSucceeded{ExternalID: pi.ID, Receipt: intentReceipt(&pi), OccurredAt: occurred}, nil

	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := decode(evt, &pi); err != nil {
			return nil, err
		}
		reason := "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		return billing.PaymentFailed{ExternalID: pi.ID, Reason: reason, OccurredAt: occurred}, nil

	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if err := decode(evt, &cs); err != nil {
			return nil, err
		}
		// Delayed payment methods complete the session unpaid; the async event follows.
		if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return nil, nil
		}
		return billing.PaymentSucceeded{ExternalID: cs.ID, Receipt: sessionReceipt(&cs), OccurredAt: occurred}, nil

	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		var cs stripe.CheckoutSession
		if err := decode(evt, &cs); err != nil {
			return nil, err
		}
		return billing.PaymentFailed{ExternalID: cs.ID, Reason: "asynchronous payment failed", OccurredAt: occurred}, nil

	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := decode(evt, &sub); err != nil {
			return nil, err
		}
		return billing.SubscriptionChanged{
			ExternalID:         sub.ID,
			Created:            evt.Type == stripe.EventTypeCustomerSubscriptionCreated,
			Status:             string(sub.Status),
			PriceID:            subscriptionPrice(&sub),
			CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
			CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
			CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
			CanceledAt:         unixTime(sub.CanceledAt),
			OccurredAt:         occurred,
		}, nil

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := decode(evt, &sub); err != nil {
			return nil, err
		}
		ev := billing.SubscriptionDeleted{ExternalID: sub.ID, OccurredAt: occurred}
		if at := unixTime(sub.CanceledAt); at != nil {
			ev.CanceledAt = *at
		}
		return ev, nil
	}
	return nil, nil
}

func decode(evt stripe.Event, into any) error {
	if err := json.Unmarshal(evt.Data.Raw, into); err != nil {
		return domain.Validationf("malformed %s payload: %v", evt.Type, err)
	}
	return nil
}

func intentReceipt(pi *stripe.PaymentIntent) *domain.Receipt {
	r := &domain.Receipt{
		PaymentIntentID: pi.ID,
		Email:           pi.ReceiptEmail,
		AmountPaid:      pi.AmountReceived,
		Currency:        string(pi.Currency),
	}
	if r.AmountPaid == 0 {
		r.AmountPaid = pi.Amount
	}
	if pi.PaymentMethod != nil {
		r.PaymentMethod = pi.PaymentMethod.ID
	}
	if ch := pi.LatestCharge; ch != nil {
		r.ChargeID = ch.ID
		r.URL = ch.ReceiptURL
		if r.Email == "" {
			r.Email = ch.ReceiptEmail
		}
	}
	return r
}

func sessionReceipt(cs *stripe.CheckoutSession) *domain.Receipt {
	r := &domain.Receipt{
		AmountPaid: cs.AmountTotal,
		Currency:   string(cs.Currency),
		Email:      cs.CustomerEmail,
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		r.Email = cs.CustomerDetails.Email
	}
	if cs.PaymentIntent != nil {
		r.PaymentIntentID = cs.PaymentIntent.ID
	}
	return r
}

func subscriptionPrice(sub *stripe.Subscription) string {
	if sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item != nil && item.Price != nil {
			return item.Price.ID
		}
	}
	return ""
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
