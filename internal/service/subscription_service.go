package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor"
	"alcyxob/fitness-hub/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrAlreadySubscribed = fmt.Errorf("%w: an active subscription already exists", domain.ErrConflict)

var planIntervals = map[string]struct{}{"day": {}, "week": {}, "month": {}, "year": {}}

// SubscriptionStart is returned to the client to confirm the first payment.
type SubscriptionStart struct {
	Subscription *domain.Subscription `json:"subscription"`
	ClientSecret string               `json:"clientSecret"`
}

type SubscriptionService interface {
	Current(ctx context.Context, actor *authz.Actor) (*domain.Subscription, error)
	Create(ctx context.Context, actor *authz.Actor, plan, priceID string) (*SubscriptionStart, error)
	Cancel(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Subscription, error)
	CreatePlan(ctx context.Context, actor *authz.Actor, req processor.PlanRequest) (*processor.Plan, error)
}

type subscriptionService struct {
	subscriptions repository.SubscriptionRepository
	payments      repository.PaymentRepository
	users         repository.UserRepository
	processor     processor.Processor
	currency      string
	log           logrus.FieldLogger
}

func NewSubscriptionService(repos *repository.Repositories, proc processor.Processor, currency string, log logrus.FieldLogger) SubscriptionService {
	return &subscriptionService{
		subscriptions: repos.Subscriptions,
		payments:      repos.Payments,
		users:         repos.Users,
		processor:     proc,
		currency:      strings.ToLower(currency),
		log:           log.WithField("component", "subscriptions"),
	}
}

func subscriptionResource(sub *domain.Subscription) authz.Resource {
	return authz.Resource{Kind: authz.KindSubscription, OwnerID: sub.UserID}
}

// Current returns the caller's most recent subscription.
func (s *subscriptionService) Current(ctx context.Context, actor *authz.Actor) (*domain.Subscription, error) {
	return s.subscriptions.GetCurrentByUser(ctx, actor.ID)
}

// Create starts a processor subscription. The local record stays pending
// until the first invoice is paid and the webhook activates it.
func (s *subscriptionService) Create(ctx context.Context, actor *authz.Actor, plan, priceID string) (*SubscriptionStart, error) {
	plan, priceID = strings.TrimSpace(plan), strings.TrimSpace(priceID)
	if plan == "" || priceID == "" {
		return nil, domain.Validationf("plan and priceId are required")
	}
	current, err := s.subscriptions.GetCurrentByUser(ctx, actor.ID)
	switch {
	case err == nil:
		if current.Status == domain.SubscriptionActive || current.Status == domain.SubscriptionPastDue {
			return nil, ErrAlreadySubscribed
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := ensureCustomer(ctx, s.users, s.processor, user)
	if err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		UserID:    user.ID,
		Plan:      plan,
		PriceID:   priceID,
		Status:    domain.SubscriptionPending,
		AutoRenew: true,
	}
	if _, err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, err
	}

	result, err := s.processor.CreateSubscription(ctx, processor.SubscriptionRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		Metadata:   map[string]string{"subscriptionId": sub.ID.Hex(), "userId": user.ID.Hex()},
	})
	if err != nil {
		s.abandon(ctx, sub, err)
		return nil, err
	}
	if err := s.subscriptions.SetExternalID(ctx, sub.ID, result.ID); err != nil {
		s.abandon(ctx, sub, err)
		return nil, err
	}
	sub.ExternalID = result.ID

	// The first invoice's payment intent settles through the payment webhooks.
	if result.PaymentIntentID != "" {
		currency := strings.ToLower(result.Currency)
		if currency == "" {
			currency = s.currency
		}
		payment := &domain.Payment{
			UserID:      user.ID,
			Amount:      result.Amount,
			Currency:    currency,
			Description: fmt.Sprintf("Subscription %s", plan),
			ExternalID:  result.PaymentIntentID,
			Target:      domain.SubscriptionRef{ID: sub.ID},
		}
		if _, err := s.payments.Create(ctx, payment); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID.Hex(),
		"external_id":     result.ID,
		"plan":            plan,
	}).Info("subscription started")
	return &SubscriptionStart{Subscription: sub, ClientSecret: result.ClientSecret}, nil
}

// Cancel stops renewal at the end of the current period. The status moves
// to canceled when the processor reports the deletion.
func (s *subscriptionService) Cancel(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, subscriptionResource(sub), authz.Write); err != nil {
		return nil, err
	}
	if sub.Status == domain.SubscriptionCanceled {
		return nil, fmt.Errorf("%w: subscription is already canceled", domain.ErrConflict)
	}
	if sub.ExternalID != "" {
		if err := s.processor.CancelSubscriptionAtPeriodEnd(ctx, sub.ExternalID); err != nil {
			return nil, err
		}
	}

	// Only the renewal flag is written; status and period belong to the webhooks.
	if err := s.subscriptions.DisableAutoRenew(ctx, sub.ID); err != nil {
		return nil, err
	}
	return s.subscriptions.GetByID(ctx, sub.ID)
}

// abandon cancels a local subscription whose processor side never came to
// be, so it is not reported as the caller's current subscription.
func (s *subscriptionService) abandon(ctx context.Context, sub *domain.Subscription, cause error) {
	now := time.Now().UTC()
	state := domain.SubscriptionState{Status: domain.SubscriptionCanceled, CanceledAt: &now}
	if _, err := s.subscriptions.ApplyState(ctx, sub.ID, state); err != nil {
		s.log.WithError(err).WithField("subscription_id", sub.ID.Hex()).Error("pending subscription left behind")
		return
	}
	s.log.WithError(cause).WithField("subscription_id", sub.ID.Hex()).Warn("subscription abandoned")
}

// CreatePlan registers a product with a recurring price. Admin only.
func (s *subscriptionService) CreatePlan(ctx context.Context, actor *authz.Actor, req processor.PlanRequest) (*processor.Plan, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Amount <= 0 {
		return nil, domain.Validationf("name and a positive amount are required")
	}
	if req.Interval == "" {
		req.Interval = "month"
	}
	if _, ok := planIntervals[req.Interval]; !ok {
		return nil, domain.Validationf("interval must be day, week, month or year")
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}
	return s.processor.CreatePlan(ctx, req)
}
