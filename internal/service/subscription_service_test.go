package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/fitness-hub/internal/billing"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor"
	"alcyxob/fitness-hub/internal/processor/processortest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_CreateTracksFirstPayment(t *testing.T) {
	f := newFixture(t)
	svc := NewSubscriptionService(f.repos, f.proc, "usd", f.log)
	u := f.user(t, "Sam", domain.RoleUser)

	_, err := svc.Create(f.ctx, f.actor(t, u), "premium", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	start, err := svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	require.NoError(t, err)
	sub := start.Subscription
	assert.Equal(t, domain.SubscriptionPending, sub.Status)
	assert.NotEmpty(t, sub.ExternalID)
	assert.NotEmpty(t, start.ClientSecret)
	require.Len(t, f.proc.Subscriptions, 1)
	assert.Equal(t, sub.ID.Hex(), f.proc.Subscriptions[0].Metadata["subscriptionId"])

	payments, err := f.repos.Payments.List(f.ctx, paymentsOf(t, u))
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.SubscriptionRef{ID: sub.ID}, payments[0].Target)
	assert.Equal(t, int64(1999), payments[0].Amount)
	assert.Equal(t, domain.PaymentPending, payments[0].Status)

	current, err := svc.Current(f.ctx, f.actor(t, u))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, current.ID)

	_, err = f.repos.Subscriptions.ApplyState(f.ctx, sub.ID, domain.SubscriptionState{Status: domain.SubscriptionActive, AutoRenew: true})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscription_CancelAtPeriodEnd(t *testing.T) {
	f := newFixture(t)
	svc := NewSubscriptionService(f.repos, f.proc, "usd", f.log)
	u := f.user(t, "Sam", domain.RoleUser)
	stranger := f.user(t, "Eve", domain.RoleUser)
	start, err := svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	require.NoError(t, err)
	id := start.Subscription.ID

	_, err = svc.Cancel(f.ctx, f.actor(t, stranger), id)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	sub, err := svc.Cancel(f.ctx, f.actor(t, u), id)
	require.NoError(t, err)
	assert.False(t, sub.AutoRenew)
	assert.Equal(t, []string{start.Subscription.ExternalID}, f.proc.Canceled)

	stored, err := f.repos.Subscriptions.GetByID(f.ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.AutoRenew)
	assert.Equal(t, domain.SubscriptionPending, stored.Status)
	assert.Equal(t, "price_1", stored.PriceID)
}

func TestSubscription_CreatePlanIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewSubscriptionService(f.repos, f.proc, "usd", f.log)
	u := f.user(t, "Sam", domain.RoleUser)
	admin := f.user(t, "Root", domain.RoleAdmin)

	_, err := svc.CreatePlan(f.ctx, f.actor(t, u), processor.PlanRequest{Name: "Premium", Amount: 1999})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = svc.CreatePlan(f.ctx, f.actor(t, admin), processor.PlanRequest{Name: "Premium", Amount: 1999, Interval: "fortnight"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	plan, err := svc.CreatePlan(f.ctx, f.actor(t, admin), processor.PlanRequest{Name: "Premium", Amount: 1999})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.PriceID)
	require.Len(t, f.proc.Plans, 1)
	assert.Equal(t, "month", f.proc.Plans[0].Interval)
	assert.Equal(t, "usd", f.proc.Plans[0].Currency)
}

// settlingProcessor delivers a webhook while the cancellation is in flight.
type settlingProcessor struct {
	*processortest.Fake
	settle func(ctx context.Context)
}

func (p *settlingProcessor) CancelSubscriptionAtPeriodEnd(ctx context.Context, externalID string) error {
	p.settle(ctx)
	return p.Fake.CancelSubscriptionAtPeriodEnd(ctx, externalID)
}

func TestSubscription_CancelKeepsConcurrentActivation(t *testing.T) {
	f := newFixture(t)
	rec := billing.NewReconciler(f.repos, f.log)
	u := f.user(t, "Sam", domain.RoleUser)

	var paymentIntent string
	proc := &settlingProcessor{Fake: f.proc, settle: func(ctx context.Context) {
		outcome, err := rec.ApplyEvent(ctx, billing.PaymentSucceeded{ExternalID: paymentIntent, OccurredAt: time.Now().UTC()})
		require.NoError(t, err)
		require.Equal(t, billing.OutcomeApplied, outcome)
	}}
	svc := NewSubscriptionService(f.repos, proc, "usd", f.log)

	start, err := svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	require.NoError(t, err)
	payments, err := f.repos.Payments.List(f.ctx, paymentsOf(t, u))
	require.NoError(t, err)
	require.Len(t, payments, 1)
	paymentIntent = payments[0].ExternalID

	sub, err := svc.Cancel(f.ctx, f.actor(t, u), start.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.False(t, sub.AutoRenew)
	assert.Len(t, sub.PaymentHistory, 1)

	stored, err := f.repos.Users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, stored.SubscriptionStatus)
	assert.Equal(t, sub.Status, stored.SubscriptionStatus)
}

func TestSubscription_CreateAbandonsOrphanOnFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewSubscriptionService(f.repos, f.proc, "usd", f.log)
	u := f.user(t, "Sam", domain.RoleUser)
	require.NoError(t, f.repos.Users.SetStripeCustomerID(f.ctx, u.ID, "cus_existing"))

	f.proc.Err = errors.New("card network down")
	_, err := svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	assert.ErrorIs(t, err, domain.ErrExternalService)

	current, err := svc.Current(f.ctx, f.actor(t, u))
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionCanceled, current.Status)
	assert.Empty(t, current.ExternalID)
	assert.NotNil(t, current.CanceledAt)

	// The fake hands out pi_1 and sub_2 next; a clash on sub_2 fails the
	// local correlation step.
	other := &domain.Subscription{UserID: f.user(t, "Eve", domain.RoleUser).ID, Plan: "basic", ExternalID: "sub_2"}
	_, err = f.repos.Subscriptions.Create(f.ctx, other)
	require.NoError(t, err)
	f.proc.Err = nil
	_, err = svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	require.Error(t, err)

	current, err = svc.Current(f.ctx, f.actor(t, u))
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionCanceled, current.Status)

	start, err := svc.Create(f.ctx, f.actor(t, u), "premium", "price_1")
	require.NoError(t, err)
	current, err = svc.Current(f.ctx, f.actor(t, u))
	require.NoError(t, err)
	assert.Equal(t, start.Subscription.ID, current.ID)
	assert.Equal(t, domain.SubscriptionPending, current.Status)
	assert.NotEmpty(t, current.ExternalID)
}
