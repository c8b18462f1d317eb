package billing

import (
	"context"
	"testing"
	"time"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"
	"alcyxob/fitness-hub/internal/repository/memory"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	ctx   context.Context
	repos *repository.Repositories
	rec   *Reconciler
	user  *domain.User
	at    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repos := memory.NewRepositories()
	f := &fixture{
		ctx:   context.Background(),
		repos: repos,
		rec:   NewReconciler(repos, logger),
		user:  &domain.User{Email: "u@example.com", PasswordHash: "hash", Role: domain.RoleUser},
		at:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	_, err := repos.Users.Create(f.ctx, f.user)
	require.NoError(t, err)
	return f
}

func (f *fixture) payment(t *testing.T, externalID string, target domain.PaymentTarget) *domain.Payment {
	t.Helper()
	p := &domain.Payment{UserID: f.user.ID, Amount: 4500, Currency: "usd", ExternalID: externalID, Target: target}
	_, err := f.repos.Payments.Create(f.ctx, p)
	require.NoError(t, err)
	return p
}

func (f *fixture) subscription(t *testing.T, externalID string) *domain.Subscription {
	t.Helper()
	sub := &domain.Subscription{UserID: f.user.ID, Plan: "premium", PriceID: "price_1", ExternalID: externalID}
	_, err := f.repos.Subscriptions.Create(f.ctx, sub)
	require.NoError(t, err)
	return sub
}

func (f *fixture) apply(t *testing.T, ev Event) string {
	t.Helper()
	outcome, err := f.rec.ApplyEvent(f.ctx, ev)
	require.NoError(t, err)
	return outcome
}

func TestPaymentSucceeded_ConfirmsAppointment(t *testing.T) {
	f := newFixture(t)
	appt := &domain.Appointment{UserID: f.user.ID, TrainerID: primitive.NewObjectID(), Date: f.at, Price: 4500}
	_, err := f.repos.Appointments.Create(f.ctx, appt)
	require.NoError(t, err)
	p := f.payment(t, "pi_appt", domain.AppointmentRef{ID: appt.ID})

	ev := PaymentSucceeded{ExternalID: "pi_appt", Receipt: &domain.Receipt{URL: "https://receipt", AmountPaid: 4500}, OccurredAt: f.at}
	assert.Equal(t, OutcomeApplied, f.apply(t, ev))

	storedPayment, err := f.repos.Payments.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, storedPayment.Status)
	require.NotNil(t, storedPayment.Receipt)
	assert.Equal(t, "https://receipt", storedPayment.Receipt.URL)
	require.NotNil(t, storedPayment.PaidAt)
	assert.True(t, f.at.Equal(*storedPayment.PaidAt))

	storedAppt, err := f.repos.Appointments.GetByID(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentConfirmed, storedAppt.Status)

	// Replay is harmless.
	assert.Equal(t, OutcomeApplied, f.apply(t, ev))
	again, err := f.repos.Payments.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, storedPayment.Status, again.Status)
	assert.Equal(t, storedPayment.PaidAt, again.PaidAt)

	// A late failure for the same payment does not undo the success.
	assert.Equal(t, OutcomeStale, f.apply(t, PaymentFailed{ExternalID: "pi_appt", Reason: "card_declined", OccurredAt: f.at}))
	storedAppt, err = f.repos.Appointments.GetByID(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentConfirmed, storedAppt.Status)
}

func TestPaymentFailed_MarksTargets(t *testing.T) {
	f := newFixture(t)
	appt := &domain.Appointment{UserID: f.user.ID, TrainerID: primitive.NewObjectID(), Date: f.at}
	_, err := f.repos.Appointments.Create(f.ctx, appt)
	require.NoError(t, err)
	f.payment(t, "pi_appt", domain.AppointmentRef{ID: appt.ID})

	sub := f.subscription(t, "sub_1")
	require.True(t, mustApplyState(t, f, sub.ID, domain.SubscriptionActive))
	f.payment(t, "pi_sub", domain.SubscriptionRef{ID: sub.ID})

	f.apply(t, PaymentFailed{ExternalID: "pi_appt", Reason: "insufficient_funds", OccurredAt: f.at})
	f.apply(t, PaymentFailed{ExternalID: "pi_sub", Reason: "expired_card", OccurredAt: f.at})

	storedAppt, err := f.repos.Appointments.GetByID(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentPaymentFailed, storedAppt.Status)

	storedSub, err := f.repos.Subscriptions.GetByID(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPastDue, storedSub.Status)

	failed, err := f.repos.Payments.GetByExternalID(f.ctx, "pi_appt")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, failed.Status)
	assert.Equal(t, "insufficient_funds", failed.FailureReason)
}

func TestPaymentSucceeded_ActivatesSubscriptionOnce(t *testing.T) {
	f := newFixture(t)
	sub := f.subscription(t, "sub_1")
	p := f.payment(t, "pi_sub", domain.SubscriptionRef{ID: sub.ID})

	ev := PaymentSucceeded{ExternalID: "pi_sub", Receipt: &domain.Receipt{AmountPaid: 999, Currency: "usd"}, OccurredAt: f.at}
	f.apply(t, ev)
	f.apply(t, ev)

	stored, err := f.repos.Subscriptions.GetByID(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, stored.Status)
	require.Len(t, stored.PaymentHistory, 1)
	assert.Equal(t, p.ID, stored.PaymentHistory[0].PaymentID)
	assert.EqualValues(t, 999, stored.PaymentHistory[0].Amount)

	user, err := f.repos.Users.GetByID(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, user.SubscriptionStatus)
	assert.Equal(t, "premium", user.SubscriptionPlan)
}

func TestSubscriptionEvents_CancellationIsSticky(t *testing.T) {
	f := newFixture(t)
	sub := f.subscription(t, "sub_1")
	start, end := f.at, f.at.AddDate(0, 1, 0)

	updated := SubscriptionChanged{
		ExternalID:         "sub_1",
		Status:             "active",
		PriceID:            "price_2",
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		OccurredAt:         f.at,
	}
	assert.Equal(t, OutcomeApplied, f.apply(t, updated))

	stored, err := f.repos.Subscriptions.GetByID(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, stored.Status)
	assert.Equal(t, "price_2", stored.PriceID)
	assert.True(t, stored.AutoRenew)

	assert.Equal(t, OutcomeApplied, f.apply(t, SubscriptionDeleted{ExternalID: "sub_1", OccurredAt: f.at.Add(time.Hour)}))

	// A delayed update delivered after the deletion is ignored.
	assert.Equal(t, OutcomeStale, f.apply(t, updated))

	stored, err = f.repos.Subscriptions.GetByID(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionCanceled, stored.Status)
	assert.False(t, stored.AutoRenew)
	require.NotNil(t, stored.CanceledAt)
	assert.True(t, f.at.Add(time.Hour).Equal(*stored.CanceledAt))

	user, err := f.repos.Users.GetByID(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionCanceled, user.SubscriptionStatus)
}

func TestSubscriptionChanged_RepeatedDeliveryMatchesSingle(t *testing.T) {
	f := newFixture(t)
	sub := f.subscription(t, "sub_1")
	start, end := f.at, f.at.AddDate(0, 1, 0)
	ev := SubscriptionChanged{
		ExternalID:         "sub_1",
		Status:             "active",
		PriceID:            "price_2",
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		CancelAtPeriodEnd:  true,
		OccurredAt:         f.at,
	}

	snapshot := func() (domain.Subscription, domain.User) {
		t.Helper()
		stored, err := f.repos.Subscriptions.GetByID(f.ctx, sub.ID)
		require.NoError(t, err)
		user, err := f.repos.Users.GetByID(f.ctx, f.user.ID)
		require.NoError(t, err)
		stored.UpdatedAt, user.UpdatedAt = time.Time{}, time.Time{}
		return *stored, *user
	}

	assert.Equal(t, OutcomeApplied, f.apply(t, ev))
	onceSub, onceUser := snapshot()
	assert.Equal(t, domain.SubscriptionActive, onceSub.Status)
	assert.False(t, onceSub.AutoRenew)
	assert.Equal(t, domain.SubscriptionActive, onceUser.SubscriptionStatus)
	assert.Equal(t, "premium", onceUser.SubscriptionPlan)

	for i := 0; i < 2; i++ {
		f.apply(t, ev)
	}
	thriceSub, thriceUser := snapshot()
	assert.Equal(t, onceSub, thriceSub)
	assert.Equal(t, onceUser, thriceUser)
}

func TestSubscriptionChanged_PastDueDoesNotPropagate(t *testing.T) {
	f := newFixture(t)
	f.subscription(t, "sub_1")

	f.apply(t, SubscriptionChanged{ExternalID: "sub_1", Status: "unpaid", OccurredAt: f.at})

	sub, err := f.repos.Subscriptions.GetByExternalID(f.ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPastDue, sub.Status)

	user, err := f.repos.Users.GetByID(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, user.SubscriptionStatus)
}

func TestApplyEvent_UnknownRecordIsIgnored(t *testing.T) {
	f := newFixture(t)
	events := []Event{
		PaymentSucceeded{ExternalID: "pi_missing", OccurredAt: f.at},
		PaymentFailed{ExternalID: "pi_missing", OccurredAt: f.at},
		SubscriptionChanged{ExternalID: "sub_missing", Status: "active", OccurredAt: f.at},
		SubscriptionDeleted{ExternalID: "sub_missing", OccurredAt: f.at},
	}
	for _, ev := range events {
		assert.Equal(t, OutcomeIgnored, f.apply(t, ev), ev.Kind())
	}
}

func TestMapStatus(t *testing.T) {
	cases := map[string]domain.SubscriptionStatus{
		"active":             domain.SubscriptionActive,
		"trialing":           domain.SubscriptionActive,
		"past_due":           domain.SubscriptionPastDue,
		"unpaid":             domain.SubscriptionPastDue,
		"canceled":           domain.SubscriptionCanceled,
		"incomplete_expired": domain.SubscriptionCanceled,
		"incomplete":         domain.SubscriptionPending,
		"paused":             domain.SubscriptionPending,
		"":                   domain.SubscriptionPending,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapStatus(in), in)
	}
}

func mustApplyState(t *testing.T, f *fixture, id primitive.ObjectID, status domain.SubscriptionStatus) bool {
	t.Helper()
	ok, err := f.repos.Subscriptions.ApplyState(f.ctx, id, domain.SubscriptionState{Status: status, AutoRenew: true})
	require.NoError(t, err)
	return ok
}
