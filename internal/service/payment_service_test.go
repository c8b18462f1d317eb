package service

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) appointment(t *testing.T, owner, trainer *domain.User, price int64) *domain.Appointment {
	t.Helper()
	appt := &domain.Appointment{UserID: owner.ID, TrainerID: trainer.ID, Date: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), Price: price}
	_, err := f.repos.Appointments.Create(f.ctx, appt)
	require.NoError(t, err)
	return appt
}

func TestCheckout_Appointment(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "USD", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	tr, _ := f.trainer(t, client)
	appt := f.appointment(t, client, tr, 4500)

	_, err := svc.Checkout(f.ctx, f.actor(t, tr), CheckoutInput{AppointmentID: appt.ID})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	checkout, err := svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{AppointmentID: appt.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, checkout.Payment.Status)
	assert.Equal(t, int64(4500), checkout.Payment.Amount)
	assert.Equal(t, "usd", checkout.Payment.Currency)
	assert.Equal(t, domain.AppointmentRef{ID: appt.ID}, checkout.Payment.Target)
	assert.NotEmpty(t, checkout.CheckoutURL)

	require.Len(t, f.proc.Checkouts, 1)
	assert.Equal(t, checkout.Payment.ID.Hex(), f.proc.Checkouts[0].Reference)
	assert.Len(t, f.proc.Customers, 1)

	stored, err := f.repos.Payments.GetByExternalID(f.ctx, checkout.SessionID)
	require.NoError(t, err)
	assert.Equal(t, checkout.Payment.ID, stored.ID)

	// A second attempt is fine while the first is unpaid.
	_, err = svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{AppointmentID: appt.ID})
	require.NoError(t, err)
	assert.Len(t, f.proc.Customers, 1)

	ok, err := f.repos.Payments.Resolve(f.ctx, stored.ID, domain.PaymentCompleted, &domain.Receipt{AmountPaid: 4500}, "", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	_, err = svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{AppointmentID: appt.ID})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestCheckout_ServiceAndValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "usd", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	tr, _ := f.trainer(t, client)

	_, err := svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{ServiceID: tr.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	free := f.appointment(t, client, tr, 0)
	_, err = svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{AppointmentID: free.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	checkout, err := svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{ServiceID: tr.ID, Amount: 12000, Description: "12 week program"})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceRef{ID: tr.ID}, checkout.Payment.Target)
	assert.Equal(t, "12 week program", f.proc.Checkouts[0].Description)
}

func TestCheckout_ProcessorFailureFailsPayment(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "usd", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	tr, _ := f.trainer(t, client)
	appt := f.appointment(t, client, tr, 4500)

	_, err := svc.EnsureCustomer(f.ctx, f.actor(t, client))
	require.NoError(t, err)
	f.proc.Err = errors.New("processor down")

	_, err = svc.Checkout(f.ctx, f.actor(t, client), CheckoutInput{AppointmentID: appt.ID})
	assert.ErrorIs(t, err, domain.ErrExternalService)

	payments, err := svc.List(f.ctx, f.actor(t, client), url.Values{})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentFailed, payments[0].Status)
}

func TestPaymentMethods(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "usd", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	other := f.user(t, "Olga", domain.RoleUser)

	methods, err := svc.ListMethods(f.ctx, f.actor(t, client))
	require.NoError(t, err)
	assert.Empty(t, methods)

	secret, err := svc.CreateSetupIntent(f.ctx, f.actor(t, client))
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	_, err = svc.AttachMethod(f.ctx, f.actor(t, client), "pm_card")
	require.NoError(t, err)
	methods, err = svc.ListMethods(f.ctx, f.actor(t, client))
	require.NoError(t, err)
	require.Len(t, methods, 1)

	assert.ErrorIs(t, svc.DetachMethod(f.ctx, f.actor(t, other), "pm_card"), domain.ErrNotFound)
	require.NoError(t, svc.DetachMethod(f.ctx, f.actor(t, client), "pm_card"))
	methods, err = svc.ListMethods(f.ctx, f.actor(t, client))
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestPayments_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "usd", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	tr, _ := f.trainer(t, client)
	p := &domain.Payment{UserID: client.ID, Amount: 100, Currency: "usd"}
	_, err := f.repos.Payments.Create(f.ctx, p)
	require.NoError(t, err)

	_, err = svc.Get(f.ctx, f.actor(t, tr), p.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = svc.List(f.ctx, f.actor(t, tr), url.Values{"userId": {client.ID.Hex()}})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	got, err := svc.Get(f.ctx, f.actor(t, client), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Amount)
}

func TestRefund(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "usd", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	admin := f.user(t, "Root", domain.RoleAdmin)
	p := &domain.Payment{UserID: client.ID, Amount: 4500, Currency: "usd", ExternalID: "cs_1"}
	_, err := f.repos.Payments.Create(f.ctx, p)
	require.NoError(t, err)

	_, err = svc.Refund(f.ctx, f.actor(t, admin), p.ID, 0, "")
	assert.ErrorIs(t, err, ErrNotRefundable)

	_, err = f.repos.Payments.Resolve(f.ctx, p.ID, domain.PaymentCompleted, &domain.Receipt{PaymentIntentID: "pi_9", AmountPaid: 4500}, "", time.Now())
	require.NoError(t, err)

	_, err = svc.Refund(f.ctx, f.actor(t, client), p.ID, 1000, "")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	refunded, err := svc.Refund(f.ctx, f.actor(t, admin), p.ID, 1000, "requested_by_customer")
	require.NoError(t, err)
	require.Len(t, refunded.Refunds, 1)
	assert.Equal(t, int64(1000), refunded.RefundedAmount())
	assert.Equal(t, processor.RefundRequest{PaymentIntentID: "pi_9", Amount: 1000, Reason: "requested_by_customer"}, f.proc.Refunds[0])

	_, err = svc.Refund(f.ctx, f.actor(t, admin), p.ID, 5000, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	refunded, err = svc.Refund(f.ctx, f.actor(t, admin), p.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4500), refunded.RefundedAmount())
}

func TestRefund_AmountErrors(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.repos, f.proc, "usd", f.log)
	client := f.user(t, "Cleo", domain.RoleUser)
	admin := f.user(t, "Root", domain.RoleAdmin)
	p := &domain.Payment{UserID: client.ID, Amount: 4500, Currency: "usd", ExternalID: "pi_9"}
	_, err := f.repos.Payments.Create(f.ctx, p)
	require.NoError(t, err)
	_, err = f.repos.Payments.Resolve(f.ctx, p.ID, domain.PaymentCompleted, nil, "", time.Now())
	require.NoError(t, err)

	_, err = svc.Refund(f.ctx, f.actor(t, admin), p.ID, -100, "")
	assert.ErrorIs(t, err, ErrRefundAmount)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, ErrRefundTooLarge)

	_, err = svc.Refund(f.ctx, f.actor(t, admin), p.ID, 4501, "")
	assert.ErrorIs(t, err, ErrRefundTooLarge)
	assert.Empty(t, f.proc.Refunds)
}
