package billing

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/metrics"
	"alcyxob/fitness-hub/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcomes reported per event.
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
)

// Reconciler applies processor events to the local store.
type Reconciler struct {
	payments      repository.PaymentRepository
	subscriptions repository.SubscriptionRepository
	appointments  repository.AppointmentRepository
	users         repository.UserRepository
	log           logrus.FieldLogger
}

// NewReconciler creates a Reconciler over the given repositories.
func NewReconciler(repos *repository.Repositories, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		payments:      repos.Payments,
		subscriptions: repos.Subscriptions,
		appointments:  repos.Appointments,
		users:         repos.Users,
		log:           log,
	}
}

// ApplyEvent reconciles one event and returns its outcome. Events whose
// record is unknown are ignored; events that lost a race against a terminal
// state are stale. Neither is an error.
func (r *Reconciler) ApplyEvent(ctx context.Context, ev Event) (string, error) {
	entry := r.log.WithField("event", ev.Kind()).WithField("external_id", ev.CorrelationID())

	var (
		outcome string
		err     error
	)
	switch e := ev.(type) {
	case PaymentSucceeded:
		outcome, err = r.paymentSucceeded(ctx, entry, e)
	case PaymentFailed:
		outcome, err = r.paymentFailed(ctx, entry, e)
	case SubscriptionChanged:
		outcome, err = r.subscriptionChanged(ctx, entry, e)
	case SubscriptionDeleted:
		outcome, err = r.subscriptionDeleted(ctx, entry, e)
	default:
		err = fmt.Errorf("unsupported billing event %T", ev)
	}
	if err != nil {
		outcome = OutcomeError
		entry.WithError(err).Error("billing event failed")
	} else {
		entry.WithField("outcome", outcome).Info("billing event reconciled")
	}
	metrics.RecordBillingEvent(ev.Kind(), outcome)
	return outcome, err
}

func (r *Reconciler) paymentSucceeded(ctx context.Context, log logrus.FieldLogger, e PaymentSucceeded) (string, error) {
	payment, err := r.payments.GetByExternalID(ctx, e.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("no payment for processor event")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}

	applied, err := r.payments.Resolve(ctx, payment.ID, domain.PaymentCompleted, e.Receipt, "", e.OccurredAt)
	if err != nil {
		return "", err
	}
	if !applied {
		log.WithField("payment_id", payment.ID.Hex()).Warn("payment already resolved as failed")
		return OutcomeStale, nil
	}

	switch target := payment.Target.(type) {
	case domain.AppointmentRef:
		ok, err := r.appointments.SetStatus(ctx, target.ID, domain.AppointmentConfirmed,
			domain.AppointmentPending, domain.AppointmentPaymentFailed, domain.AppointmentConfirmed)
		if err != nil {
			return "", err
		}
		if !ok {
			log.WithField("appointment_id", target.ID.Hex()).Warn("paid appointment missing or no longer open")
		}
	case domain.SubscriptionRef:
		if err := r.subscriptionPaid(ctx, log, target.ID, payment, e); err != nil {
			return "", err
		}
	}
	return OutcomeApplied, nil
}

// subscriptionPaid activates the subscription a payment was for and records
// the charge in its history.
func (r *Reconciler) subscriptionPaid(ctx context.Context, log logrus.FieldLogger, subID primitive.ObjectID, payment *domain.Payment, e PaymentSucceeded) error {
	sub, err := r.subscriptions.GetByID(ctx, subID)
	if errors.Is(err, repository.ErrNotFound) {
		log.WithField("subscription_id", subID.Hex()).Warn("paid subscription not found")
		return nil
	}
	if err != nil {
		return err
	}

	state := currentState(sub)
	state.Status = domain.SubscriptionActive
	applied, err := r.subscriptions.ApplyState(ctx, sub.ID, state)
	if err != nil {
		return err
	}

	amount, currency := payment.Amount, payment.Currency
	if e.Receipt != nil && e.Receipt.AmountPaid > 0 {
		amount = e.Receipt.AmountPaid
	}
	if e.Receipt != nil && e.Receipt.Currency != "" {
		currency = e.Receipt.Currency
	}
	err = r.subscriptions.AddPayment(ctx, sub.ID, domain.PaymentHistoryEntry{
		PaymentID: payment.ID,
		Amount:    amount,
		Currency:  currency,
		PaidAt:    e.OccurredAt,
	})
	if err != nil {
		return err
	}

	if !applied {
		log.WithField("subscription_id", sub.ID.Hex()).Warn("payment for canceled subscription recorded without reactivation")
		return nil
	}
	return r.propagate(ctx, sub, domain.SubscriptionActive)
}

func (r *Reconciler) paymentFailed(ctx context.Context, log logrus.FieldLogger, e PaymentFailed) (string, error) {
	payment, err := r.payments.GetByExternalID(ctx, e.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("no payment for processor event")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}

	applied, err := r.payments.Resolve(ctx, payment.ID, domain.PaymentFailed, nil, e.Reason, e.OccurredAt)
	if err != nil {
		return "", err
	}
	if !applied {
		log.WithField("payment_id", payment.ID.Hex()).Warn("payment already resolved as completed")
		return OutcomeStale, nil
	}

	switch target := payment.Target.(type) {
	case domain.AppointmentRef:
		ok, err := r.appointments.SetStatus(ctx, target.ID, domain.AppointmentPaymentFailed,
			domain.AppointmentPending, domain.AppointmentPaymentFailed)
		if err != nil {
			return "", err
		}
		if !ok {
			log.WithField("appointment_id", target.ID.Hex()).Warn("appointment missing or no longer awaiting payment")
		}
	case domain.SubscriptionRef:
		sub, err := r.subscriptions.GetByID(ctx, target.ID)
		if errors.Is(err, repository.ErrNotFound) {
			log.WithField("subscription_id", target.ID.Hex()).Warn("subscription for failed payment not found")
			return OutcomeApplied, nil
		}
		if err != nil {
			return "", err
		}
		state := currentState(sub)
		state.Status = domain.SubscriptionPastDue
		if _, err := r.subscriptions.ApplyState(ctx, sub.ID, state); err != nil {
			return "", err
		}
	}
	return OutcomeApplied, nil
}

func (r *Reconciler) subscriptionChanged(ctx context.Context, log logrus.FieldLogger, e SubscriptionChanged) (string, error) {
	sub, err := r.subscriptions.GetByExternalID(ctx, e.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("no subscription for processor event")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}

	status := MapStatus(e.Status)
	state := domain.SubscriptionState{
		Status:             status,
		PriceID:            e.PriceID,
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		AutoRenew:          status != domain.SubscriptionCanceled && !e.CancelAtPeriodEnd,
		CanceledAt:         e.CanceledAt,
	}
	if status == domain.SubscriptionCanceled && state.CanceledAt == nil {
		at := e.OccurredAt
		state.CanceledAt = &at
	}

	applied, err := r.subscriptions.ApplyState(ctx, sub.ID, state)
	if err != nil {
		return "", err
	}
	if !applied {
		log.WithField("status", status).Warn("ignoring update for canceled subscription")
		return OutcomeStale, nil
	}

	if status == domain.SubscriptionActive || status == domain.SubscriptionCanceled {
		if err := r.propagate(ctx, sub, status); err != nil {
			return "", err
		}
	}
	return OutcomeApplied, nil
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, log logrus.FieldLogger, e SubscriptionDeleted) (string, error) {
	sub, err := r.subscriptions.GetByExternalID(ctx, e.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("no subscription for processor event")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}

	canceledAt := e.CanceledAt
	if canceledAt.IsZero() {
		canceledAt = e.OccurredAt
	}
	state := currentState(sub)
	state.Status = domain.SubscriptionCanceled
	state.AutoRenew = false
	state.CanceledAt = &canceledAt

	if _, err := r.subscriptions.ApplyState(ctx, sub.ID, state); err != nil {
		return "", err
	}
	if err := r.propagate(ctx, sub, domain.SubscriptionCanceled); err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

// propagate mirrors a subscription's status and plan onto its owner.
func (r *Reconciler) propagate(ctx context.Context, sub *domain.Subscription, status domain.SubscriptionStatus) error {
	err := r.users.SetSubscription(ctx, sub.UserID, status, sub.Plan)
	if errors.Is(err, repository.ErrNotFound) {
		r.log.WithField("user_id", sub.UserID.Hex()).Warn("subscription owner no longer exists")
		return nil
	}
	return err
}

func currentState(sub *domain.Subscription) domain.SubscriptionState {
	return domain.SubscriptionState{
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		AutoRenew:          sub.AutoRenew,
		CanceledAt:         sub.CanceledAt,
	}
}
