package memory

import (
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentRepository struct {
	payments *table[domain.Payment]
}

// NewPaymentRepository returns an empty in-memory repository.PaymentRepository.
func NewPaymentRepository() repository.PaymentRepository {
	return &paymentRepository{payments: newTable(func(p *domain.Payment) primitive.ObjectID { return p.ID })}
}

func uniqueExternalID(existing, row string) error {
	if row != "" && existing == row {
		return fmt.Errorf("%w: external id %s", repository.ErrDuplicate, row)
	}
	return nil
}

func (r *paymentRepository) Create(_ context.Context, payment *domain.Payment) (primitive.ObjectID, error) {
	if payment.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("payment requires userId")
	}
	payment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Date.IsZero() {
		payment.Date = now
	}
	payment.Status = domain.PaymentPending

	err := r.payments.insert(*payment, func(existing, row *domain.Payment) error {
		return uniqueExternalID(existing.ExternalID, row.ExternalID)
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return payment.ID, nil
}

func (r *paymentRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Payment, error) {
	return r.payments.get(id)
}

func (r *paymentRepository) GetByExternalID(_ context.Context, externalID string) (*domain.Payment, error) {
	if externalID == "" {
		return nil, repository.ErrNotFound
	}
	return r.payments.find(func(p *domain.Payment) bool { return p.ExternalID == externalID })
}

func (r *paymentRepository) List(_ context.Context, q query.List) ([]domain.Payment, error) {
	return r.payments.list(q)
}

func (r *paymentRepository) SetExternalID(ctx context.Context, id primitive.ObjectID, externalID string) error {
	if _, err := r.GetByExternalID(ctx, externalID); err == nil {
		return fmt.Errorf("%w: external id %s", repository.ErrDuplicate, externalID)
	}
	return r.payments.update(id, func(p *domain.Payment) {
		p.ExternalID = externalID
		p.UpdatedAt = time.Now().UTC()
	})
}

func (r *paymentRepository) Resolve(_ context.Context, id primitive.ObjectID, status domain.PaymentStatus, receipt *domain.Receipt, failureReason string, at time.Time) (bool, error) {
	if !status.Terminal() {
		return false, domain.Validationf("payment can only resolve to a terminal status, got %q", status)
	}
	return r.payments.apply(id, func(p *domain.Payment) bool {
		if p.Status != domain.PaymentPending && p.Status != status {
			return false
		}
		p.Status = status
		switch status {
		case domain.PaymentCompleted:
			paidAt := at
			p.PaidAt = &paidAt
			if receipt != nil {
				rc := *receipt
				p.Receipt = &rc
			}
		case domain.PaymentFailed:
			p.FailureReason = failureReason
		}
		p.UpdatedAt = time.Now().UTC()
		return true
	}), nil
}

func (r *paymentRepository) HasCompletedForTarget(_ context.Context, target domain.PaymentTarget) (bool, error) {
	if target == nil {
		return false, nil
	}
	n := r.payments.count(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentCompleted && p.Target == target
	})
	return n > 0, nil
}

func (r *paymentRepository) AddRefund(_ context.Context, id primitive.ObjectID, refund domain.Refund) error {
	return r.payments.update(id, func(p *domain.Payment) {
		for _, existing := range p.Refunds {
			if existing.ExternalID == refund.ExternalID {
				return
			}
		}
		p.Refunds = append(slices.Clone(p.Refunds), refund)
		p.UpdatedAt = time.Now().UTC()
	})
}

type subscriptionRepository struct {
	subscriptions *table[domain.Subscription]
}

// NewSubscriptionRepository returns an empty in-memory repository.SubscriptionRepository.
func NewSubscriptionRepository() repository.SubscriptionRepository {
	return &subscriptionRepository{subscriptions: newTable(func(s *domain.Subscription) primitive.ObjectID { return s.ID })}
}

func (r *subscriptionRepository) Create(_ context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.Plan == "" {
		return primitive.NilObjectID, errors.New("subscription requires userId and plan")
	}
	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.Date.IsZero() {
		sub.Date = now
	}
	if sub.Status == "" {
		sub.Status = domain.SubscriptionPending
	}

	err := r.subscriptions.insert(*sub, func(existing, row *domain.Subscription) error {
		return uniqueExternalID(existing.ExternalID, row.ExternalID)
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return sub.ID, nil
}

func (r *subscriptionRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	return r.subscriptions.get(id)
}

func (r *subscriptionRepository) GetByExternalID(_ context.Context, externalID string) (*domain.Subscription, error) {
	if externalID == "" {
		return nil, repository.ErrNotFound
	}
	return r.subscriptions.find(func(s *domain.Subscription) bool { return s.ExternalID == externalID })
}

// GetCurrentByUser returns the most recently created subscription of the user.
func (r *subscriptionRepository) GetCurrentByUser(_ context.Context, userID primitive.ObjectID) (*domain.Subscription, error) {
	subs, err := r.subscriptions.list(query.List{
		Conditions: []query.Condition{{Field: "userId", Op: query.OpEq, Value: userID}},
		Sort:       []query.SortField{{Field: "createdAt", Desc: true}},
		Page:       1,
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &subs[0], nil
}

func (r *subscriptionRepository) SetExternalID(ctx context.Context, id primitive.ObjectID, externalID string) error {
	if _, err := r.GetByExternalID(ctx, externalID); err == nil {
		return fmt.Errorf("%w: external id %s", repository.ErrDuplicate, externalID)
	}
	return r.subscriptions.update(id, func(s *domain.Subscription) {
		s.ExternalID = externalID
		s.UpdatedAt = time.Now().UTC()
	})
}

func (r *subscriptionRepository) ApplyState(_ context.Context, id primitive.ObjectID, state domain.SubscriptionState) (bool, error) {
	return r.subscriptions.apply(id, func(s *domain.Subscription) bool {
		if s.Status == domain.SubscriptionCanceled && state.Status != domain.SubscriptionCanceled {
			return false
		}
		s.Status = state.Status
		if state.PriceID != "" {
			s.PriceID = state.PriceID
		}
		s.CurrentPeriodStart = state.CurrentPeriodStart
		s.CurrentPeriodEnd = state.CurrentPeriodEnd
		s.AutoRenew = state.AutoRenew
		if state.CanceledAt != nil {
			s.CanceledAt = state.CanceledAt
		}
		s.UpdatedAt = time.Now().UTC()
		return true
	}), nil
}

func (r *subscriptionRepository) DisableAutoRenew(_ context.Context, id primitive.ObjectID) error {
	return r.subscriptions.update(id, func(s *domain.Subscription) {
		s.AutoRenew = false
		s.UpdatedAt = time.Now().UTC()
	})
}

func (r *subscriptionRepository) AddPayment(_ context.Context, id primitive.ObjectID, entry domain.PaymentHistoryEntry) error {
	return r.subscriptions.update(id, func(s *domain.Subscription) {
		for _, existing := range s.PaymentHistory {
			if existing.PaymentID == entry.PaymentID {
				return
			}
		}
		s.PaymentHistory = append(slices.Clone(s.PaymentHistory), entry)
		s.UpdatedAt = time.Now().UTC()
	})
}
