package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor"
	"alcyxob/fitness-hub/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAlreadyPaid     = fmt.Errorf("%w: appointment is already paid", domain.ErrConflict)
	ErrNotRefundable   = fmt.Errorf("%w: only completed payments can be refunded", domain.ErrConflict)
	ErrRefundTooLarge  = domain.Validationf("refund exceeds the remaining amount")
	ErrRefundAmount    = domain.Validationf("refund amount must be positive")
	ErrMethodNotOnFile = fmt.Errorf("%w: payment method not found", domain.ErrNotFound)
)

// CheckoutInput selects what is paid for: an appointment (priced by the
// appointment) or a trainer service (priced by Amount).
type CheckoutInput struct {
	AppointmentID primitive.ObjectID
	ServiceID     primitive.ObjectID
	Amount        int64
	Description   string
}

// Checkout is the pending payment together with the hosted checkout link.
type Checkout struct {
	Payment     *domain.Payment `json:"payment"`
	CheckoutURL string          `json:"checkoutUrl"`
	SessionID   string          `json:"sessionId"`
}

type PaymentService interface {
	List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Payment, error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Payment, error)
	EnsureCustomer(ctx context.Context, actor *authz.Actor) (string, error)
	CreateSetupIntent(ctx context.Context, actor *authz.Actor) (string, error)
	ListMethods(ctx context.Context, actor *authz.Actor) ([]processor.PaymentMethod, error)
	AttachMethod(ctx context.Context, actor *authz.Actor, methodID string) (*processor.PaymentMethod, error)
	DetachMethod(ctx context.Context, actor *authz.Actor, methodID string) error
	Checkout(ctx context.Context, actor *authz.Actor, in CheckoutInput) (*Checkout, error)
	Refund(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, amount int64, reason string) (*domain.Payment, error)
}

type paymentService struct {
	payments     repository.PaymentRepository
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	processor    processor.Processor
	currency     string
	log          logrus.FieldLogger
}

func NewPaymentService(repos *repository.Repositories, proc processor.Processor, currency string, log logrus.FieldLogger) PaymentService {
	return &paymentService{
		payments:     repos.Payments,
		appointments: repos.Appointments,
		users:        repos.Users,
		processor:    proc,
		currency:     strings.ToLower(currency),
		log:          log.WithField("component", "payments"),
	}
}

func paymentResource(p *domain.Payment) authz.Resource {
	return authz.Resource{Kind: authz.KindPayment, OwnerID: p.UserID}
}

func (s *paymentService) List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Payment, error) {
	q, err := scopedList(actor, authz.KindPayment, params, paymentListOptions)
	if err != nil {
		return nil, err
	}
	return s.payments.List(ctx, q)
}

func (s *paymentService) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, paymentResource(p), authz.Read); err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureCustomer returns the caller's processor customer, creating it on first use.
func (s *paymentService) EnsureCustomer(ctx context.Context, actor *authz.Actor) (string, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return "", err
	}
	return ensureCustomer(ctx, s.users, s.processor, user)
}

func ensureCustomer(ctx context.Context, users repository.UserRepository, proc processor.Processor, user *domain.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	customerID, err := proc.CreateCustomer(ctx, user.Email, user.Name, user.ID.Hex())
	if err != nil {
		return "", err
	}
	if err := users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", err
	}
	user.StripeCustomerID = customerID
	return customerID, nil
}

func (s *paymentService) CreateSetupIntent(ctx context.Context, actor *authz.Actor) (string, error) {
	customerID, err := s.EnsureCustomer(ctx, actor)
	if err != nil {
		return "", err
	}
	return s.processor.CreateSetupIntent(ctx, customerID)
}

func (s *paymentService) ListMethods(ctx context.Context, actor *authz.Actor) ([]processor.PaymentMethod, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return []processor.PaymentMethod{}, nil
	}
	return s.processor.ListPaymentMethods(ctx, user.StripeCustomerID)
}

func (s *paymentService) AttachMethod(ctx context.Context, actor *authz.Actor, methodID string) (*processor.PaymentMethod, error) {
	if methodID == "" {
		return nil, domain.Validationf("payment method id is required")
	}
	customerID, err := s.EnsureCustomer(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.processor.AttachPaymentMethod(ctx, methodID, customerID)
}

// DetachMethod removes a saved method. Only the caller's own methods can be detached.
func (s *paymentService) DetachMethod(ctx context.Context, actor *authz.Actor, methodID string) error {
	methods, err := s.ListMethods(ctx, actor)
	if err != nil {
		return err
	}
	for _, m := range methods {
		if m.ID == methodID {
			return s.processor.DetachPaymentMethod(ctx, methodID)
		}
	}
	return ErrMethodNotOnFile
}

// Checkout records a pending payment and opens a hosted checkout for it.
// The payment is settled later by the processor's webhook.
func (s *paymentService) Checkout(ctx context.Context, actor *authz.Actor, in CheckoutInput) (*Checkout, error) {
	payment := &domain.Payment{
		UserID:      actor.ID,
		Currency:    s.currency,
		Description: strings.TrimSpace(in.Description),
	}

	switch {
	case !in.AppointmentID.IsZero():
		appt, err := s.appointments.GetByID(ctx, in.AppointmentID)
		if err != nil {
			return nil, err
		}
		if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindPayment, OwnerID: appt.UserID}, authz.Write); err != nil {
			return nil, err
		}
		if appt.Status == domain.AppointmentCanceled || appt.Status == domain.AppointmentCompleted {
			return nil, ErrAppointmentClosed
		}
		paid, err := s.payments.HasCompletedForTarget(ctx, domain.AppointmentRef{ID: appt.ID})
		if err != nil {
			return nil, err
		}
		if paid {
			return nil, ErrAlreadyPaid
		}
		if appt.Price <= 0 {
			return nil, domain.Validationf("appointment has no price")
		}
		payment.UserID = appt.UserID
		payment.Amount = appt.Price
		payment.Target = domain.AppointmentRef{ID: appt.ID}
		if payment.Description == "" {
			payment.Description = fmt.Sprintf("Training session on %s", appt.Date.Format(time.DateOnly))
		}
	case !in.ServiceID.IsZero():
		if in.Amount <= 0 {
			return nil, domain.Validationf("amount must be positive")
		}
		payment.Amount = in.Amount
		payment.Target = domain.ServiceRef{ID: in.ServiceID}
	default:
		return nil, domain.Validationf("appointmentId or serviceId is required")
	}
	if payment.Description == "" {
		payment.Description = "Trainer service"
	}

	payer, err := s.users.GetByID(ctx, payment.UserID)
	if err != nil {
		return nil, err
	}
	customerID, err := ensureCustomer(ctx, s.users, s.processor, payer)
	if err != nil {
		return nil, err
	}
	if _, err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	session, err := s.processor.CreateCheckoutSession(ctx, processor.CheckoutRequest{
		CustomerID:  customerID,
		Description: payment.Description,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Reference:   payment.ID.Hex(),
		Metadata: map[string]string{
			"paymentId":  payment.ID.Hex(),
			"targetKind": domain.TargetKind(payment.Target),
			"targetId":   payment.Target.TargetID().Hex(),
		},
	})
	if err != nil {
		s.abandon(ctx, payment, err)
		return nil, err
	}
	if err := s.payments.SetExternalID(ctx, payment.ID, session.ID); err != nil {
		return nil, err
	}
	payment.ExternalID = session.ID

	s.log.WithFields(logrus.Fields{
		"payment_id":  payment.ID.Hex(),
		"external_id": session.ID,
		"amount":      payment.Amount,
	}).Info("checkout started")
	return &Checkout{Payment: payment, CheckoutURL: session.URL, SessionID: session.ID}, nil
}

// abandon fails a payment whose processor side was never created.
func (s *paymentService) abandon(ctx context.Context, payment *domain.Payment, cause error) {
	if _, err := s.payments.Resolve(ctx, payment.ID, domain.PaymentFailed, nil, cause.Error(), time.Now().UTC()); err != nil {
		s.log.WithError(err).WithField("payment_id", payment.ID.Hex()).Error("pending payment left behind")
	}
}

// Refund returns money on a completed payment. Admin only; amount zero
// refunds what is left.
func (s *paymentService) Refund(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, amount int64, reason string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentCompleted {
		return nil, ErrNotRefundable
	}
	if amount < 0 {
		return nil, ErrRefundAmount
	}
	remaining := payment.Amount - payment.RefundedAmount()
	if amount == 0 {
		amount = remaining
	}
	if amount <= 0 || amount > remaining {
		return nil, ErrRefundTooLarge
	}

	req := processor.RefundRequest{Amount: amount, Reason: reason}
	if payment.Receipt != nil {
		req.ChargeID = payment.Receipt.ChargeID
		req.PaymentIntentID = payment.Receipt.PaymentIntentID
	}
	if req.ChargeID == "" && req.PaymentIntentID == "" && strings.HasPrefix(payment.ExternalID, "pi_") {
		req.PaymentIntentID = payment.ExternalID
	}
	result, err := s.processor.Refund(ctx, req)
	if err != nil {
		return nil, err
	}

	refund := domain.Refund{ExternalID: result.ID, Amount: result.Amount, Reason: reason, CreatedAt: time.Now().UTC()}
	if refund.Amount == 0 {
		refund.Amount = amount
	}
	if err := s.payments.AddRefund(ctx, payment.ID, refund); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"payment_id": payment.ID.Hex(), "refund_id": result.ID, "amount": refund.Amount}).Info("payment refunded")
	return s.payments.GetByID(ctx, payment.ID)
}
