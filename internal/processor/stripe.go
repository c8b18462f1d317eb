package processor

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/fitness-hub/internal/config"
	"alcyxob/fitness-hub/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// stripeProcessor implements Processor on the Stripe API.
type stripeProcessor struct {
	api        *client.API
	successURL string
	cancelURL  string
}

// NewStripeProcessor creates a Processor backed by Stripe.
func NewStripeProcessor(cfg config.StripeConfig) (Processor, error) {
	return newStripeProcessor(cfg, nil)
}

// newStripeProcessor uses backends instead of the default Stripe endpoints when non-nil.
func newStripeProcessor(cfg config.StripeConfig, backends *stripe.Backends) (*stripeProcessor, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	return &stripeProcessor{
		api:        client.New(cfg.SecretKey, backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}, nil
}

// wrap turns a Stripe error into an ExternalServiceError.
func wrap(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return fmt.Errorf("%w: %s: %s", domain.ErrExternalService, op, serr.Msg)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrExternalService, op, err)
}

func (s *stripeProcessor) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)

	cust, err := s.api.Customers.New(params)
	if err != nil {
		return "", wrap("create customer", err)
	}
	return cust.ID, nil
}

// CreateSetupIntent returns the client secret used to collect a card off-session.
func (s *stripeProcessor) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Usage:              stripe.String("off_session"),
	}
	params.Context = ctx

	si, err := s.api.SetupIntents.New(params)
	if err != nil {
		return "", wrap("create setup intent", err)
	}
	return si.ClientSecret, nil
}

func (s *stripeProcessor) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String("card"),
	}
	params.Context = ctx

	methods := []PaymentMethod{}
	iter := s.api.PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, toPaymentMethod(iter.PaymentMethod()))
	}
	if err := iter.Err(); err != nil {
		return nil, wrap("list payment methods", err)
	}
	return methods, nil
}

func (s *stripeProcessor) AttachPaymentMethod(ctx context.Context, methodID, customerID string) (*PaymentMethod, error) {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	pm, err := s.api.PaymentMethods.Attach(methodID, params)
	if err != nil {
		return nil, wrap("attach payment method", err)
	}
	method := toPaymentMethod(pm)
	return &method, nil
}

func (s *stripeProcessor) DetachPaymentMethod(ctx context.Context, methodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx
	if _, err := s.api.PaymentMethods.Detach(methodID, params); err != nil {
		return wrap("detach payment method", err)
	}
	return nil
}

func (s *stripeProcessor) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.Reference),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(req.Currency),
					UnitAmount:  stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(req.Description)},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(req.Description),
			Metadata:    req.Metadata,
		},
		Metadata: req.Metadata,
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrap("create checkout session", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePlan creates a product and its recurring price.
func (s *stripeProcessor) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	productParams := &stripe.ProductParams{
		Name:        stripe.String(req.Name),
		Description: stripe.String(req.Description),
	}
	productParams.Context = ctx
	product, err := s.api.Products.New(productParams)
	if err != nil {
		return nil, wrap("create product", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		Currency:   stripe.String(req.Currency),
		UnitAmount: stripe.Int64(req.Amount),
		Nickname:   stripe.String(req.Name),
		Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String(req.Interval)},
	}
	priceParams.Context = ctx
	price, err := s.api.Prices.New(priceParams)
	if err != nil {
		return nil, wrap("create price", err)
	}
	return &Plan{ProductID: product.ID, PriceID: price.ID}, nil
}

// CreateSubscription starts an incomplete subscription whose first invoice
// is paid by confirming the returned client secret.
func (s *stripeProcessor) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error) {
	params := &stripe.SubscriptionParams{
		Customer:        stripe.String(req.CustomerID),
		Items:           []*stripe.SubscriptionItemsParams{{Price: stripe.String(req.PriceID)}},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String(string(stripe.SubscriptionPaymentSettingsSaveDefaultPaymentMethodOnSubscription)),
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := s.api.Subscriptions.New(params)
	if err != nil {
		return nil, wrap("create subscription", err)
	}
	result := &SubscriptionResult{ID: sub.ID, Status: string(sub.Status)}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		result.PaymentIntentID = sub.LatestInvoice.PaymentIntent.ID
		result.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	if sub.LatestInvoice != nil {
		result.Amount = sub.LatestInvoice.AmountDue
		result.Currency = string(sub.LatestInvoice.Currency)
	}
	return result, nil
}

func (s *stripeProcessor) CancelSubscriptionAtPeriodEnd(ctx context.Context, externalID string) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	if _, err := s.api.Subscriptions.Update(externalID, params); err != nil {
		return wrap("cancel subscription", err)
	}
	return nil
}

func (s *stripeProcessor) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	params := &stripe.RefundParams{}
	switch {
	case req.ChargeID != "":
		params.Charge = stripe.String(req.ChargeID)
	case req.PaymentIntentID != "":
		params.PaymentIntent = stripe.String(req.PaymentIntentID)
	default:
		return nil, domain.Validationf("refund needs a charge or payment intent")
	}
	if req.Amount > 0 {
		params.Amount = stripe.Int64(req.Amount)
	}
	// Stripe only accepts its own reason codes; anything else travels as metadata.
	switch reason := stripe.RefundReason(req.Reason); reason {
	case "":
	case stripe.RefundReasonDuplicate, stripe.RefundReasonFraudulent, stripe.RefundReasonRequestedByCustomer:
		params.Reason = stripe.String(string(reason))
	default:
		params.AddMetadata("reason", req.Reason)
	}
	params.Context = ctx

	ref, err := s.api.Refunds.New(params)
	if err != nil {
		return nil, wrap("create refund", err)
	}
	return &RefundResult{ID: ref.ID, Amount: ref.Amount, Status: string(ref.Status)}, nil
}

func toPaymentMethod(pm *stripe.PaymentMethod) PaymentMethod {
	method := PaymentMethod{ID: pm.ID, Type: string(pm.Type)}
	if pm.Card != nil {
		method.Brand = string(pm.Card.Brand)
		method.Last4 = pm.Card.Last4
		method.ExpMonth = pm.Card.ExpMonth
		method.ExpYear = pm.Card.ExpYear
	}
	return method
}
