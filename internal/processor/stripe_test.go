package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"alcyxob/fitness-hub/internal/config"
	"alcyxob/fitness-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

// newTestProcessor points the Stripe client at a local server.
func newTestProcessor(t *testing.T, handler http.HandlerFunc) *stripeProcessor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	})
	p, err := newStripeProcessor(config.StripeConfig{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://app.example.com/ok",
		CancelURL:  "https://app.example.com/cancel",
	}, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	require.NoError(t, err)
	return p
}

func TestNewStripeProcessor_RequiresKey(t *testing.T) {
	_, err := NewStripeProcessor(config.StripeConfig{})
	assert.Error(t, err)
}

func TestCreateCustomer(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "u@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "abc123", r.PostForm.Get("metadata[userId]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cus_123","object":"customer"}`))
	})

	id, err := p.CreateCustomer(context.Background(), "u@example.com", "U", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
}

func TestCreateSubscription_ReturnsClientSecret(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "default_incomplete", r.PostForm.Get("payment_behavior"))
		assert.Equal(t, "price_1", r.PostForm.Get("items[0][price]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sub_1","object":"subscription","status":"incomplete","latest_invoice":{"id":"in_1","object":"invoice","amount_due":1999,"currency":"usd","payment_intent":{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret"}}}`))
	})

	res, err := p.CreateSubscription(context.Background(), SubscriptionRequest{CustomerID: "cus_1", PriceID: "price_1"})
	require.NoError(t, err)
	assert.Equal(t, &SubscriptionResult{ID: "sub_1", Status: "incomplete", PaymentIntentID: "pi_1", ClientSecret: "pi_1_secret", Amount: 1999, Currency: "usd"}, res)
}

func TestListPaymentMethods(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_methods", r.URL.Path)
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","has_more":false,"data":[{"id":"pm_1","object":"payment_method","type":"card","card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}]}`))
	})

	methods, err := p.ListPaymentMethods(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, []PaymentMethod{{ID: "pm_1", Type: "card", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030}}, methods)
}

func TestErrorsAreExternal(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such charge: 'ch_x'"}}`))
	})

	_, err := p.Refund(context.Background(), RefundRequest{ChargeID: "ch_x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.Contains(t, err.Error(), "No such charge")
}

func TestRefund_NeedsReference(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := p.Refund(context.Background(), RefundRequest{Amount: 100})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRefund_Reason(t *testing.T) {
	tests := []struct {
		name         string
		reason       string
		wantReason   string
		wantMetadata string
	}{
		{name: "stripe code", reason: "requested_by_customer", wantReason: "requested_by_customer"},
		{name: "free text", reason: "client moved away", wantMetadata: "client moved away"},
		{name: "empty", reason: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/refunds", r.URL.Path)
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "pi_1", r.PostForm.Get("payment_intent"))
				assert.Equal(t, tt.wantReason, r.PostForm.Get("reason"))
				assert.Equal(t, tt.wantMetadata, r.PostForm.Get("metadata[reason]"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","amount":500,"status":"succeeded"}`))
			})

			res, err := p.Refund(context.Background(), RefundRequest{PaymentIntentID: "pi_1", Amount: 500, Reason: tt.reason})
			require.NoError(t, err)
			assert.Equal(t, &RefundResult{ID: "re_1", Amount: 500, Status: "succeeded"}, res)
		})
	}
}
