package processor

import (
	"fmt"
	"testing"
	"time"

	"alcyxob/fitness-hub/internal/billing"
	"alcyxob/fitness-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test"

const createdAt = 1714557600 // 2024-05-01T10:00:00Z

func signedEvent(t *testing.T, eventType, object string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":"2020-08-27","created":%d,"type":%q,"data":{"object":%s}}`,
		createdAt, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testSecret})
	return signed.Payload, signed.Header
}

func TestParse_RejectsBadSignature(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	payload, _ := signedEvent(t, "payment_intent.succeeded", `{"id":"pi_1"}`)

	_, err := parser.Parse(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = parser.Parse(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, header := signedEvent(t, "payment_intent.succeeded", `{"id":"pi_1"}`)
	_, err = NewWebhookParser("whsec_other").Parse(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParse_PaymentIntentSucceeded(t *testing.T) {
	payload, header := signedEvent(t, "payment_intent.succeeded",
		`{"id":"pi_1","object":"payment_intent","amount":4500,"amount_received":4500,"currency":"usd","receipt_email":"u@example.com","payment_method":"pm_1","latest_charge":{"id":"ch_1","object":"charge","receipt_url":"https://pay.stripe.com/receipts/1"}}`)

	ev, err := NewWebhookParser(testSecret).Parse(payload, header)
	require.NoError(t, err)

	succeeded, ok := ev.(billing.PaymentSucceeded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "pi_1", succeeded.ExternalID)
	assert.Equal(t, time.Unix(createdAt, 0).UTC(), succeeded.OccurredAt)
	require.NotNil(t, succeeded.Receipt)
	assert.Equal(t, domain.Receipt{
		URL:             "https://pay.stripe.com/receipts/1",
		Email:           "u@example.com",
		PaymentIntentID: "pi_1",
		ChargeID:        "ch_1",
		PaymentMethod:   "pm_1",
		AmountPaid:      4500,
		Currency:        "usd",
	}, *succeeded.Receipt)
}

func TestParse_PaymentIntentFailed(t *testing.T) {
	payload, header := signedEvent(t, "payment_intent.payment_failed",
		`{"id":"pi_2","object":"payment_intent","last_payment_error":{"type":"card_error","message":"Your card was declined."}}`)

	ev, err := NewWebhookParser(testSecret).Parse(payload, header)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentFailed{
		ExternalID: "pi_2",
		Reason:     "Your card was declined.",
		OccurredAt: time.Unix(createdAt, 0).UTC(),
	}, ev)
}

func TestParse_CheckoutSession(t *testing.T) {
	parser := NewWebhookParser(testSecret)

	payload, header := signedEvent(t, "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","payment_status":"paid","amount_total":2000,"currency":"usd","payment_intent":"pi_9","customer_details":{"email":"c@example.com"}}`)
	ev, err := parser.Parse(payload, header)
	require.NoError(t, err)
	succeeded, ok := ev.(billing.PaymentSucceeded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "cs_1", succeeded.ExternalID)
	assert.Equal(t, "pi_9", succeeded.Receipt.PaymentIntentID)
	assert.Equal(t, "c@example.com", succeeded.Receipt.Email)
	assert.EqualValues(t, 2000, succeeded.Receipt.AmountPaid)

	payload, header = signedEvent(t, "checkout.session.completed",
		`{"id":"cs_2","object":"checkout.session","payment_status":"unpaid"}`)
	ev, err = parser.Parse(payload, header)
	require.NoError(t, err)
	assert.Nil(t, ev, "unpaid sessions wait for the async event")
}

func TestParse_SubscriptionEvents(t *testing.T) {
	parser := NewWebhookParser(testSecret)
	object := `{"id":"sub_1","object":"subscription","status":"past_due","cancel_at_period_end":true,"current_period_start":1714557600,"current_period_end":1717236000,"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","price":{"id":"price_1","object":"price"}}]}}`

	payload, header := signedEvent(t, "customer.subscription.updated", object)
	ev, err := parser.Parse(payload, header)
	require.NoError(t, err)
	changed, ok := ev.(billing.SubscriptionChanged)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "sub_1", changed.ExternalID)
	assert.False(t, changed.Created)
	assert.Equal(t, "past_due", changed.Status)
	assert.Equal(t, "price_1", changed.PriceID)
	assert.True(t, changed.CancelAtPeriodEnd)
	require.NotNil(t, changed.CurrentPeriodEnd)
	assert.Equal(t, time.Unix(1717236000, 0).UTC(), *changed.CurrentPeriodEnd)
	assert.Nil(t, changed.CanceledAt)

	payload, header = signedEvent(t, "customer.subscription.created", object)
	ev, err = parser.Parse(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "subscription_created", ev.Kind())

	payload, header = signedEvent(t, "customer.subscription.deleted", `{"id":"sub_1","object":"subscription","status":"canceled","canceled_at":1714561200}`)
	ev, err = parser.Parse(payload, header)
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionDeleted{
		ExternalID: "sub_1",
		CanceledAt: time.Unix(1714561200, 0).UTC(),
		OccurredAt: time.Unix(createdAt, 0).UTC(),
	}, ev)
}

func TestParse_UnhandledTypeIsAcknowledged(t *testing.T) {
	payload, header := signedEvent(t, "customer.created", `{"id":"cus_1","object":"customer"}`)
	ev, err := NewWebhookParser(testSecret).Parse(payload, header)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParse_MalformedObject(t *testing.T) {
	payload, header := signedEvent(t, "payment_intent.succeeded", `{"id":42}`)
	_, err := NewWebhookParser(testSecret).Parse(payload, header)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}
