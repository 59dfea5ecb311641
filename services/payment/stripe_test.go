package payment

import (
	"errors"
	"testing"
	"time"

	"tourbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func event(kind, session string) string {
	return `{"id":"evt_1","object":"event","api_version":"2023-10-16","type":"` + kind +
		`","data":{"object":` + session + `}}`
}

func TestParseWebhookCompleted(t *testing.T) {
	payload := event("checkout.session.completed", `{"id":"cs_1","object":"checkout.session",
		"payment_status":"paid","client_reference_id":"tour-ref","amount_total":49700,
		"metadata":{"tourId":"5c88fa8cf4afda39709c2955","userId":"5c8a1d5b0190b214360dc057","tourPrice":"497"}}`)

	ev, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, ev.State)
	assert.Equal(t, "cs_1", ev.SessionID)
	assert.Equal(t, "evt_1", ev.EventID)
	assert.Equal(t, "5c88fa8cf4afda39709c2955", ev.TourID)
	assert.Equal(t, "5c8a1d5b0190b214360dc057", ev.UserID)
	assert.Equal(t, 497.0, ev.Price)
}

func TestParseWebhookFallbacks(t *testing.T) {
	payload := event("checkout.session.completed", `{"id":"cs_2","object":"checkout.session",
		"payment_status":"paid","client_reference_id":"5c88fa8cf4afda39709c2955","amount_total":39750,
		"metadata":{"userId":"5c8a1d5b0190b214360dc057"}}`)

	ev, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "5c88fa8cf4afda39709c2955", ev.TourID)
	assert.Equal(t, 397.5, ev.Price)
}

func TestParseWebhookUnpaidCompletionIsPending(t *testing.T) {
	payload := event("checkout.session.completed", `{"id":"cs_3","object":"checkout.session","payment_status":"unpaid"}`)

	ev, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutPending, ev.State)
}

func TestParseWebhookStates(t *testing.T) {
	tests := map[string]models.CheckoutState{
		"checkout.session.async_payment_succeeded": models.CheckoutConfirmed,
		"checkout.session.async_payment_failed":    models.CheckoutAbandoned,
		"checkout.session.expired":                 models.CheckoutAbandoned,
		"customer.created":                         "",
	}
	for kind, want := range tests {
		t.Run(kind, func(t *testing.T) {
			payload := event(kind, `{"id":"cs_4","object":"checkout.session","payment_status":"paid"}`)
			ev, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
			require.NoError(t, err)
			assert.Equal(t, want, ev.State)
			assert.Equal(t, kind, ev.Type)
		})
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	payload := event("checkout.session.completed", `{"id":"cs_5","object":"checkout.session"}`)

	_, err := parseWebhook([]byte(payload), "t=1,v1=deadbeef", testSecret)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, err = parseWebhook([]byte(payload), "", testSecret)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	header := sign(t, payload)
	_, err = parseWebhook([]byte(payload+" "), header, testSecret)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestParseWebhookVerifiedButUndecodable(t *testing.T) {
	payload := event("checkout.session.completed", `{"id":"cs_6","object":"checkout.session","amount_total":"abc"}`)

	_, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSignature))
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(49700), toCents(497))
	assert.Equal(t, int64(1999), toCents(19.99))
}
