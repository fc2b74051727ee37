package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	body, header := signedEvent(t, testWebhookSecret, "evt_ok", "checkout.session.completed", map[string]string{"id": "cs_1"})

	event, err := NewSignatureVerifier(testWebhookSecret, 0).Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_ok", event.ID)
	assert.Equal(t, stripe.EventTypeCheckoutSessionCompleted, event.Type)
	assert.JSONEq(t, `{"id":"cs_1"}`, string(event.Data.Raw))
}

func TestVerifyFailures(t *testing.T) {
	body, header := signedEvent(t, testWebhookSecret, "evt_1", "checkout.session.completed", map[string]string{"id": "cs_1"})

	stale := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    testWebhookSecret,
		Timestamp: time.Now().Add(-time.Hour),
	})

	tests := []struct {
		name   string
		secret string
		body   []byte
		header string
	}{
		{name: "different body", secret: testWebhookSecret, body: []byte(`{"id":"evt_2"}`), header: header},
		{name: "different secret", secret: "whsec_other", body: body, header: header},
		{name: "no secret configured", secret: "", body: body, header: header},
		{name: "no header", secret: testWebhookSecret, body: body, header: " "},
		{name: "garbage header", secret: testWebhookSecret, body: body, header: "t=abc,v1=zzz"},
		{name: "outside tolerance", secret: testWebhookSecret, body: stale.Payload, header: stale.Header},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSignatureVerifier(tt.secret, 5*time.Minute).Verify(tt.body, tt.header)
			require.Error(t, err)
			assert.True(t, IsSignatureError(err))
		})
	}
}
