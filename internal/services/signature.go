package services

import (
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureVerifier checks the Stripe-Signature header (HMAC-SHA256 over
// "timestamp.body") against the raw request body.
type SignatureVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewSignatureVerifier creates a verifier. A non-positive tolerance uses
// the Stripe default of five minutes.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &SignatureVerifier{
		secret:    secret,
		tolerance: tolerance,
	}
}

// Verify authenticates body and decodes the event envelope. Any failure is
// a *SignatureError.
func (v *SignatureVerifier) Verify(body []byte, signatureHeader string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, &SignatureError{Err: errors.New("webhook secret is not configured")}
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return stripe.Event{}, &SignatureError{Err: webhook.ErrNotSigned}
	}

	event, err := webhook.ConstructEventWithOptions(body, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance: v.tolerance,
		// Payloads are decoded into local structs, so the pinned
		// library API version does not need to match the endpoint's.
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, &SignatureError{Err: err}
	}
	return event, nil
}
