package services

import (
	"context"
	"encoding/json"
	"fmt"

	"coursepay-api/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/subscription"
)

// SubscriptionFetcher reads the current state of a subscription from the
// provider.
type SubscriptionFetcher interface {
	RetrieveSubscription(ctx context.Context, id string, expand []string) (*models.SubscriptionPayload, error)
}

// StripeSubscriptionFetcher retrieves subscriptions through stripe-go and
// decodes the raw response into the same optional-field struct used for
// webhook payloads, so period fields are read identically on both paths.
type StripeSubscriptionFetcher struct {
	client *subscription.Client
}

// NewStripeSubscriptionFetcher creates a fetcher. A nil backend uses the
// default Stripe API backend.
func NewStripeSubscriptionFetcher(secretKey string, backend stripe.Backend) *StripeSubscriptionFetcher {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeSubscriptionFetcher{
		client: &subscription.Client{B: backend, Key: secretKey},
	}
}

// RetrieveSubscription fetches subscription id with the given expansions.
func (f *StripeSubscriptionFetcher) RetrieveSubscription(ctx context.Context, id string, expand []string) (*models.SubscriptionPayload, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	for _, field := range expand {
		params.AddExpand(field)
	}

	sub, err := f.client.Get(id, params)
	if err != nil {
		return nil, err
	}
	if sub.LastResponse == nil || len(sub.LastResponse.RawJSON) == 0 {
		return nil, fmt.Errorf("empty response for subscription %s", id)
	}

	var payload models.SubscriptionPayload
	if err := json.Unmarshal(sub.LastResponse.RawJSON, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode subscription %s: %w", id, err)
	}
	return &payload, nil
}
