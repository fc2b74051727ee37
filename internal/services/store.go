package services

import (
	"context"

	"coursepay-api/internal/models"
)

// Store is the persistence collaborator. RecordPurchase must be idempotent
// on the Stripe purchase id and UpsertSubscription on the Stripe
// subscription id.
type Store interface {
	FindUserByExternalCustomerID(ctx context.Context, customerID string) (*models.User, error)
	FindUserAccess(ctx context.Context, userID uint, courseID string) (models.Access, error)
	RecordPurchase(ctx context.Context, params models.PurchaseParams) (models.WriteResult, error)
	UpsertSubscription(ctx context.Context, params models.SubscriptionParams) (models.WriteResult, error)
}

// Ledger keeps a diagnostic trail of verified deliveries. It never decides
// whether an event is processed.
type Ledger interface {
	RecordWebhookDelivery(ctx context.Context, provider, eventID, eventType string) (uint, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingErr error) error
}

// EntitlementInvalidator drops cached access answers after a write.
type EntitlementInvalidator interface {
	InvalidateCourse(ctx context.Context, userID uint, courseID string) error
	InvalidateUser(ctx context.Context, userID uint) error
}

// Outcome describes what a handler did with an event.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeRecorded  Outcome = "recorded"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUpserted  Outcome = "upserted"
	OutcomeFailed    Outcome = "failed"
)
