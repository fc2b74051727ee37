package services

import (
	"context"
	"fmt"

	"coursepay-api/internal/metrics"
	"coursepay-api/internal/models"
	"coursepay-api/pkg/logging"

	"go.uber.org/zap"
)

// Expansions requested by the compensating read.
var compensatingExpand = []string{"latest_invoice", "schedule"}

// PeriodSource tells where the billing period used for an upsert came from.
type PeriodSource string

const (
	PeriodFromEvent    PeriodSource = "event"
	PeriodFromProvider PeriodSource = "provider"
)

// SubscriptionUpserter keeps one row per Stripe subscription in step with
// customer.subscription.created/updated events.
type SubscriptionUpserter struct {
	store       Store
	fetcher     SubscriptionFetcher
	invalidator EntitlementInvalidator
	log         *zap.Logger
}

// NewSubscriptionUpserter creates an upserter. invalidator may be nil.
func NewSubscriptionUpserter(store Store, fetcher SubscriptionFetcher, invalidator EntitlementInvalidator, log *zap.Logger) *SubscriptionUpserter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionUpserter{
		store:       store,
		fetcher:     fetcher,
		invalidator: invalidator,
		log:         log,
	}
}

// Upsert writes the subscription when it is active and has an invoice.
// Every failure after that gate is logged and returned so the delivery is
// retried by Stripe.
func (u *SubscriptionUpserter) Upsert(ctx context.Context, sub *models.SubscriptionPayload, eventType string) (Outcome, error) {
	log := logging.FromContext(ctx, u.log).With(
		zap.String("subscription_id", sub.ID),
		zap.String("status", sub.Status),
		zap.String("customer_id", sub.Customer.ID),
		zap.String("event_type", eventType),
		zap.Any("period", sub.RawPeriod()),
	)

	if sub.Status != models.SubscriptionStatusActive || sub.LatestInvoice.IsZero() {
		log.Info("Skipping subscription",
			zap.Bool("has_invoice", !sub.LatestInvoice.IsZero()),
		)
		return OutcomeIgnored, nil
	}

	customerID := sub.Customer.ID
	if customerID == "" {
		err := &ReferentialError{Entity: "user", Field: "customer"}
		log.Error("Missing customer in subscription", zap.Error(err))
		return OutcomeFailed, err
	}

	user, err := u.store.FindUserByExternalCustomerID(ctx, customerID)
	if err != nil {
		log.Error("Failed to look up user", zap.Error(err))
		return OutcomeFailed, &PersistenceError{Op: "find user by customer", Err: err}
	}
	if user == nil {
		err := &ReferentialError{Entity: "user", Field: "customer", Value: customerID}
		log.Error("User not found for stripe customer", zap.Error(err))
		return OutcomeFailed, err
	}
	log = log.With(zap.Uint("user_id", user.ID))

	period, source, snapshot, err := u.resolvePeriod(ctx, sub, log)
	if err != nil {
		log.Error("Missing period dates in subscription", zap.Error(err))
		return OutcomeFailed, err
	}

	planType := sub.RecurringInterval()
	if planType == "" && snapshot != nil {
		planType = snapshot.RecurringInterval()
	}
	if planType != models.PlanTypeMonth && planType != models.PlanTypeYear {
		err := &DataIntegrityError{
			ObjectID: sub.ID,
			Field:    "items.data[0].price.recurring.interval",
			Detail:   fmt.Sprintf("expected month or year, got %q", planType),
		}
		log.Error("Invalid or missing plan type in subscription", zap.Int("items", len(sub.Items.Data)), zap.Error(err))
		return OutcomeFailed, err
	}

	params := models.SubscriptionParams{
		UserID:               user.ID,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		PlanType:             planType,
		CurrentPeriodStart:   period.Start * 1000,
		CurrentPeriodEnd:     period.End * 1000,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}

	result, err := u.store.UpsertSubscription(ctx, params)
	if err != nil {
		log.Error("Error saving subscription",
			zap.Int64("current_period_start_ms", params.CurrentPeriodStart),
			zap.Int64("current_period_end_ms", params.CurrentPeriodEnd),
			zap.Error(err),
		)
		return OutcomeFailed, &PersistenceError{Op: "upsert subscription", Err: err}
	}

	if u.invalidator != nil {
		if err := u.invalidator.InvalidateUser(ctx, user.ID); err != nil {
			log.Warn("Failed to invalidate access cache", zap.Error(err))
		}
	}

	log.Info("Successfully processed subscription",
		zap.String("plan_type", planType),
		zap.String("period_source", string(source)),
		zap.Int64("current_period_start_ms", params.CurrentPeriodStart),
		zap.Int64("current_period_end_ms", params.CurrentPeriodEnd),
		zap.Uint("record_id", result.ID),
		zap.Bool("created", result.Created),
	)
	return OutcomeUpserted, nil
}

// resolvePeriod reads the billing period from the event and, only when it
// is missing there, from a single retrieve call against Stripe. The
// retrieved snapshot is returned so callers can reuse it.
func (u *SubscriptionUpserter) resolvePeriod(ctx context.Context, sub *models.SubscriptionPayload, log *zap.Logger) (models.BillingPeriod, PeriodSource, *models.SubscriptionPayload, error) {
	if period, ok := sub.BillingPeriod(); ok {
		return period, PeriodFromEvent, nil, nil
	}

	if u.fetcher == nil {
		return models.BillingPeriod{}, "", nil, &DataIntegrityError{
			ObjectID: sub.ID,
			Field:    "current_period_start/current_period_end",
			Detail:   "missing from event and no provider client configured",
		}
	}

	log.Info("Period dates missing in webhook payload, fetching subscription from Stripe")

	snapshot, err := u.fetcher.RetrieveSubscription(ctx, sub.ID, compensatingExpand)
	if err != nil {
		metrics.ObserveCompensatingRead("error")
		return models.BillingPeriod{}, "", nil, &ProviderError{Op: "retrieve subscription " + sub.ID, Err: err}
	}
	metrics.ObserveCompensatingRead("ok")

	period, ok := snapshot.BillingPeriod()
	log.Info("Fetched subscription from Stripe", zap.Any("period", snapshot.RawPeriod()), zap.Bool("complete", ok))
	if !ok {
		return models.BillingPeriod{}, "", snapshot, &DataIntegrityError{
			ObjectID: sub.ID,
			Field:    "current_period_start/current_period_end",
			Detail:   "missing from event and from retrieved subscription",
		}
	}
	return period, PeriodFromProvider, snapshot, nil
}
