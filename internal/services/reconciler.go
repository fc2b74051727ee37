package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursepay-api/internal/metrics"
	"coursepay-api/internal/models"
	"coursepay-api/pkg/logging"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// Reconciler authenticates Stripe deliveries and routes them to the
// purchase and subscription handlers.
type Reconciler struct {
	verifier      *SignatureVerifier
	purchases     *PurchaseRecorder
	subscriptions *SubscriptionUpserter
	ledger        Ledger
	log           *zap.Logger
}

// ReconcilerOptions collects the collaborators of a Reconciler. Ledger is
// optional.
type ReconcilerOptions struct {
	Verifier      *SignatureVerifier
	Purchases     *PurchaseRecorder
	Subscriptions *SubscriptionUpserter
	Ledger        Ledger
	Logger        *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(opts ReconcilerOptions) *Reconciler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		verifier:      opts.Verifier,
		purchases:     opts.Purchases,
		subscriptions: opts.Subscriptions,
		ledger:        opts.Ledger,
		log:           log,
	}
}

// Process verifies body against signatureHeader and dispatches the event.
// A *SignatureError means the event was never dispatched.
func (r *Reconciler) Process(ctx context.Context, body []byte, signatureHeader string) (Outcome, error) {
	event, err := r.verifier.Verify(body, signatureHeader)
	if err != nil {
		logging.FromContext(ctx, r.log).Warn("Webhook signature verification failed", zap.Error(err))
		metrics.ObserveWebhookError(ErrorKind(err))
		return OutcomeFailed, err
	}

	start := time.Now()
	ledgerID := r.recordDelivery(ctx, event)

	outcome, err := r.Dispatch(ctx, event)

	r.markProcessed(ctx, ledgerID, err)
	metrics.ObserveWebhook(string(event.Type), string(outcome), time.Since(start))
	metrics.ObserveWebhookError(ErrorKind(err))
	return outcome, err
}

// Dispatch routes a verified event by type. Unknown types are ignored.
func (r *Reconciler) Dispatch(ctx context.Context, event stripe.Event) (outcome Outcome, err error) {
	log := logging.FromContext(ctx, r.log).With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)

	defer func() {
		if p := recover(); p != nil {
			outcome = OutcomeFailed
			err = fmt.Errorf("panic while handling %s: %v", event.Type, p)
		}
		if err != nil {
			log.Error("Error processing webhook",
				zap.String("error_kind", ErrorKind(err)),
				zap.Error(err),
			)
		}
	}()

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session models.CheckoutSessionPayload
		if err := decodeObject(event, &session); err != nil {
			return OutcomeFailed, err
		}
		return r.purchases.Record(ctx, &session)

	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		var sub models.SubscriptionPayload
		if err := decodeObject(event, &sub); err != nil {
			return OutcomeFailed, err
		}
		return r.subscriptions.Upsert(ctx, &sub, string(event.Type))

	default:
		log.Debug("Ignoring unhandled event type")
		return OutcomeIgnored, nil
	}
}

func decodeObject(event stripe.Event, v interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return &DataIntegrityError{ObjectID: event.ID, Field: "data.object", Detail: "missing"}
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return &DataIntegrityError{ObjectID: event.ID, Field: "data.object", Detail: err.Error()}
	}
	return nil
}

func (r *Reconciler) recordDelivery(ctx context.Context, event stripe.Event) uint {
	if r.ledger == nil {
		return 0
	}
	id, err := r.ledger.RecordWebhookDelivery(ctx, models.ProviderStripe, event.ID, string(event.Type))
	if err != nil {
		logging.FromContext(ctx, r.log).Warn("Failed to record webhook delivery",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return 0
	}
	return id
}

func (r *Reconciler) markProcessed(ctx context.Context, id uint, processingErr error) {
	if r.ledger == nil || id == 0 {
		return
	}
	if err := r.ledger.MarkWebhookProcessed(ctx, id, processingErr); err != nil {
		logging.FromContext(ctx, r.log).Warn("Failed to update webhook delivery", zap.Uint("ledger_id", id), zap.Error(err))
	}
}
