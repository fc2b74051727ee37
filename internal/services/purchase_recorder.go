package services

import (
	"context"

	"coursepay-api/internal/models"
	"coursepay-api/pkg/logging"

	"go.uber.org/zap"
)

// OrphanedPayment describes a completed checkout whose customer has no
// local account.
type OrphanedPayment struct {
	CheckoutSessionID string
	CustomerID        string
	CourseID          string
	Amount            int64
}

// Alerter notifies operators about payments that need manual follow-up.
type Alerter interface {
	OrphanedPayment(ctx context.Context, payment OrphanedPayment)
}

// PurchaseRecorder turns completed one-time checkouts into purchases.
type PurchaseRecorder struct {
	store       Store
	invalidator EntitlementInvalidator
	alerter     Alerter
	log         *zap.Logger
}

// NewPurchaseRecorder creates a recorder. invalidator and alerter may be nil.
func NewPurchaseRecorder(store Store, invalidator EntitlementInvalidator, alerter Alerter, log *zap.Logger) *PurchaseRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseRecorder{
		store:       store,
		invalidator: invalidator,
		alerter:     alerter,
		log:         log,
	}
}

// Record handles checkout.session.completed. Subscription checkouts and
// sessions without a course are acknowledged without writing anything.
func (r *PurchaseRecorder) Record(ctx context.Context, session *models.CheckoutSessionPayload) (Outcome, error) {
	log := logging.FromContext(ctx, r.log).With(
		zap.String("checkout_session_id", session.ID),
		zap.String("mode", session.Mode),
	)

	// Subscription state is reconciled from customer.subscription.* only.
	if session.Mode == models.CheckoutModeSubscription {
		log.Info("Skipping subscription checkout in checkout.session.completed")
		return OutcomeIgnored, nil
	}

	courseID := session.CourseID()
	if courseID == "" {
		log.Info("No courseId found in metadata, skipping purchase recording")
		return OutcomeIgnored, nil
	}
	log = log.With(zap.String("course_id", courseID))

	customerID := session.Customer.ID
	if customerID == "" {
		err := &ReferentialError{Entity: "user", Field: "customer"}
		log.Error("Missing customer in checkout session", zap.Error(err))
		return OutcomeFailed, err
	}
	log = log.With(zap.String("customer_id", customerID))

	user, err := r.store.FindUserByExternalCustomerID(ctx, customerID)
	if err != nil {
		log.Error("Failed to look up user", zap.Error(err))
		return OutcomeFailed, &PersistenceError{Op: "find user by customer", Err: err}
	}
	if user == nil {
		err := &ReferentialError{Entity: "user", Field: "customer", Value: customerID}
		log.Error("User not found for stripe customer", zap.Error(err))
		if r.alerter != nil {
			r.alerter.OrphanedPayment(ctx, OrphanedPayment{
				CheckoutSessionID: session.ID,
				CustomerID:        customerID,
				CourseID:          courseID,
				Amount:            session.Amount(),
			})
		}
		return OutcomeFailed, err
	}

	result, err := r.store.RecordPurchase(ctx, models.PurchaseParams{
		UserID:           user.ID,
		CourseID:         courseID,
		Amount:           session.Amount(),
		StripePurchaseID: session.ID,
	})
	if err != nil {
		log.Error("Error recording purchase", zap.Uint("user_id", user.ID), zap.Error(err))
		return OutcomeFailed, &PersistenceError{Op: "record purchase", Err: err}
	}

	if !result.Created {
		log.Info("Purchase already recorded", zap.Uint("purchase_id", result.ID))
		return OutcomeDuplicate, nil
	}

	if r.invalidator != nil {
		if err := r.invalidator.InvalidateCourse(ctx, user.ID, courseID); err != nil {
			log.Warn("Failed to invalidate access cache", zap.Error(err))
		}
	}

	log.Info("Successfully recorded purchase",
		zap.Uint("user_id", user.ID),
		zap.Uint("purchase_id", result.ID),
		zap.Int64("amount", session.Amount()),
	)
	return OutcomeRecorded, nil
}
