package services

import (
	"context"
	"testing"

	"coursepay-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type reconcilerFixture struct {
	store      *fakeStore
	fetcher    *fakeFetcher
	cache      *fakeInvalidator
	alerter    *fakeAlerter
	logs       *observer.ObservedLogs
	reconciler *Reconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	f := &reconcilerFixture{
		store:   newFakeStore(),
		fetcher: &fakeFetcher{},
		cache:   &fakeInvalidator{},
		alerter: &fakeAlerter{},
		logs:    logs,
	}
	f.store.addUser(7, "cus_known")
	f.reconciler = NewReconciler(ReconcilerOptions{
		Verifier:      NewSignatureVerifier(testWebhookSecret, 0),
		Purchases:     NewPurchaseRecorder(f.store, f.cache, f.alerter, log),
		Subscriptions: NewSubscriptionUpserter(f.store, f.fetcher, f.cache, log),
		Ledger:        f.store,
		Logger:        log,
	})
	return f
}

func TestProcessRejectsTamperedBody(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, testWebhookSecret, "evt_1", "checkout.session.completed",
		checkoutObject("cs_1", models.CheckoutModePayment, "cus_known", "course_go", nil))

	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = ' '

	outcome, err := f.reconciler.Process(context.Background(), tampered, header)
	require.Error(t, err)
	assert.True(t, IsSignatureError(err))
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Zero(t, f.store.purchaseCalls)
	assert.Empty(t, f.store.deliveries, "unverified deliveries are not recorded")
}

func TestProcessRejectsWrongSecret(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, "whsec_other", "evt_1", "checkout.session.completed",
		checkoutObject("cs_1", models.CheckoutModePayment, "cus_known", "course_go", nil))

	_, err := f.reconciler.Process(context.Background(), body, header)
	require.Error(t, err)
	assert.True(t, IsSignatureError(err))
	assert.Zero(t, f.store.purchaseCalls)
}

func TestProcessRejectsMissingHeader(t *testing.T) {
	f := newReconcilerFixture(t)
	body, _ := signedEvent(t, testWebhookSecret, "evt_1", "checkout.session.completed",
		checkoutObject("cs_1", models.CheckoutModePayment, "cus_known", "course_go", nil))

	_, err := f.reconciler.Process(context.Background(), body, "")
	assert.True(t, IsSignatureError(err))
}

func TestProcessRecordsPurchase(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, testWebhookSecret, "evt_buy", "checkout.session.completed",
		checkoutObject("cs_1", models.CheckoutModePayment, "cus_known", "course_go", int64Ptr(4900)))

	outcome, err := f.reconciler.Process(context.Background(), body, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, outcome)

	require.Contains(t, f.store.purchases, "cs_1")
	assert.Equal(t, models.PurchaseParams{
		UserID:           7,
		CourseID:         "course_go",
		Amount:           4900,
		StripePurchaseID: "cs_1",
	}, f.store.purchases["cs_1"])
	assert.Equal(t, 1, f.store.deliveries["evt_buy"])
	assert.Len(t, f.store.processed, 1)
}

func TestProcessDuplicateCheckoutYieldsOneRecord(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, testWebhookSecret, "evt_buy", "checkout.session.completed",
		checkoutObject("cs_1", models.CheckoutModePayment, "cus_known", "course_go", int64Ptr(4900)))

	first, err := f.reconciler.Process(context.Background(), body, header)
	require.NoError(t, err)
	second, err := f.reconciler.Process(context.Background(), body, header)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRecorded, first)
	assert.Equal(t, OutcomeDuplicate, second)
	assert.Len(t, f.store.purchases, 1)
	assert.Equal(t, 2, f.store.deliveries["evt_buy"])
}

func TestProcessUnknownTypeIsIgnored(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, testWebhookSecret, "evt_inv", "invoice.paid", map[string]string{"id": "in_1"})

	outcome, err := f.reconciler.Process(context.Background(), body, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Zero(t, f.store.purchaseCalls)
	assert.Zero(t, f.store.upsertCalls)
	assert.Zero(t, f.fetcher.calls)
}

func TestProcessSubscriptionCreated(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, testWebhookSecret, "evt_sub", "customer.subscription.created",
		subscriptionObject("sub_1", "active", "cus_known", "in_1", "month", int64Ptr(1700000000), int64Ptr(1702592000)))

	outcome, err := f.reconciler.Process(context.Background(), body, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpserted, outcome)

	got := f.store.subscriptions["sub_1"]
	assert.Equal(t, int64(1700000000000), got.CurrentPeriodStart)
	assert.Equal(t, int64(1702592000000), got.CurrentPeriodEnd)
	assert.Equal(t, models.PlanTypeMonth, got.PlanType)
}

func TestProcessHandlerErrorIsReturnedAndLedgered(t *testing.T) {
	f := newReconcilerFixture(t)
	body, header := signedEvent(t, testWebhookSecret, "evt_orphan", "checkout.session.completed",
		checkoutObject("cs_2", models.CheckoutModePayment, "cus_unknown", "course_go", nil))

	outcome, err := f.reconciler.Process(context.Background(), body, header)
	require.Error(t, err)
	assert.False(t, IsSignatureError(err))
	assert.Equal(t, "referential", ErrorKind(err))
	assert.Equal(t, OutcomeFailed, outcome)

	require.Len(t, f.store.processed, 1)
	for _, processingErr := range f.store.processed {
		assert.Error(t, processingErr)
	}

	logged := f.logs.FilterMessage("Error processing webhook").All()
	require.Len(t, logged, 1)
	fields := logged[0].ContextMap()
	assert.Equal(t, "evt_orphan", fields["event_id"])
	assert.Equal(t, "checkout.session.completed", fields["event_type"])
}

func TestDispatchUndecodableObject(t *testing.T) {
	f := newReconcilerFixture(t)
	event := stripe.Event{
		ID:   "evt_bad",
		Type: stripe.EventTypeCustomerSubscriptionUpdated,
		Data: &stripe.EventData{Raw: []byte(`{"id":"sub_1","customer":[1]}`)},
	}

	_, err := f.reconciler.Dispatch(context.Background(), event)
	require.Error(t, err)
	assert.Equal(t, "data_integrity", ErrorKind(err))
	assert.Zero(t, f.store.upsertCalls)
}

func TestDispatchMissingData(t *testing.T) {
	f := newReconcilerFixture(t)
	_, err := f.reconciler.Dispatch(context.Background(), stripe.Event{
		ID:   "evt_empty",
		Type: stripe.EventTypeCheckoutSessionCompleted,
	})
	assert.Equal(t, "data_integrity", ErrorKind(err))
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	// A reconciler without handlers panics on a recognised type.
	r := NewReconciler(ReconcilerOptions{Verifier: NewSignatureVerifier(testWebhookSecret, 0)})
	event := stripe.Event{
		ID:   "evt_panic",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: []byte(`{"id":"cs_1","mode":"payment"}`)},
	}

	outcome, err := r.Dispatch(context.Background(), event)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, "internal", ErrorKind(err))
}
