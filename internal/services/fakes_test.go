package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"coursepay-api/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type fakeStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	lookupErr     error
	writeErr      error
	purchases     map[string]models.PurchaseParams
	subscriptions map[string]models.SubscriptionParams
	purchaseCalls int
	upsertCalls   int
	access        models.Access
	accessCalls   int
	deliveries    map[string]int
	processed     map[uint]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[string]*models.User{},
		purchases:     map[string]models.PurchaseParams{},
		subscriptions: map[string]models.SubscriptionParams{},
		deliveries:    map[string]int{},
		processed:     map[uint]error{},
	}
}

func (f *fakeStore) addUser(id uint, customerID string) {
	user := &models.User{StripeCustomerID: customerID}
	user.ID = id
	f.users[customerID] = user
}

func (f *fakeStore) FindUserByExternalCustomerID(_ context.Context, customerID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.users[customerID], nil
}

func (f *fakeStore) FindUserAccess(_ context.Context, _ uint, _ string) (models.Access, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessCalls++
	if f.lookupErr != nil {
		return models.Access{}, f.lookupErr
	}
	return f.access, nil
}

func (f *fakeStore) RecordPurchase(_ context.Context, params models.PurchaseParams) (models.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchaseCalls++
	if f.writeErr != nil {
		return models.WriteResult{}, f.writeErr
	}
	if _, ok := f.purchases[params.StripePurchaseID]; ok {
		return models.WriteResult{ID: 1, Created: false}, nil
	}
	f.purchases[params.StripePurchaseID] = params
	return models.WriteResult{ID: 1, Created: true}, nil
}

func (f *fakeStore) UpsertSubscription(_ context.Context, params models.SubscriptionParams) (models.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.writeErr != nil {
		return models.WriteResult{}, f.writeErr
	}
	_, existed := f.subscriptions[params.StripeSubscriptionID]
	f.subscriptions[params.StripeSubscriptionID] = params
	return models.WriteResult{ID: 1, Created: !existed}, nil
}

func (f *fakeStore) RecordWebhookDelivery(_ context.Context, _, eventID, _ string) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries[eventID]++
	return uint(len(f.deliveries)), nil
}

func (f *fakeStore) MarkWebhookProcessed(_ context.Context, id uint, processingErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[id] = processingErr
	return nil
}

type fakeFetcher struct {
	payload *models.SubscriptionPayload
	err     error
	calls   int
	ids     []string
	expand  [][]string
}

func (f *fakeFetcher) RetrieveSubscription(_ context.Context, id string, expand []string) (*models.SubscriptionPayload, error) {
	f.calls++
	f.ids = append(f.ids, id)
	f.expand = append(f.expand, expand)
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeInvalidator struct {
	courses []string
	users   []uint
	err     error
}

func (f *fakeInvalidator) InvalidateCourse(_ context.Context, _ uint, courseID string) error {
	f.courses = append(f.courses, courseID)
	return f.err
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, userID uint) error {
	f.users = append(f.users, userID)
	return f.err
}

type fakeAlerter struct {
	payments []OrphanedPayment
}

func (f *fakeAlerter) OrphanedPayment(_ context.Context, payment OrphanedPayment) {
	f.payments = append(f.payments, payment)
}

var errDatabaseDown = errors.New("database is down")

func int64Ptr(v int64) *int64 { return &v }

// signedEvent builds a Stripe event envelope around object and signs it
// the way Stripe does.
func signedEvent(t *testing.T, secret, id, eventType string, object interface{}) ([]byte, string) {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2024-06-20",
		"created":     time.Now().Unix(),
		"data": map[string]json.RawMessage{
			"object": raw,
		},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func checkoutObject(id, mode, customer, courseID string, amount *int64) map[string]interface{} {
	obj := map[string]interface{}{
		"id":       id,
		"object":   "checkout.session",
		"mode":     mode,
		"customer": customer,
	}
	if amount != nil {
		obj["amount_total"] = *amount
	}
	if courseID != "" {
		obj["metadata"] = map[string]string{models.MetadataCourseID: courseID}
	}
	return obj
}

func subscriptionObject(id, status, customer, invoice, interval string, start, end *int64) map[string]interface{} {
	item := map[string]interface{}{
		"id": "si_" + id,
		"price": map[string]interface{}{
			"id":        "price_1",
			"recurring": map[string]string{"interval": interval},
		},
	}
	obj := map[string]interface{}{
		"id":                   id,
		"object":               "subscription",
		"status":               status,
		"customer":             customer,
		"cancel_at_period_end": false,
		"items":                map[string]interface{}{"data": []interface{}{item}},
	}
	if invoice != "" {
		obj["latest_invoice"] = invoice
	}
	if start != nil {
		obj["current_period_start"] = *start
	}
	if end != nil {
		obj["current_period_end"] = *end
	}
	return obj
}
