package models

import (
	"encoding/json"
	"fmt"
)

// Checkout session modes as sent by Stripe. Anything other than
// subscription is a one-time payment flow.
const (
	CheckoutModeSubscription = "subscription"
	CheckoutModePayment      = "payment"
)

// MetadataCourseID is the checkout metadata key carrying the purchased course.
const MetadataCourseID = "courseId"

// ProviderRef is an expandable Stripe field: either a bare id string or an
// expanded object with an "id" member. null decodes to the zero value.
type ProviderRef struct {
	ID string
}

// UnmarshalJSON accepts "cus_123", {"id":"cus_123",...} and null.
func (r *ProviderRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		r.ID = ""
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("expandable field: %w", err)
	}
	r.ID = obj.ID
	return nil
}

// MarshalJSON writes the reference back as a bare id.
func (r ProviderRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// IsZero reports whether the reference is absent.
func (r ProviderRef) IsZero() bool {
	return r.ID == ""
}

// CheckoutSessionPayload is the data.object of checkout.session.completed.
type CheckoutSessionPayload struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	Customer      ProviderRef       `json:"customer"`
	AmountTotal   *int64            `json:"amount_total"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// CourseID returns metadata.courseId, or "" when metadata is absent.
func (s *CheckoutSessionPayload) CourseID() string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[MetadataCourseID]
}

// Amount returns amount_total, defaulting to 0 when Stripe omitted it.
func (s *CheckoutSessionPayload) Amount() int64 {
	if s.AmountTotal == nil {
		return 0
	}
	return *s.AmountTotal
}

// SubscriptionPayload is the data.object of customer.subscription.* events,
// and also the shape decoded from a subscription retrieve response.
//
// Period fields are pointers: depending on the API version they live on the
// subscription, on its items, or are missing from the event entirely.
type SubscriptionPayload struct {
	ID                 string               `json:"id"`
	Status             string               `json:"status"`
	Customer           ProviderRef          `json:"customer"`
	Items              SubscriptionItemList `json:"items"`
	CurrentPeriodStart *int64               `json:"current_period_start"`
	CurrentPeriodEnd   *int64               `json:"current_period_end"`
	CancelAtPeriodEnd  bool                 `json:"cancel_at_period_end"`
	LatestInvoice      ProviderRef          `json:"latest_invoice"`
}

type SubscriptionItemList struct {
	Data []SubscriptionItem `json:"data"`
}

type SubscriptionItem struct {
	ID                 string `json:"id"`
	Price              Price  `json:"price"`
	CurrentPeriodStart *int64 `json:"current_period_start"`
	CurrentPeriodEnd   *int64 `json:"current_period_end"`
}

type Price struct {
	ID        string     `json:"id"`
	Recurring *Recurring `json:"recurring"`
}

type Recurring struct {
	Interval string `json:"interval"`
}

// BillingPeriod is a [Start, End) interval in epoch seconds.
type BillingPeriod struct {
	Start int64
	End   int64
}

// BillingPeriod resolves the current period from the subscription fields,
// falling back to the first item. A zero value counts as missing.
func (s *SubscriptionPayload) BillingPeriod() (BillingPeriod, bool) {
	if p, ok := period(s.CurrentPeriodStart, s.CurrentPeriodEnd); ok {
		return p, true
	}
	if len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		return period(item.CurrentPeriodStart, item.CurrentPeriodEnd)
	}
	return BillingPeriod{}, false
}

// RecurringInterval returns the first item's recurring interval, or "".
func (s *SubscriptionPayload) RecurringInterval() string {
	if len(s.Items.Data) == 0 || s.Items.Data[0].Price.Recurring == nil {
		return ""
	}
	return s.Items.Data[0].Price.Recurring.Interval
}

// RawPeriod returns the subscription-level period fields for logging;
// missing values are reported as nil.
func (s *SubscriptionPayload) RawPeriod() map[string]interface{} {
	raw := map[string]interface{}{
		"current_period_start": nil,
		"current_period_end":   nil,
	}
	if s.CurrentPeriodStart != nil {
		raw["current_period_start"] = *s.CurrentPeriodStart
	}
	if s.CurrentPeriodEnd != nil {
		raw["current_period_end"] = *s.CurrentPeriodEnd
	}
	return raw
}

func period(start, end *int64) (BillingPeriod, bool) {
	if start == nil || end == nil || *start == 0 || *end == 0 {
		return BillingPeriod{}, false
	}
	return BillingPeriod{Start: *start, End: *end}, true
}
