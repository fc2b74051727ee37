package models

const (
	PlanTypeMonth = "month"
	PlanTypeYear  = "year"
)

const (
	SubscriptionStatusActive = "active"
)

// Subscription 订阅模型
// One row per Stripe subscription id, overwritten by every relevant
// lifecycle event. Period boundaries are unix milliseconds.
type Subscription struct {
	BaseModel

	UserID               uint   `json:"user_id" gorm:"not null;index"`
	StripeSubscriptionID string `json:"stripe_subscription_id" gorm:"not null;size:255;uniqueIndex"`
	Status               string `json:"status" gorm:"not null;size:32;index"`
	PlanType             string `json:"plan_type" gorm:"not null;size:16"` // month 或 year
	CurrentPeriodStart   int64  `json:"current_period_start"`
	CurrentPeriodEnd     int64  `json:"current_period_end" gorm:"index"`
	CancelAtPeriodEnd    bool   `json:"cancel_at_period_end"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// SubscriptionParams is the input of UpsertSubscription. Every field is
// written on each call.
type SubscriptionParams struct {
	UserID               uint
	StripeSubscriptionID string
	Status               string
	PlanType             string
	CurrentPeriodStart   int64 // ms
	CurrentPeriodEnd     int64 // ms
	CancelAtPeriodEnd    bool
}
