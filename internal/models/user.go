package models

// User is a storefront account. Billing events reach it through the
// Stripe customer id that checkout attached to the account.
type User struct {
	BaseModel

	ClerkID          string `json:"clerk_id" gorm:"size:64;index"`
	Email            string `json:"email" gorm:"size:255;index"`
	Name             string `json:"name" gorm:"size:255"`
	StripeCustomerID string `json:"stripe_customer_id" gorm:"size:64;not null;uniqueIndex"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Access answers whether a user may open a course.
type Access struct {
	HasAccess bool   `json:"has_access"`
	Source    string `json:"source,omitempty"` // purchase 或 subscription
}

const (
	AccessSourcePurchase     = "purchase"
	AccessSourceSubscription = "subscription"
)
