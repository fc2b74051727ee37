package models

// Purchase is a one-time course purchase. Rows are created once per
// checkout session and never updated.
type Purchase struct {
	BaseModel

	UserID           uint   `json:"user_id" gorm:"not null;index"`
	CourseID         string `json:"course_id" gorm:"not null;size:64;index"`
	Amount           int64  `json:"amount"`                                                   // smallest currency unit
	StripePurchaseID string `json:"stripe_purchase_id" gorm:"not null;size:255;uniqueIndex"` // checkout session id
}

// TableName 指定表名
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseParams is the input of RecordPurchase.
type PurchaseParams struct {
	UserID           uint
	CourseID         string
	Amount           int64
	StripePurchaseID string
}
