package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursepay-api/internal/models"

	"gorm.io/gorm"
)

// FindUserByExternalCustomerID resolves a Stripe customer id. A missing
// user is reported as (nil, nil).
func (s *Store) FindUserByExternalCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID 通过ID获取用户
func (s *Store) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser links a storefront account to its Stripe customer.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.StripeCustomerID = strings.TrimSpace(user.StripeCustomerID)
	if user.StripeCustomerID == "" {
		return fmt.Errorf("stripe_customer_id is required")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("stripe_customer_id = ?", user.StripeCustomerID).First(&existing).Error
	if err == nil {
		return fmt.Errorf("user with stripe customer %s already exists", user.StripeCustomerID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.WithContext(ctx).Create(user).Error
}

// FindUserAccess reports whether the user owns the course, either through
// a purchase or through a subscription whose period has not ended.
func (s *Store) FindUserAccess(ctx context.Context, userID uint, courseID string) (models.Access, error) {
	var purchases int64
	err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&purchases).Error
	if err != nil {
		return models.Access{}, err
	}
	if purchases > 0 {
		return models.Access{HasAccess: true, Source: models.AccessSourcePurchase}, nil
	}

	var subscriptions int64
	err = s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND current_period_end > ?",
			userID, models.SubscriptionStatusActive, s.now().UnixMilli()).
		Count(&subscriptions).Error
	if err != nil {
		return models.Access{}, err
	}
	if subscriptions > 0 {
		return models.Access{HasAccess: true, Source: models.AccessSourceSubscription}, nil
	}

	return models.Access{HasAccess: false}, nil
}
