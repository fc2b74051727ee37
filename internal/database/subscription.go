package database

import (
	"context"
	"errors"

	"coursepay-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertSubscription creates or overwrites the row for a Stripe
// subscription id. Every observed field is assigned, so the stored state
// is whatever the latest call carried; a soft-deleted row is revived.
func (s *Store) UpsertSubscription(ctx context.Context, params models.SubscriptionParams) (models.WriteResult, error) {
	existed, err := s.subscriptionExists(ctx, params.StripeSubscriptionID)
	if err != nil {
		return models.WriteResult{}, err
	}

	subscription := &models.Subscription{
		UserID:               params.UserID,
		StripeSubscriptionID: params.StripeSubscriptionID,
		Status:               params.Status,
		PlanType:             params.PlanType,
		CurrentPeriodStart:   params.CurrentPeriodStart,
		CurrentPeriodEnd:     params.CurrentPeriodEnd,
		CancelAtPeriodEnd:    params.CancelAtPeriodEnd,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"status",
			"plan_type",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
			"deleted_at",
		}),
	}).Create(subscription).Error; err != nil {
		return models.WriteResult{}, err
	}

	var stored models.Subscription
	if err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", params.StripeSubscriptionID).
		First(&stored).Error; err != nil {
		return models.WriteResult{}, err
	}
	return models.WriteResult{ID: stored.ID, Created: !existed}, nil
}

func (s *Store) subscriptionExists(ctx context.Context, stripeSubscriptionID string) (bool, error) {
	var existing models.Subscription
	err := s.db.WithContext(ctx).Unscoped().Select("id").
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// GetSubscriptionByStripeID 通过 Stripe 订阅ID获取订阅
func (s *Store) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// ListSubscriptionsByUser 获取用户的所有订阅
func (s *Store) ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&subscriptions).Error
	return subscriptions, err
}
