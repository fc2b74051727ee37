package database

import (
	"context"

	"coursepay-api/internal/models"

	"gorm.io/gorm/clause"
)

// RecordPurchase inserts a purchase once per Stripe purchase id. A repeated
// call with the same id leaves the stored row untouched and reports
// Created=false.
func (s *Store) RecordPurchase(ctx context.Context, params models.PurchaseParams) (models.WriteResult, error) {
	purchase := &models.Purchase{
		UserID:           params.UserID,
		CourseID:         params.CourseID,
		Amount:           params.Amount,
		StripePurchaseID: params.StripePurchaseID,
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_purchase_id"}},
		DoNothing: true,
	}).Create(purchase)
	if tx.Error != nil {
		return models.WriteResult{}, tx.Error
	}

	var stored models.Purchase
	if err := s.db.WithContext(ctx).Where("stripe_purchase_id = ?", params.StripePurchaseID).
		First(&stored).Error; err != nil {
		return models.WriteResult{}, err
	}
	return models.WriteResult{ID: stored.ID, Created: tx.RowsAffected > 0}, nil
}

// ListPurchasesByUser 获取用户的所有购买记录
func (s *Store) ListPurchasesByUser(ctx context.Context, userID uint) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&purchases).Error
	return purchases, err
}
