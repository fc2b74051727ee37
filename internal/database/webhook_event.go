package database

import (
	"context"

	"coursepay-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordWebhookDelivery notes a verified delivery. Redeliveries of the same
// event bump the attempt counter and clear the previous outcome.
func (s *Store) RecordWebhookDelivery(ctx context.Context, provider, eventID, eventType string) (uint, error) {
	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		Attempts:        1,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempts":     gorm.Expr("webhook_events.attempts + 1"),
			"processed_at": nil,
			"last_error":   "",
			"updated_at":   s.now(),
		}),
	}).Create(event).Error; err != nil {
		return 0, err
	}

	var stored models.WebhookEvent
	if err := s.db.WithContext(ctx).Where("provider = ? AND provider_event_id = ?", provider, eventID).
		First(&stored).Error; err != nil {
		return 0, err
	}
	return stored.ID, nil
}

// MarkWebhookProcessed stores the outcome of a delivery. A nil error marks
// it processed; otherwise the error text is kept and processed_at stays
// empty so the redelivery is visible.
func (s *Store) MarkWebhookProcessed(ctx context.Context, id uint, processingErr error) error {
	updates := map[string]interface{}{
		"last_error": "",
	}
	if processingErr != nil {
		updates["last_error"] = processingErr.Error()
	} else {
		now := s.now()
		updates["processed_at"] = &now
	}
	return s.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// ListWebhookEvents returns the most recent deliveries first.
func (s *Store) ListWebhookEvents(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []models.WebhookEvent
	err := s.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
