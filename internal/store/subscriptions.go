package store

import (
	"context"

	"gorm.io/gorm/clause"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

// UpsertSubscription creates or replaces a push subscription for its user.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	return classify(err, "")
}

// GetSubscription fetches a subscription by endpoint.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, classify(err, "subscription not found")
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription. Scoped to the calling user so
// one principal cannot unsubscribe another's browser.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint, userID string) error {
	res := s.db.WithContext(ctx).
		Where("endpoint = ? AND user_id = ?", endpoint, userID).
		Delete(&model.PushSubscription{})
	if res.Error != nil {
		return classify(res.Error, "subscription not found")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("subscription not found")
	}
	return nil
}

// SubscriptionsForUser returns all push subscriptions registered by a user.
func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, classify(err, "")
	}
	return subs, nil
}
