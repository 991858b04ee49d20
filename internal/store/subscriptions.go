package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relief-ops-backend/internal/model"
)

// UpsertSubscription creates or replaces a subscription together with its disaster mapping.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription, disasterIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Disasters").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "all_disasters"}),
		}).Create(sub).Error; err != nil {
			return err
		}

		disasters := []*model.Disaster{}
		if len(disasterIDs) > 0 {
			if err := tx.Find(&disasters, disasterIDs).Error; err != nil {
				return err
			}
			if len(disasters) != len(uniqueIDs(disasterIDs)) {
				return fmt.Errorf("%w: unknown disaster in subscription", ErrNotFound)
			}
		}

		if err := tx.Model(sub).Association("Disasters").Replace(disasters); err != nil {
			return err
		}
		sub.Disasters = disasters
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Disasters").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, wrap(err, "subscription", endpoint)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_disaster_mapping WHERE push_subscription_endpoint = ?", endpoint).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	})
}

// SubscriptionsForDisaster returns subscriptions mapped to the disaster plus those following all disasters.
func (s *gormStore) SubscriptionsForDisaster(ctx context.Context, disasterID int64) ([]model.PushSubscription, error) {
	db := s.db.WithContext(ctx)
	mapped := db.Table("subscription_disaster_mapping").
		Select("push_subscription_endpoint").
		Where("disaster_id = ?", disasterID)

	var subs []model.PushSubscription
	err := db.Where("all_disasters = ?", true).
		Or("endpoint IN (?)", mapped).
		Order("created_at").
		Find(&subs).Error
	return subs, err
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
