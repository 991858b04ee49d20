package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relief-ops-backend/internal/model"
)

func (s *gormStore) ListDisasters(ctx context.Context, f DisasterFilter) ([]model.Disaster, error) {
	q := s.db.WithContext(ctx).Model(&model.Disaster{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.MinTier > 0 {
		q = q.Where("tier >= ?", f.MinTier)
	}
	var disasters []model.Disaster
	err := paginate(q, f.Page).Order("started_at DESC").Order("id DESC").Find(&disasters).Error
	return disasters, err
}

func (s *gormStore) ListOpenDisasters(ctx context.Context) ([]model.Disaster, error) {
	var disasters []model.Disaster
	err := s.db.WithContext(ctx).
		Where("status <> ?", model.DisasterResolved).
		Order("id").
		Find(&disasters).Error
	return disasters, err
}

func (s *gormStore) GetDisaster(ctx context.Context, id int64) (*model.Disaster, error) {
	var d model.Disaster
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, wrap(err, "disaster", id)
	}
	return &d, nil
}

func (s *gormStore) CreateDisaster(ctx context.Context, d *model.Disaster) error {
	return wrap(s.db.WithContext(ctx).Create(d).Error, "disaster", d.Name)
}

func (s *gormStore) UpdateDisaster(ctx context.Context, d *model.Disaster) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Disaster](tx, "disaster", d.ID); err != nil {
			return err
		}
		// The tier only moves through SetDisasterTier and RaiseDisasterTier.
		return wrap(tx.Omit("tier").Save(d).Error, "disaster", d.ID)
	})
}

// DeleteDisaster refuses while volunteers are still actively assigned and
// otherwise detaches or removes everything that references the disaster.
func (s *gormStore) DeleteDisaster(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Disaster](tx, "disaster", id); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&model.VolunteerAssignment{}).
			Where("disaster_id = ? AND status = ?", id, model.AssignmentActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: disaster %d has %d active assignments", ErrConflict, id, active)
		}

		if err := tx.Where("disaster_id = ?", id).Delete(&model.VolunteerAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("disaster_id = ?", id).Delete(&model.AgencyActivation{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&model.Shelter{}, &model.ReliefSupply{}, &model.UserReport{}} {
			if err := tx.Model(m).Where("disaster_id = ?", id).Update("disaster_id", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM subscription_disaster_mapping WHERE disaster_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Disaster{}, id).Error
	})
}

func (s *gormStore) SetDisasterTier(ctx context.Context, id int64, tier int) error {
	res := s.db.WithContext(ctx).Model(&model.Disaster{}).Where("id = ?", id).Update("tier", tier)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: disaster %d", ErrNotFound, id)
	}
	return nil
}

// RaiseDisasterTier sets the tier only if it is currently lower and reports
// whether a row changed. A tier written concurrently at or above tier is kept.
func (s *gormStore) RaiseDisasterTier(ctx context.Context, id int64, tier int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Disaster{}).
		Where("id = ? AND tier < ?", id, tier).
		Update("tier", tier)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ActivateAgenciesForTier activates every agency whose activation tier is at or
// below tier and which has no activation for the disaster yet. Agencies that were
// stood down are not re-activated. It returns only the activations it created.
func (s *gormStore) ActivateAgenciesForTier(ctx context.Context, disasterID int64, tier int, now time.Time) ([]model.AgencyActivation, error) {
	var created []model.AgencyActivation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agencies []model.Agency
		if err := tx.Where("activation_tier <= ?", tier).Order("id").Find(&agencies).Error; err != nil {
			return err
		}
		if len(agencies) == 0 {
			return nil
		}

		var existing []int64
		if err := tx.Model(&model.AgencyActivation{}).
			Where("disaster_id = ?", disasterID).
			Pluck("agency_id", &existing).Error; err != nil {
			return err
		}
		seen := make(map[int64]bool, len(existing))
		for _, id := range existing {
			seen[id] = true
		}

		for _, a := range agencies {
			if seen[a.ID] {
				continue
			}
			created = append(created, model.AgencyActivation{
				AgencyID:    a.ID,
				DisasterID:  disasterID,
				Status:      model.ActivationActive,
				Tier:        tier,
				ActivatedAt: now,
			})
		}
		if len(created) == 0 {
			return nil
		}

		// A concurrent escalation may have inserted some of these already.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agency_id"}, {Name: "disaster_id"}},
			DoNothing: true,
		}).Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
