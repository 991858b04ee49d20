package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relief-ops-backend/internal/model"
)

func (s *gormStore) ListAgencies(ctx context.Context, p Page) ([]model.Agency, error) {
	var agencies []model.Agency
	err := paginate(s.db.WithContext(ctx).Model(&model.Agency{}), p).
		Order("activation_tier").Order("id").
		Find(&agencies).Error
	return agencies, err
}

func (s *gormStore) GetAgency(ctx context.Context, id int64) (*model.Agency, error) {
	var a model.Agency
	if err := s.db.WithContext(ctx).Preload("Resources").First(&a, id).Error; err != nil {
		return nil, wrap(err, "agency", id)
	}
	return &a, nil
}

func (s *gormStore) CreateAgency(ctx context.Context, a *model.Agency) error {
	return wrap(s.db.WithContext(ctx).Omit("Resources").Create(a).Error, "agency", a.Name)
}

func (s *gormStore) UpdateAgency(ctx context.Context, a *model.Agency) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Agency](tx, "agency", a.ID); err != nil {
			return err
		}
		return wrap(tx.Omit("Resources").Save(a).Error, "agency", a.Name)
	})
}

func (s *gormStore) DeleteAgency(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Agency](tx, "agency", id); err != nil {
			return err
		}
		if err := tx.Where("agency_id = ?", id).Delete(&model.AgencyResource{}).Error; err != nil {
			return err
		}
		if err := tx.Where("agency_id = ?", id).Delete(&model.AgencyActivation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Agency{}, id).Error
	})
}

func (s *gormStore) ListAgencyResources(ctx context.Context, agencyID int64) ([]model.AgencyResource, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist[model.Agency](db, "agency", agencyID); err != nil {
		return nil, err
	}
	var resources []model.AgencyResource
	err := db.Where("agency_id = ?", agencyID).Order("id").Find(&resources).Error
	return resources, err
}

func (s *gormStore) CreateAgencyResource(ctx context.Context, r *model.AgencyResource) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Agency](tx, "agency", r.AgencyID); err != nil {
			return err
		}
		return tx.Create(r).Error
	})
}

func (s *gormStore) DeleteAgencyResource(ctx context.Context, agencyID, resourceID int64) error {
	res := s.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Delete(&model.AgencyResource{}, resourceID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: resource %d of agency %d", ErrNotFound, resourceID, agencyID)
	}
	return nil
}

func (s *gormStore) ListActivations(ctx context.Context, f ActivationFilter) ([]model.AgencyActivation, error) {
	q := s.db.WithContext(ctx).Model(&model.AgencyActivation{}).Preload("Agency")
	if f.AgencyID != nil {
		q = q.Where("agency_id = ?", *f.AgencyID)
	}
	if f.DisasterID != nil {
		q = q.Where("disaster_id = ?", *f.DisasterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var activations []model.AgencyActivation
	err := paginate(q, f.Page).Order("activated_at DESC").Order("id DESC").Find(&activations).Error
	return activations, err
}

// ActivateAgency activates an agency for a disaster by hand, regardless of tier.
// An existing active activation is returned unchanged with changed set to false;
// a stood-down one is reopened.
func (s *gormStore) ActivateAgency(ctx context.Context, agencyID, disasterID int64, now time.Time) (*model.AgencyActivation, bool, error) {
	var (
		activation model.AgencyActivation
		changed    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Agency](tx, "agency", agencyID); err != nil {
			return err
		}
		var disaster model.Disaster
		if err := tx.First(&disaster, disasterID).Error; err != nil {
			return wrap(err, "disaster", disasterID)
		}
		if !disaster.IsOpen() {
			return fmt.Errorf("%w: disaster %d is resolved", ErrConflict, disasterID)
		}

		// A concurrent first activation wins the insert; this one then reads its row.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agency_id"}, {Name: "disaster_id"}},
			DoNothing: true,
		}).Create(&model.AgencyActivation{
			AgencyID:    agencyID,
			DisasterID:  disasterID,
			Status:      model.ActivationActive,
			Tier:        disaster.Tier,
			ActivatedAt: now,
		})
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("agency_id = ? AND disaster_id = ?", agencyID, disasterID).
			First(&activation).Error; err != nil {
			return wrap(err, "activation", agencyID)
		}
		if activation.Status == model.ActivationActive {
			return nil
		}

		changed = true
		activation.Status = model.ActivationActive
		activation.Tier = disaster.Tier
		activation.ActivatedAt = now
		activation.StoodDownAt = nil
		return tx.Model(&activation).Select("status", "tier", "activated_at", "stood_down_at").Updates(&activation).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &activation, changed, nil
}

func (s *gormStore) StandDownActivation(ctx context.Context, id int64, now time.Time) (*model.AgencyActivation, error) {
	var activation model.AgencyActivation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&activation, id).Error; err != nil {
			return wrap(err, "activation", id)
		}
		if activation.Status == model.ActivationStoodDown {
			return fmt.Errorf("%w: activation %d is already stood down", ErrConflict, id)
		}
		activation.Status = model.ActivationStoodDown
		activation.StoodDownAt = &now
		return tx.Model(&activation).Updates(map[string]any{
			"status":        activation.Status,
			"stood_down_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &activation, nil
}
