package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"relief-ops-backend/internal/model"
)

func (s *gormStore) ListShelters(ctx context.Context, f ShelterFilter) ([]model.Shelter, error) {
	q := s.db.WithContext(ctx).Model(&model.Shelter{})
	if f.DisasterID != nil {
		q = q.Where("disaster_id = ?", *f.DisasterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var shelters []model.Shelter
	err := paginate(q, f.Page).Order("id").Find(&shelters).Error
	return shelters, err
}

func (s *gormStore) GetShelter(ctx context.Context, id int64) (*model.Shelter, error) {
	var sh model.Shelter
	if err := s.db.WithContext(ctx).First(&sh, id).Error; err != nil {
		return nil, wrap(err, "shelter", id)
	}
	return &sh, nil
}

func (s *gormStore) CreateShelter(ctx context.Context, sh *model.Shelter) error {
	sh.Status = sh.DerivedStatus()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sh.DisasterID != nil {
			if err := mustExist[model.Disaster](tx, "disaster", *sh.DisasterID); err != nil {
				return err
			}
		}
		return tx.Create(sh).Error
	})
}

func (s *gormStore) UpdateShelter(ctx context.Context, sh *model.Shelter) error {
	sh.Status = sh.DerivedStatus()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Shelter](tx, "shelter", sh.ID); err != nil {
			return err
		}
		if sh.DisasterID != nil {
			if err := mustExist[model.Disaster](tx, "disaster", *sh.DisasterID); err != nil {
				return err
			}
		}
		return tx.Save(sh).Error
	})
}

func (s *gormStore) DeleteShelter(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Shelter](tx, "shelter", id); err != nil {
			return err
		}
		if err := tx.Model(&model.ReliefSupply{}).Where("shelter_id = ?", id).Update("shelter_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Shelter{}, id).Error
	})
}

// AdjustShelterOccupancy applies delta with a single guarded UPDATE so that
// concurrent check-ins can never push occupancy outside [0, capacity].
// Closed shelters accept check-outs only.
func (s *gormStore) AdjustShelterOccupancy(ctx context.Context, id int64, delta int) (*model.Shelter, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrInvalid)
	}

	var sh model.Shelter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Shelter{}).
			Where("id = ?", id).
			Where("current_occupancy + ? >= 0", delta).
			Where("current_occupancy + ? <= capacity", delta)
		if delta > 0 {
			q = q.Where("status <> ?", model.ShelterClosed)
		}
		res := q.Update("current_occupancy", gorm.Expr("current_occupancy + ?", delta))
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&sh, id).Error; err != nil {
			return wrap(err, "shelter", id)
		}
		if res.RowsAffected == 0 {
			if sh.Status == model.ShelterClosed && delta > 0 {
				return fmt.Errorf("%w: shelter %d is closed", ErrConflict, id)
			}
			return fmt.Errorf("%w: shelter %d has %d of %d places taken", ErrInsufficient, id, sh.CurrentOccupancy, sh.Capacity)
		}

		if status := sh.DerivedStatus(); status != sh.Status {
			sh.Status = status
			return tx.Model(&sh).Update("status", status).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sh, nil
}
