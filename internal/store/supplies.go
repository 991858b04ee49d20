package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"relief-ops-backend/internal/model"
)

func (s *gormStore) ListSupplies(ctx context.Context, f SupplyFilter) ([]model.ReliefSupply, error) {
	q := s.db.WithContext(ctx).Model(&model.ReliefSupply{})
	if f.DisasterID != nil {
		q = q.Where("disaster_id = ?", *f.DisasterID)
	}
	if f.ShelterID != nil {
		q = q.Where("shelter_id = ?", *f.ShelterID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.LowStock {
		q = q.Where("quantity <= reorder_level")
	}
	var supplies []model.ReliefSupply
	err := paginate(q, f.Page).Order("id").Find(&supplies).Error
	return supplies, err
}

func (s *gormStore) GetSupply(ctx context.Context, id int64) (*model.ReliefSupply, error) {
	var sup model.ReliefSupply
	if err := s.db.WithContext(ctx).First(&sup, id).Error; err != nil {
		return nil, wrap(err, "supply", id)
	}
	return &sup, nil
}

func (s *gormStore) checkSupplyRefs(tx *gorm.DB, sup *model.ReliefSupply) error {
	if sup.DisasterID != nil {
		if err := mustExist[model.Disaster](tx, "disaster", *sup.DisasterID); err != nil {
			return err
		}
	}
	if sup.ShelterID != nil {
		if err := mustExist[model.Shelter](tx, "shelter", *sup.ShelterID); err != nil {
			return err
		}
	}
	return nil
}

func (s *gormStore) CreateSupply(ctx context.Context, sup *model.ReliefSupply) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkSupplyRefs(tx, sup); err != nil {
			return err
		}
		return tx.Create(sup).Error
	})
}

func (s *gormStore) UpdateSupply(ctx context.Context, sup *model.ReliefSupply) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.ReliefSupply](tx, "supply", sup.ID); err != nil {
			return err
		}
		if err := s.checkSupplyRefs(tx, sup); err != nil {
			return err
		}
		return tx.Save(sup).Error
	})
}

func (s *gormStore) DeleteSupply(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.ReliefSupply{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: supply %d", ErrNotFound, id)
	}
	return nil
}

// AllocateSupply draws quantity from stock with a guarded decrement, so the
// stock never goes negative regardless of concurrent allocations.
func (s *gormStore) AllocateSupply(ctx context.Context, id int64, quantity int) (*model.ReliefSupply, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}

	var sup model.ReliefSupply
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ReliefSupply{}).
			Where("id = ? AND quantity >= ?", id, quantity).
			Update("quantity", gorm.Expr("quantity - ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&sup, id).Error; err != nil {
			return wrap(err, "supply", id)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: supply %d has %d %s, requested %d", ErrInsufficient, id, sup.Quantity, sup.Unit, quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sup, nil
}
