package store

import (
	"context"

	"relief-ops-backend/internal/intel"
	"relief-ops-backend/internal/model"
)

// ResourceSnapshot gathers a disaster's shelters, stock, activated agency
// resources and active volunteer count. Supplies held at one of the disaster's
// shelters count even when not tagged with the disaster itself.
func (s *gormStore) ResourceSnapshot(ctx context.Context, disasterID int64) (*intel.Snapshot, error) {
	db := s.db.WithContext(ctx)

	snap := &intel.Snapshot{}
	if err := db.First(&snap.Disaster, disasterID).Error; err != nil {
		return nil, wrap(err, "disaster", disasterID)
	}

	if err := db.Where("disaster_id = ?", disasterID).Order("id").Find(&snap.Shelters).Error; err != nil {
		return nil, err
	}

	shelterIDs := db.Model(&model.Shelter{}).Select("id").Where("disaster_id = ?", disasterID)
	if err := db.Where("disaster_id = ?", disasterID).
		Or("shelter_id IN (?)", shelterIDs).
		Order("id").
		Find(&snap.Supplies).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.AgencyResource{}).
		Joins("JOIN agency_activations aa ON aa.agency_id = agency_resources.agency_id").
		Where("aa.disaster_id = ? AND aa.status = ?", disasterID, model.ActivationActive).
		Order("agency_resources.id").
		Find(&snap.AgencyResources).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.VolunteerAssignment{}).
		Where("disaster_id = ? AND status = ?", disasterID, model.AssignmentActive).
		Count(&snap.ActiveVolunteers).Error; err != nil {
		return nil, err
	}

	return snap, nil
}
