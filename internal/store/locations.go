package store

import (
	"context"

	"relief-ops-backend/internal/model"
)

// FindLocations returns locations previously stored for a normalized query.
func (s *gormStore) FindLocations(ctx context.Context, query string) ([]model.Location, error) {
	var locations []model.Location
	err := s.db.WithContext(ctx).Where("query = ?", query).Order("id").Find(&locations).Error
	return locations, err
}

// SaveLocations stores geocoder results under the query that produced them.
func (s *gormStore) SaveLocations(ctx context.Context, query string, locations []model.Location) error {
	if len(locations) == 0 {
		return nil
	}
	for i := range locations {
		locations[i].Query = query
	}
	return s.db.WithContext(ctx).Create(&locations).Error
}
