package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relief-ops-backend/internal/model"
)

func (s *gormStore) ListReports(ctx context.Context, f ReportFilter) ([]model.UserReport, error) {
	q := s.db.WithContext(ctx).Model(&model.UserReport{})
	if f.DisasterID != nil {
		q = q.Where("disaster_id = ?", *f.DisasterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var reports []model.UserReport
	err := paginate(q, f.Page).Order("created_at DESC").Order("id DESC").Find(&reports).Error
	return reports, err
}

func (s *gormStore) GetReport(ctx context.Context, id int64) (*model.UserReport, error) {
	var r model.UserReport
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, wrap(err, "report", id)
	}
	return &r, nil
}

func (s *gormStore) GetReportByTrackingID(ctx context.Context, trackingID string) (*model.UserReport, error) {
	var r model.UserReport
	if err := s.db.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&r).Error; err != nil {
		return nil, wrap(err, "report", trackingID)
	}
	return &r, nil
}

func (s *gormStore) CreateReport(ctx context.Context, r *model.UserReport) error {
	if r.Status == "" {
		r.Status = model.ReportPending
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.DisasterID != nil {
			if err := mustExist[model.Disaster](tx, "disaster", *r.DisasterID); err != nil {
				return err
			}
		}
		return wrap(tx.Create(r).Error, "report", r.TrackingID)
	})
}

// UpdateReport saves the reporter-editable fields; status and review notes are
// only changed through ReviewReport.
func (s *gormStore) UpdateReport(ctx context.Context, r *model.UserReport) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.UserReport](tx, "report", r.ID); err != nil {
			return err
		}
		if r.DisasterID != nil {
			if err := mustExist[model.Disaster](tx, "disaster", *r.DisasterID); err != nil {
				return err
			}
		}
		return tx.Model(r).
			Select("disaster_id", "reporter_name", "reporter_contact", "category", "description", "latitude", "longitude").
			Updates(r).Error
	})
}

func (s *gormStore) DeleteReport(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.UserReport{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: report %d", ErrNotFound, id)
	}
	return nil
}

// ReviewReport moves a report along pending -> verified|rejected -> resolved.
// A verified report may be linked to a disaster at the same time.
func (s *gormStore) ReviewReport(ctx context.Context, id int64, status, notes string, disasterID *int64) (*model.UserReport, error) {
	var r model.UserReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error; err != nil {
			return wrap(err, "report", id)
		}
		if !model.CanTransition(r.Status, status) {
			return fmt.Errorf("%w: report %d cannot move from %s to %s", ErrConflict, id, r.Status, status)
		}

		updates := map[string]any{"status": status}
		if notes != "" {
			updates["review_notes"] = notes
			r.ReviewNotes = notes
		}
		if disasterID != nil {
			if err := mustExist[model.Disaster](tx, "disaster", *disasterID); err != nil {
				return err
			}
			updates["disaster_id"] = *disasterID
			r.DisasterID = disasterID
		}
		r.Status = status
		return tx.Model(&r).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
