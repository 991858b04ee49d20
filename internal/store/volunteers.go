package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relief-ops-backend/internal/model"
)

func (s *gormStore) ListVolunteers(ctx context.Context, f VolunteerFilter) ([]model.Volunteer, error) {
	q := s.db.WithContext(ctx).Model(&model.Volunteer{})
	if f.Availability != "" {
		q = q.Where("availability = ?", f.Availability)
	}
	var volunteers []model.Volunteer
	err := paginate(q, f.Page).Order("id").Find(&volunteers).Error
	return volunteers, err
}

func (s *gormStore) GetVolunteer(ctx context.Context, id int64) (*model.Volunteer, error) {
	var v model.Volunteer
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, wrap(err, "volunteer", id)
	}
	return &v, nil
}

func (s *gormStore) CreateVolunteer(ctx context.Context, v *model.Volunteer) error {
	if v.Availability == "" {
		v.Availability = model.VolunteerAvailable
	}
	return wrap(s.db.WithContext(ctx).Create(v).Error, "volunteer", v.Email)
}

// UpdateVolunteer saves profile changes. Availability cannot be moved away from
// "assigned" here; ending the active assignment does that.
func (s *gormStore) UpdateVolunteer(ctx context.Context, v *model.Volunteer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Volunteer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, v.ID).Error; err != nil {
			return wrap(err, "volunteer", v.ID)
		}
		if current.Availability == model.VolunteerAssigned && v.Availability != model.VolunteerAssigned {
			return fmt.Errorf("%w: volunteer %d has an active assignment", ErrConflict, v.ID)
		}
		if current.Availability != model.VolunteerAssigned && v.Availability == model.VolunteerAssigned {
			return fmt.Errorf("%w: availability %q is managed by assignments", ErrInvalid, v.Availability)
		}
		v.CreatedAt = current.CreatedAt
		return wrap(tx.Save(v).Error, "volunteer", v.Email)
	})
}

func (s *gormStore) DeleteVolunteer(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist[model.Volunteer](tx, "volunteer", id); err != nil {
			return err
		}
		var active int64
		if err := tx.Model(&model.VolunteerAssignment{}).
			Where("volunteer_id = ? AND status = ?", id, model.AssignmentActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: volunteer %d has an active assignment", ErrConflict, id)
		}
		if err := tx.Where("volunteer_id = ?", id).Delete(&model.VolunteerAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Volunteer{}, id).Error
	})
}

// AssignVolunteer creates an active assignment. The volunteer row is locked for
// the duration of the transaction and the unique index on active_volunteer_id
// rejects any second active assignment that slips past the check.
func (s *gormStore) AssignVolunteer(ctx context.Context, volunteerID, disasterID int64, role string, now time.Time) (*model.VolunteerAssignment, error) {
	var assignment model.VolunteerAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var volunteer model.Volunteer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&volunteer, volunteerID).Error; err != nil {
			return wrap(err, "volunteer", volunteerID)
		}
		if volunteer.Availability == model.VolunteerUnavailable {
			return fmt.Errorf("%w: volunteer %d is unavailable", ErrConflict, volunteerID)
		}

		var disaster model.Disaster
		if err := tx.First(&disaster, disasterID).Error; err != nil {
			return wrap(err, "disaster", disasterID)
		}
		if !disaster.IsOpen() {
			return fmt.Errorf("%w: disaster %d is resolved", ErrConflict, disasterID)
		}

		var active int64
		if err := tx.Model(&model.VolunteerAssignment{}).
			Where("volunteer_id = ? AND status = ?", volunteerID, model.AssignmentActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: volunteer %d already has an active assignment", ErrConflict, volunteerID)
		}

		activeID := volunteerID
		assignment = model.VolunteerAssignment{
			VolunteerID:       volunteerID,
			DisasterID:        disasterID,
			Role:              role,
			Status:            model.AssignmentActive,
			ActiveVolunteerID: &activeID,
			AssignedAt:        now,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: volunteer %d already has an active assignment", ErrConflict, volunteerID)
			}
			return err
		}
		return tx.Model(&volunteer).Update("availability", model.VolunteerAssigned).Error
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// EndAssignment moves an active assignment to completed or cancelled and frees the volunteer.
func (s *gormStore) EndAssignment(ctx context.Context, id int64, status string, now time.Time) (*model.VolunteerAssignment, error) {
	if status != model.AssignmentCompleted && status != model.AssignmentCancelled {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrInvalid, model.AssignmentCompleted, model.AssignmentCancelled)
	}

	var assignment model.VolunteerAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&assignment, id).Error; err != nil {
			return wrap(err, "assignment", id)
		}
		if assignment.Status != model.AssignmentActive {
			return fmt.Errorf("%w: assignment %d is already %s", ErrConflict, id, assignment.Status)
		}

		if err := tx.Model(&assignment).Updates(map[string]any{
			"status":              status,
			"ended_at":            now,
			"active_volunteer_id": nil,
		}).Error; err != nil {
			return err
		}
		assignment.Status = status
		assignment.EndedAt = &now
		assignment.ActiveVolunteerID = nil

		return tx.Model(&model.Volunteer{}).
			Where("id = ? AND availability = ?", assignment.VolunteerID, model.VolunteerAssigned).
			Update("availability", model.VolunteerAvailable).Error
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (s *gormStore) ListAssignments(ctx context.Context, f AssignmentFilter) ([]model.VolunteerAssignment, error) {
	q := s.db.WithContext(ctx).Model(&model.VolunteerAssignment{}).Preload("Volunteer")
	if f.VolunteerID != nil {
		q = q.Where("volunteer_id = ?", *f.VolunteerID)
	}
	if f.DisasterID != nil {
		q = q.Where("disaster_id = ?", *f.DisasterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var assignments []model.VolunteerAssignment
	err := paginate(q, f.Page).Order("assigned_at DESC").Order("id DESC").Find(&assignments).Error
	return assignments, err
}
