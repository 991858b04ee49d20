package model

import "time"

// Volunteer availability values.
const (
	VolunteerAvailable   = "available"
	VolunteerAssigned    = "assigned"
	VolunteerUnavailable = "unavailable"
)

// Assignment status values.
const (
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentCancelled = "cancelled"
)

// Volunteer is a registered helper who can be assigned to one disaster at a time.
type Volunteer struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone        string    `gorm:"size:32" json:"phone"`
	Skills       string    `gorm:"size:512" json:"skills"`
	Availability string    `gorm:"size:16;not null;index;default:available" json:"availability"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VolunteerAssignment links a volunteer to a disaster with a role and status.
//
// ActiveVolunteerID mirrors VolunteerID while the assignment is active and is
// NULL otherwise; its unique index allows at most one active assignment per volunteer.
type VolunteerAssignment struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	VolunteerID       int64      `gorm:"not null;index" json:"volunteer_id"`
	DisasterID        int64      `gorm:"not null;index" json:"disaster_id"`
	Role              string     `gorm:"size:100;not null" json:"role"`
	Status            string     `gorm:"size:16;not null;index" json:"status"`
	ActiveVolunteerID *int64     `gorm:"uniqueIndex" json:"-"`
	AssignedAt        time.Time  `gorm:"not null" json:"assigned_at"`
	EndedAt           *time.Time `json:"ended_at"`

	Volunteer *Volunteer `gorm:"constraint:OnDelete:CASCADE" json:"volunteer,omitempty"`
	Disaster  *Disaster  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
