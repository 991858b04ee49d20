package model

import "time"

// Shelter status values.
const (
	ShelterOpen   = "open"
	ShelterFull   = "full"
	ShelterClosed = "closed"
)

// Shelter is a physical facility with a capacity and current occupancy.
type Shelter struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	DisasterID       *int64    `gorm:"index" json:"disaster_id"`
	Name             string    `gorm:"size:200;not null" json:"name"`
	Address          string    `gorm:"size:255" json:"address"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Capacity         int       `gorm:"not null" json:"capacity"`
	CurrentOccupancy int       `gorm:"not null;default:0" json:"current_occupancy"`
	Status           string    `gorm:"size:16;not null;index;default:open" json:"status"`
	ContactPhone     string    `gorm:"size:32" json:"contact_phone"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DerivedStatus returns the status implied by occupancy. Closed shelters stay closed.
func (s *Shelter) DerivedStatus() string {
	if s.Status == ShelterClosed {
		return ShelterClosed
	}
	if s.CurrentOccupancy >= s.Capacity {
		return ShelterFull
	}
	return ShelterOpen
}
