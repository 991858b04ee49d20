package model

import "time"

// Supply categories shared by relief supplies and agency resources.
const (
	CategoryFood    = "food"
	CategoryWater   = "water"
	CategoryMedical = "medical"
	CategoryHygiene = "hygiene"
	CategoryShelter = "shelter"
	CategoryOther   = "other"
)

// ReliefSupply is a stock of goods held for a disaster or shelter.
type ReliefSupply struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	DisasterID   *int64     `gorm:"index" json:"disaster_id"`
	ShelterID    *int64     `gorm:"index" json:"shelter_id"`
	Name         string     `gorm:"size:200;not null" json:"name"`
	Category     string     `gorm:"size:32;not null;index" json:"category"`
	Quantity     int        `gorm:"not null;default:0" json:"quantity"`
	Unit         string     `gorm:"size:32" json:"unit"`
	ReorderLevel int        `gorm:"not null;default:0" json:"reorder_level"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// LowStock reports whether the supply is at or below its reorder level.
func (s *ReliefSupply) LowStock() bool {
	return s.Quantity <= s.ReorderLevel
}
