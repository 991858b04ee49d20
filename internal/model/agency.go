package model

import "time"

// Activation status values.
const (
	ActivationActive    = "active"
	ActivationStoodDown = "stood_down"
)

// Agency is a partner organisation that is activated once a disaster reaches its tier.
type Agency struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Type           string    `gorm:"size:32;not null" json:"type"`
	ContactEmail   string    `gorm:"size:255" json:"contact_email"`
	ContactPhone   string    `gorm:"size:32" json:"contact_phone"`
	ActivationTier int       `gorm:"not null;default:3" json:"activation_tier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Resources []AgencyResource `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"resources,omitempty"`
}

// AgencyResource is capacity an agency can bring to a disaster.
type AgencyResource struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	AgencyID  int64     `gorm:"not null;index" json:"agency_id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Category  string    `gorm:"size:32;not null" json:"category"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	Unit      string    `gorm:"size:32" json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgencyActivation records that an agency has been called up for a disaster.
type AgencyActivation struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	AgencyID    int64      `gorm:"not null;uniqueIndex:idx_activation_agency_disaster" json:"agency_id"`
	DisasterID  int64      `gorm:"not null;uniqueIndex:idx_activation_agency_disaster;index" json:"disaster_id"`
	Status      string     `gorm:"size:16;not null" json:"status"`
	Tier        int        `gorm:"not null" json:"tier"`
	ActivatedAt time.Time  `gorm:"not null" json:"activated_at"`
	StoodDownAt *time.Time `json:"stood_down_at"`

	Agency *Agency `gorm:"constraint:OnDelete:CASCADE" json:"agency,omitempty"`
}
