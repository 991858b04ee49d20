package model

import "time"

// Disaster status values.
const (
	DisasterActive    = "active"
	DisasterContained = "contained"
	DisasterResolved  = "resolved"
)

// Severity values, ordered from least to most severe.
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Tier bounds.
const (
	MinTier = 1
	MaxTier = 4
)

var severityRank = map[string]int{
	SeverityLow:      1,
	SeverityModerate: 2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// SeverityRank orders severities; unknown values rank 0.
func SeverityRank(severity string) int {
	return severityRank[severity]
}

// Disaster is a tracked incident and the anchor for most other records.
type Disaster struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"size:200;not null" json:"name"`
	Type               string     `gorm:"size:32;not null;index" json:"type"`
	Status             string     `gorm:"size:16;not null;index;default:active" json:"status"`
	Severity           string     `gorm:"size:16;not null" json:"severity"`
	Description        string     `gorm:"type:text" json:"description"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	LocationName       string     `gorm:"size:255" json:"location_name"`
	AffectedPopulation int64      `gorm:"not null;default:0" json:"affected_population"`
	Casualties         int        `gorm:"not null;default:0" json:"casualties"`
	Tier               int        `gorm:"not null;default:1;index" json:"tier"`
	StartedAt          time.Time  `gorm:"not null" json:"started_at"`
	ResolvedAt         *time.Time `json:"resolved_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsOpen reports whether the disaster still accepts assignments and escalations.
func (d *Disaster) IsOpen() bool {
	return d.Status != DisasterResolved
}
