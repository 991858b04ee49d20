package model

import "time"

// Report status values.
const (
	ReportPending  = "pending"
	ReportVerified = "verified"
	ReportRejected = "rejected"
	ReportResolved = "resolved"
)

// UserReport is a citizen-submitted observation from the public portal.
type UserReport struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	TrackingID      string    `gorm:"size:36;not null;uniqueIndex" json:"tracking_id"`
	DisasterID      *int64    `gorm:"index" json:"disaster_id"`
	ReporterName    string    `gorm:"size:200" json:"reporter_name"`
	ReporterContact string    `gorm:"size:255" json:"reporter_contact"`
	Category        string    `gorm:"size:32;not null;index" json:"category"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Status          string    `gorm:"size:16;not null;index" json:"status"`
	ReviewNotes     string    `gorm:"type:text" json:"review_notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var reportTransitions = map[string][]string{
	ReportPending:  {ReportVerified, ReportRejected},
	ReportVerified: {ReportResolved},
}

// CanTransition reports whether a report may move from one review status to another.
func CanTransition(from, to string) bool {
	for _, next := range reportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
