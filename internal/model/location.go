package model

import "time"

// Location is a geocoded place, stored under the normalized search query that found it.
type Location struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	Query     string    `gorm:"size:255;not null;index" json:"-"`
	Name      string    `gorm:"size:512;not null" json:"name"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Source    string    `gorm:"size:32" json:"source"`
	CreatedAt time.Time `json:"-"`
}
