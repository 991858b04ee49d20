package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint     string    `gorm:"primaryKey;size:512"`
	P256DH       string    `gorm:"column:p256dh;not null"`
	Auth         string    `gorm:"not null"`
	AllDisasters bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`

	// Associations
	Disasters []*Disaster `gorm:"many2many:subscription_disaster_mapping;"`
}
