package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscribers are notified when a followed session is marked complete.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Sessions []*CalibrationSession `gorm:"many2many:subscription_session_mapping;constraint:OnDelete:CASCADE"`
}
