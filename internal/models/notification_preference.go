package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationPreference represents user notification preferences
type NotificationPreference struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"userId"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PushEnabled bool `gorm:"column:push_enabled;default:true" json:"pushEnabled"`

	// Push when a booking moves to its next stage.
	StageAlerts bool `gorm:"column:stage_alerts;default:true" json:"stageAlerts"`

	// Push when another session or an automation changes a booking.
	SyncAlerts bool `gorm:"column:sync_alerts;default:false" json:"syncAlerts"`

	EmailEnabled bool `gorm:"column:email_enabled;default:true" json:"emailEnabled"`
}

// TableName specifies the table name for NotificationPreference
func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences returns default notification preferences for a new user
func DefaultPreferences(userID uint) *NotificationPreference {
	return &NotificationPreference{
		UserID:       userID,
		PushEnabled:  true,
		StageAlerts:  true,
		SyncAlerts:   false,
		EmailEnabled: true,
	}
}

// WantsStageAlerts reports whether a stage-advance push should be sent.
func (p *NotificationPreference) WantsStageAlerts() bool {
	return p.PushEnabled && p.StageAlerts
}
