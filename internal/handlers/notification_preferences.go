package handlers

import (
	"errors"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// loadPreferences returns the user's preferences, creating the defaults on
// first access.
func loadPreferences(db *gorm.DB, userID uint) (models.NotificationPreference, error) {
	var preferences models.NotificationPreference
	err := db.Where("user_id = ?", userID).First(&preferences).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		preferences = *models.DefaultPreferences(userID)
		err = db.Create(&preferences).Error
	}
	return preferences, err
}

// GetNotificationPreferences retrieves user's notification preferences
func GetNotificationPreferences(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		preferences, err := loadPreferences(db, userID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch preferences"})
			return
		}

		c.JSON(200, preferences)
	}
}

// UpdateNotificationPreferences updates user's notification preferences
func UpdateNotificationPreferences(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			PushEnabled  *bool `json:"pushEnabled"`
			StageAlerts  *bool `json:"stageAlerts"`
			SyncAlerts   *bool `json:"syncAlerts"`
			EmailEnabled *bool `json:"emailEnabled"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		preferences, err := loadPreferences(db, userID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch preferences"})
			return
		}

		// Update only provided fields
		if input.PushEnabled != nil {
			preferences.PushEnabled = *input.PushEnabled
		}
		if input.StageAlerts != nil {
			preferences.StageAlerts = *input.StageAlerts
		}
		if input.SyncAlerts != nil {
			preferences.SyncAlerts = *input.SyncAlerts
		}
		if input.EmailEnabled != nil {
			preferences.EmailEnabled = *input.EmailEnabled
		}

		if err := db.Save(&preferences).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update preferences"})
			return
		}

		c.JSON(200, gin.H{
			"message":     "Preferences updated successfully",
			"preferences": preferences,
		})
	}
}
