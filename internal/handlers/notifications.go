package handlers

import (
	"context"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterFCMToken registers or updates a user's FCM token
func RegisterFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			FCMToken string `json:"fcmToken" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", input.FCMToken).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to register FCM token"})
			return
		}

		c.JSON(200, gin.H{"message": "FCM token registered successfully"})
	}
}

// RemoveFCMToken removes a user's FCM token
func RemoveFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		if err := db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", "").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove FCM token"})
			return
		}

		c.JSON(200, gin.H{
			"message": "FCM token removed successfully",
		})
	}
}

// TestNotification sends a test notification to the current user
func TestNotification(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to get user information"})
			return
		}

		if user.FCMToken == "" {
			c.JSON(400, gin.H{"error": "No FCM token registered for this user"})
			return
		}

		payload := services.NotificationPayload{
			Title: "Test Notification",
			Body:  "This is a test notification from Tourbook",
			Data: map[string]interface{}{
				"type":   "test",
				"userId": userID,
			},
		}

		if err := services.SendNotificationToToken(context.Background(), user.FCMToken, payload); err != nil {
			c.JSON(500, gin.H{"error": "Failed to send test notification", "details": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": "Test notification sent successfully",
		})
	}
}
