package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK. An empty path leaves push
// notifications disabled.
func InitFirebase(ctx context.Context, serviceAccountPath string) error {
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %w", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"` // Android notification channel
	Priority  string                 `json:"priority,omitempty"`  // high, normal
	Tag       string                 `json:"tag,omitempty"`       // Android notification tag
}

// getAndroidConfig returns Android-specific notification configuration
func getAndroidConfig(payload NotificationPayload) *messaging.AndroidConfig {
	channelID := payload.ChannelID
	if channelID == "" {
		channelID = "tourbook_bookings"
	}

	priority := messaging.PriorityHigh
	if payload.Priority == "normal" {
		priority = messaging.PriorityDefault
	}

	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:        "default",
			ChannelID:    channelID,
			Priority:     priority,
			DefaultSound: true,
			Icon:         "ic_stat_logo",
			Color:        "#6C3FC5",
			Tag:          payload.Tag,
		},
	}
}

// getAPNSConfig returns iOS-specific notification configuration
func getAPNSConfig() *messaging.APNSConfig {
	badge := 1
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:          "default",
				Badge:          &badge,
				MutableContent: true,
			},
		},
	}
}

// stringData converts the data map to the string map FCM requires.
func stringData(data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = v
		case int, int64, uint, float64, bool:
			out[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				log.Printf("Error marshaling data for key %s: %v", key, err)
				continue
			}
			out[key] = string(jsonData)
		}
	}
	return out
}

func buildMessage(token string, payload NotificationPayload) *messaging.Message {
	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:    stringData(payload.Data),
		Token:   token,
		Android: getAndroidConfig(payload),
		APNS:    getAPNSConfig(),
	}
}

// SendNotificationToToken sends a notification to a specific FCM token
func SendNotificationToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notification.")
		return nil
	}

	response, err := MessagingClient.Send(ctx, buildMessage(token, payload))
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	log.Printf("Successfully sent notification, response: %s", response)
	return nil
}

// BookingAdvancedPayload describes a booking that moved forward one stage.
func BookingAdvancedPayload(booking models.Booking, from workflow.Stage) NotificationPayload {
	next := booking.NextAction()
	return NotificationPayload{
		Title: fmt.Sprintf("%s: %s", booking.VenueName, booking.Stage.Label()),
		Body:  fmt.Sprintf("Moved from %s. Next: %s.", from.Label(), next.Label),
		Tag:   "booking_" + booking.ID,
		Data: map[string]interface{}{
			"type":           "booking_advanced",
			"bookingId":      booking.ID,
			"from":           string(from),
			"stage":          string(booking.Stage),
			"nextAction":     next.Label,
			"notificationId": fmt.Sprintf("booking_advanced_%s_%s", booking.ID, booking.Stage),
		},
	}
}

// SendBookingAdvancedNotification pushes a stage advance to the owner's device.
func SendBookingAdvancedNotification(ctx context.Context, token string, booking models.Booking, from workflow.Stage) error {
	if token == "" {
		return nil
	}
	return SendNotificationToToken(ctx, token, BookingAdvancedPayload(booking, from))
}
