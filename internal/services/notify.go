package services

import (
	"context"
	"errors"
	"log"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"github.com/chachabrian/tourbook-backend/pkg/utils"
	"gorm.io/gorm"
)

// StageNotifier tells a booking's owner about stage advances and, when they
// opt in, about changes that arrived from elsewhere.
type StageNotifier struct {
	db     *gorm.DB
	source BookingSource

	push  func(ctx context.Context, token string, payload NotificationPayload) error
	email func(ownerEmail, venueName, stageLabel, nextStep string) error
	ready func() bool
}

func NewStageNotifier(db *gorm.DB, source BookingSource) *StageNotifier {
	return &StageNotifier{
		db:     db,
		source: source,
		push:   SendNotificationToToken,
		email:  utils.SendStageAdvancedEmail,
		ready:  utils.EmailConfigured,
	}
}

func (n *StageNotifier) recipient(ownerID uint) (models.User, models.NotificationPreference, error) {
	var user models.User
	if err := n.db.First(&user, ownerID).Error; err != nil {
		return user, models.NotificationPreference{}, err
	}
	var prefs models.NotificationPreference
	err := n.db.Where("user_id = ?", ownerID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, *models.DefaultPreferences(ownerID), nil
	}
	return user, prefs, err
}

// BookingAdvanced runs after a completed action has been saved.
func (n *StageNotifier) BookingAdvanced(ctx context.Context, booking models.Booking, from workflow.Stage) {
	user, prefs, err := n.recipient(booking.OwnerID)
	if err != nil {
		log.Printf("[WORKFLOW] stage alert for booking %s skipped: %v", booking.ID, err)
		return
	}

	if prefs.WantsStageAlerts() && user.FCMToken != "" && n.push != nil {
		if err := n.push(ctx, user.FCMToken, BookingAdvancedPayload(booking, from)); err != nil {
			log.Printf("[WORKFLOW] push for booking %s failed: %v", booking.ID, err)
		}
	}
	if prefs.EmailEnabled && n.ready() {
		next := booking.NextAction()
		if err := n.email(user.Email, booking.VenueName, booking.Stage.Label(), next.Label); err != nil {
			log.Printf("[WORKFLOW] stage email for booking %s failed: %v", booking.ID, err)
		}
	}
}

// BookingSynced pushes a reconciled change to owners who asked for sync
// alerts. Other store events are ignored.
func (n *StageNotifier) BookingSynced(ownerID uint, event bookings.StoreEvent) {
	if event.Kind != bookings.EventReconciled || event.BookingID == "" {
		return
	}
	user, prefs, err := n.recipient(ownerID)
	if err != nil || !prefs.PushEnabled || !prefs.SyncAlerts || user.FCMToken == "" {
		return
	}

	ctx := context.Background()
	list, err := n.source.Bookings(ctx, ownerID)
	if err != nil {
		return
	}
	for _, b := range list {
		if b.ID != event.BookingID {
			continue
		}
		payload := NotificationPayload{
			Title: b.VenueName + " updated",
			Body:  "Now at " + b.Stage.Label() + ".",
			Tag:   "booking_" + b.ID,
			Data: map[string]interface{}{
				"type":      "booking_synced",
				"bookingId": b.ID,
				"stage":     string(b.Stage),
			},
		}
		if err := n.push(ctx, user.FCMToken, payload); err != nil {
			log.Printf("[FEED] sync alert for booking %s failed: %v", b.ID, err)
		}
		return
	}
}
