package services

import (
	"context"
	"testing"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

func TestBookingAdvancedPayload(t *testing.T) {
	b := models.Booking{ID: "b1", VenueName: "The Fillmore", Stage: workflow.StageOffer}
	p := BookingAdvancedPayload(b, workflow.StageIntro)

	if p.Title != "The Fillmore: Offer" {
		t.Fatalf("title = %q", p.Title)
	}
	if p.Body != "Moved from Introduction. Next: Send Contract." {
		t.Fatalf("body = %q", p.Body)
	}

	msg := buildMessage("token-1", p)
	if msg.Data["bookingId"] != "b1" || msg.Data["stage"] != "offer" || msg.Data["from"] != "intro" {
		t.Fatalf("data = %v", msg.Data)
	}
	if msg.Android.Notification.Tag != "booking_b1" {
		t.Fatalf("tag = %q", msg.Android.Notification.Tag)
	}
}

func TestStringData(t *testing.T) {
	got := stringData(map[string]interface{}{
		"count": 3,
		"ok":    true,
		"ids":   []string{"a", "b"},
	})
	if got["count"] != "3" || got["ok"] != "true" || got["ids"] != `["a","b"]` {
		t.Fatalf("stringData = %v", got)
	}
}

func TestSendWithoutFirebaseIsNoop(t *testing.T) {
	MessagingClient = nil
	b := models.Booking{ID: "b1", VenueName: "Roxy", Stage: workflow.StageInvoice}
	if err := SendBookingAdvancedNotification(context.Background(), "token", b, workflow.StageContract); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
