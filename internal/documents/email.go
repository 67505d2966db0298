package documents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/chachabrian/tourbook-backend/internal/dispatch"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// EmailComposer drafts a venue email on open and sends it on completion.
// With no mailer the draft is only shown to the user.
type EmailComposer struct {
	mailer Mailer
	artist string
}

func NewEmailComposer(mailer Mailer, artist string) *EmailComposer {
	return &EmailComposer{mailer: mailer, artist: safe(artist, "our artist")}
}

func (e *EmailComposer) Kind() workflow.DialogKind { return workflow.DialogEmailComposer }

func (e *EmailComposer) Open(ctx context.Context, payload dispatch.Payload) (dispatch.Document, error) {
	b := payload.Booking
	doc := dispatch.Document{
		Kind:  workflow.DialogEmailComposer,
		Title: payload.Action.Label,
		To:    b.VenueEmail,
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s team,\n\n", safe(b.VenueName, "venue"))
	if payload.Stage == workflow.StageIntro {
		doc.Subject = fmt.Sprintf("Booking offer: %s at %s", e.artist, safe(b.VenueName, "your venue"))
		fmt.Fprintf(&body, "We would like to offer %s for a show at %s.\n\n", e.artist, safe(b.VenueName, "your venue"))
		fmt.Fprintf(&body, "Date: %s\nTime: %s\nGuarantee: %s\n\n", eventDate(b), eventTime(b), formatMoney(b.OfferAmount))
		body.WriteString("Let us know if these terms work and we will follow up with a contract.\n\n")
	} else {
		doc.Subject = fmt.Sprintf("Following up: %s at %s", e.artist, safe(b.VenueName, "your venue"))
		fmt.Fprintf(&body, "Following up on %s's show on %s.\n\n", e.artist, eventDate(b))
		body.WriteString("Please reach out with any questions about the booking.\n\n")
	}
	if b.Notes != nil && strings.TrimSpace(*b.Notes) != "" {
		fmt.Fprintf(&body, "Notes: %s\n\n", strings.TrimSpace(*b.Notes))
	}
	body.WriteString("Best regards,\n" + e.artist)
	doc.Body = body.String()
	return doc, nil
}

// Finish sends the drafted email when a mailer and a venue address exist.
func (e *EmailComposer) Finish(ctx context.Context, inv dispatch.Invocation) error {
	doc := inv.Document
	if e.mailer == nil || strings.TrimSpace(doc.To) == "" {
		log.Printf("[WORKFLOW] booking %s: email not sent (no mailer or venue address)", inv.Payload.BookingID)
		return nil
	}
	if err := e.mailer.SendVenueEmail(doc.To, doc.Subject, doc.Body); err != nil {
		return fmt.Errorf("send venue email: %w", err)
	}
	return nil
}
