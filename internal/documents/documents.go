// Package documents holds the dialogs the dispatcher opens for each stage:
// the venue email composer and the contract, invoice and event asset
// generators.
package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
)

// Uploader stores a rendered document and returns where it can be fetched.
type Uploader interface {
	SaveDocument(ctx context.Context, folder, filename, contentType string, data []byte) (string, error)
}

// Mailer sends a plain-text message to a venue.
type Mailer interface {
	SendVenueEmail(to, subject, message string) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(to, subject, message string) error

func (f MailerFunc) SendVenueEmail(to, subject, message string) error { return f(to, subject, message) }

const pdfContentType = "application/pdf"

func safe(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func eventDate(b models.Booking) string {
	if b.EventDate.IsZero() {
		return "TBD"
	}
	return b.EventDate.Format("Monday, January 2, 2006")
}

func eventTime(b models.Booking) string {
	return safe(b.EventTime, "TBD")
}

func venuePlace(b models.Booking) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{b.VenueCity, b.VenueState} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return safe(b.VenueLocation, "-")
	}
	return strings.Join(parts, ", ")
}

func formatMoney(v float64) string {
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}
	s := fmt.Sprintf("%d", whole)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return fmt.Sprintf("$%s.%02d", out, cents)
}

func safeFilenamePart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "booking"
	}
	return b.String()
}

func documentNumber(prefix string, b models.Booking, now time.Time) string {
	id := strings.ReplaceAll(b.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(id))
}
