package views

import (
	"strings"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// matchesQuery does case-insensitive substring matching across the venue
// fields and notes. An empty query matches everything.
func matchesQuery(b models.Booking, query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)

	fields := []string{b.VenueName, b.VenueLocation, b.VenueCity, b.VenueState, b.VenueEmail}
	if b.Notes != nil {
		fields = append(fields, *b.Notes)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// matchesSession applies the query and bucket filters. The stage filter is
// applied separately because the list counts ignore it.
func matchesSession(b models.Booking, session Session, now time.Time) bool {
	if !matchesQuery(b, session.Query) {
		return false
	}
	return workflow.MatchesBucket(b.Facts(), session.Bucket, now)
}
