package models

import (
	"strings"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusActive   BookingStatus = "active"
	BookingStatusInactive BookingStatus = "inactive"
)

// Booking is a venue booking owned by exactly one user.
type Booking struct {
	ID      string `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID uint   `json:"ownerId" gorm:"column:owner_id;not null;index"`

	VenueName     string `json:"venueName" gorm:"column:venue_name;not null"`
	VenueLocation string `json:"venueLocation" gorm:"column:venue_location"`
	VenueCity     string `json:"venueCity" gorm:"column:venue_city"`
	VenueState    string `json:"venueState" gorm:"column:venue_state"`
	VenueEmail    string `json:"venueEmail" gorm:"column:venue_email"`

	EventDate   time.Time `json:"eventDate" gorm:"column:event_date;type:date"`
	EventTime   string    `json:"eventTime" gorm:"column:event_time"`
	OfferAmount float64   `json:"offerAmount" gorm:"column:offer_amount;not null;default:0;check:offer_amount >= 0"`

	Status BookingStatus  `json:"status" gorm:"column:status;not null;default:'active'"`
	Stage  workflow.Stage `json:"stage" gorm:"column:stage;not null;default:'intro';index"`
	Notes  *string        `json:"notes,omitempty" gorm:"column:notes"`

	// Produced by the recommendation service; never written here.
	MatchScore     *int    `json:"matchScore,omitempty" gorm:"column:match_score"`
	MatchReasoning *string `json:"matchReasoning,omitempty" gorm:"column:match_reasoning"`

	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime;<-:create"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate assigns an id and the initial stage for intake records.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Stage == "" {
		b.Stage = workflow.InitialStage
	}
	if b.Status == "" {
		b.Status = BookingStatusActive
	}
	return b.Validate()
}

// Validate checks the invariants a stored booking must satisfy.
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.VenueName) == "" {
		return ValidationError{Field: "venueName", Msg: "is required"}
	}
	if b.OfferAmount < 0 {
		return ValidationError{Field: "offerAmount", Msg: "must not be negative"}
	}
	if b.Stage != "" && !b.Stage.Valid() {
		return ValidationError{Field: "stage", Msg: "unknown stage " + string(b.Stage)}
	}
	if b.MatchScore != nil && (*b.MatchScore < 0 || *b.MatchScore > 100) {
		return ValidationError{Field: "matchScore", Msg: "must be between 0 and 100"}
	}
	switch b.Status {
	case "", BookingStatusActive, BookingStatusInactive:
	default:
		return ValidationError{Field: "status", Msg: "unknown status " + string(b.Status)}
	}
	return nil
}

// IsActive reports the coarse status flag.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// Facts extracts what the bucket rules need.
func (b *Booking) Facts() workflow.Facts {
	return workflow.Facts{Stage: b.Stage, Active: b.IsActive(), EventDate: b.EventDate}
}

// Buckets lists the derived status buckets at time now.
func (b *Booking) Buckets(now time.Time) []workflow.Bucket {
	return workflow.BucketsFor(b.Facts(), now)
}

// NextAction is the action owed at the booking's current stage.
func (b *Booking) NextAction() workflow.Action {
	return workflow.NextActionFor(b.Stage)
}

// Clone returns a deep copy so callers cannot alias store state.
func (b Booking) Clone() Booking {
	out := b
	if b.Notes != nil {
		notes := *b.Notes
		out.Notes = &notes
	}
	if b.MatchScore != nil {
		score := *b.MatchScore
		out.MatchScore = &score
	}
	if b.MatchReasoning != nil {
		reasoning := *b.MatchReasoning
		out.MatchReasoning = &reasoning
	}
	return out
}

// Equal reports whether two copies hold the same record. Times compare by
// instant so a copy decoded from the change feed matches the one read from
// the database.
func (b Booking) Equal(o Booking) bool {
	return b.ID == o.ID &&
		b.OwnerID == o.OwnerID &&
		b.VenueName == o.VenueName &&
		b.VenueLocation == o.VenueLocation &&
		b.VenueCity == o.VenueCity &&
		b.VenueState == o.VenueState &&
		b.VenueEmail == o.VenueEmail &&
		b.EventDate.Equal(o.EventDate) &&
		b.EventTime == o.EventTime &&
		b.OfferAmount == o.OfferAmount &&
		b.Status == o.Status &&
		b.Stage == o.Stage &&
		equalPtr(b.Notes, o.Notes) &&
		equalPtr(b.MatchScore, o.MatchScore) &&
		equalPtr(b.MatchReasoning, o.MatchReasoning) &&
		b.CreatedAt.Equal(o.CreatedAt) &&
		b.UpdatedAt.Equal(o.UpdatedAt)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// BookingPatch is a partial update sent to the record store. Nil fields are
// left alone.
type BookingPatch struct {
	Stage         *workflow.Stage `json:"stage,omitempty"`
	Status        *BookingStatus  `json:"status,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	VenueLocation *string         `json:"venueLocation,omitempty"`
	VenueEmail    *string         `json:"venueEmail,omitempty"`
	EventDate     *time.Time      `json:"eventDate,omitempty"`
	EventTime     *string         `json:"eventTime,omitempty"`
	OfferAmount   *float64        `json:"offerAmount,omitempty"`
}

// Validate rejects patches that would break a booking invariant.
func (p BookingPatch) Validate() error {
	if p.Stage != nil && !p.Stage.Valid() {
		return ValidationError{Field: "stage", Msg: "unknown stage " + string(*p.Stage)}
	}
	if p.OfferAmount != nil && *p.OfferAmount < 0 {
		return ValidationError{Field: "offerAmount", Msg: "must not be negative"}
	}
	if p.Status != nil && *p.Status != BookingStatusActive && *p.Status != BookingStatusInactive {
		return ValidationError{Field: "status", Msg: "unknown status " + string(*p.Status)}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p BookingPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Columns maps the patch onto column updates.
func (p BookingPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Stage != nil {
		cols["stage"] = *p.Stage
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	if p.VenueLocation != nil {
		cols["venue_location"] = *p.VenueLocation
	}
	if p.VenueEmail != nil {
		cols["venue_email"] = *p.VenueEmail
	}
	if p.EventDate != nil {
		cols["event_date"] = *p.EventDate
	}
	if p.EventTime != nil {
		cols["event_time"] = *p.EventTime
	}
	if p.OfferAmount != nil {
		cols["offer_amount"] = *p.OfferAmount
	}
	return cols
}
