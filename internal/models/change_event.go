package models

import "context"

// ChangeKind is the kind of row change carried by the change feed.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent is one notification from the change feed. For deletes only
// Record.ID is meaningful.
type ChangeEvent struct {
	Table     string     `json:"table"`
	EventType ChangeKind `json:"eventType"`
	OwnerID   uint       `json:"ownerId"`
	Record    Booking    `json:"record"`
	// Origin is set when the owner's own request made the change.
	Origin ChangeOrigin `json:"origin,omitempty"`
}

// ChangeOrigin names who made a change.
type ChangeOrigin string

const OriginOwner ChangeOrigin = "owner"

type originKey struct{}

// WithOrigin marks writes made under ctx as coming from origin.
func WithOrigin(ctx context.Context, origin ChangeOrigin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the origin set by WithOrigin, or "" for none.
func OriginFrom(ctx context.Context) ChangeOrigin {
	origin, _ := ctx.Value(originKey{}).(ChangeOrigin)
	return origin
}

// NewBookingChange builds a change event for the bookings table.
func NewBookingChange(kind ChangeKind, record Booking) ChangeEvent {
	return ChangeEvent{
		Table:     Booking{}.TableName(),
		EventType: kind,
		OwnerID:   record.OwnerID,
		Record:    record,
	}
}
