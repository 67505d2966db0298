package dispatch

import (
	"context"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// Payload is what a dialog is opened with.
type Payload struct {
	BookingID string          `json:"bookingId"`
	OwnerID   uint            `json:"ownerId"`
	Stage     workflow.Stage  `json:"stage"`
	Action    workflow.Action `json:"action"`
	Booking   models.Booking  `json:"booking"`
}

// Document is whatever a dialog prepared for the user: an email draft, a
// rendered PDF, or both.
type Document struct {
	Kind     workflow.DialogKind `json:"kind"`
	Title    string              `json:"title"`
	To       string              `json:"to,omitempty"`
	Subject  string              `json:"subject,omitempty"`
	Body     string              `json:"body,omitempty"`
	Filename string              `json:"filename,omitempty"`
	URL      string              `json:"url,omitempty"`
}

// Dialog is a document collaborator the dispatcher can open.
type Dialog interface {
	Kind() workflow.DialogKind
	Open(ctx context.Context, payload Payload) (Document, error)
}

// Finisher is implemented by dialogs that have work to do when the user
// completes them, such as sending the drafted email.
type Finisher interface {
	Finish(ctx context.Context, inv Invocation) error
}

// Invocation is an open dialog awaiting completion or dismissal.
type Invocation struct {
	Dialog   workflow.DialogKind `json:"dialog"`
	Payload  Payload             `json:"payload"`
	Document Document            `json:"document"`
	OpenedAt time.Time           `json:"openedAt"`
	// Finished is set once the dialog's Finish has run, so a completion
	// retried after a rejected transition does not repeat it.
	Finished bool `json:"finished,omitempty"`
}
