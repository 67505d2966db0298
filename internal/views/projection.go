package views

import (
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
)

// Projection is whichever view the session's mode asks for.
type Projection struct {
	Session Session    `json:"session"`
	List    *StageList `json:"list,omitempty"`
	Board   *Board     `json:"board,omitempty"`
}

// Project builds the projection for session.Mode.
func Project(bookings []models.Booking, session Session, now time.Time) Projection {
	p := Projection{Session: session}
	if session.Mode == ModeKanban {
		board := BuildBoard(bookings, session, now)
		p.Board = &board
		return p
	}
	list := BuildList(bookings, session, now)
	p.List = &list
	return p
}
