package views

import (
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// Column is one kanban column.
type Column struct {
	Stage    workflow.Stage   `json:"stage"`
	Label    string           `json:"label"`
	Action   workflow.Action  `json:"action"`
	Bookings []models.Booking `json:"bookings"`
}

// Board is the kanban projection: one column per stage in canonical order.
// Opening a card routes through the dispatcher; there is no column move.
type Board struct {
	Columns  []Column         `json:"columns"`
	Unstaged []models.Booking `json:"unstaged,omitempty"`
	Selected *Detail          `json:"selected,omitempty"`
}

// BuildBoard projects bookings into kanban columns. The stage selection is
// ignored; query and bucket filters apply.
func BuildBoard(bookings []models.Booking, session Session, now time.Time) Board {
	stages := workflow.Stages()
	board := Board{Columns: make([]Column, len(stages))}
	index := make(map[workflow.Stage]int, len(stages))
	for i, stage := range stages {
		board.Columns[i] = Column{
			Stage:    stage,
			Label:    stage.Label(),
			Action:   workflow.NextActionFor(stage),
			Bookings: []models.Booking{},
		}
		index[stage] = i
	}

	for _, b := range bookings {
		if !matchesSession(b, session, now) {
			continue
		}
		if i, ok := index[b.Stage]; ok {
			board.Columns[i].Bookings = append(board.Columns[i].Bookings, b)
			continue
		}
		board.Unstaged = append(board.Unstaged, b)
	}

	board.Selected = selected(bookings, session.BookingID, now)
	return board
}

// Flatten returns the ids of every card on the board, column by column.
func (b Board) Flatten() []string {
	var ids []string
	for _, column := range b.Columns {
		for _, booking := range column.Bookings {
			ids = append(ids, booking.ID)
		}
	}
	for _, booking := range b.Unstaged {
		ids = append(ids, booking.ID)
	}
	return ids
}
