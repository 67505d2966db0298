package views

import (
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// OtherStage keys the list group holding bookings with an unrecognised stage.
const OtherStage = "other"

// StageGroup is one section of the list view: every matching booking at
// one stage, in store order.
type StageGroup struct {
	Stage    string           `json:"stage"`
	Label    string           `json:"label"`
	Count    int              `json:"count"`
	Bookings []models.Booking `json:"bookings"`
}

// StageList is the stage-grouped list projection: sidebar groups with
// counts, the bookings visible under the current stage selection, and the
// focused booking for the detail panel.
type StageList struct {
	Groups   []StageGroup     `json:"groups"`
	Total    int              `json:"total"`
	Stage    string           `json:"stage"`
	Visible  []models.Booking `json:"visible"`
	Selected *Detail          `json:"selected,omitempty"`
}

// Detail pairs a booking with the action owed on it.
type Detail struct {
	Booking    models.Booking    `json:"booking"`
	NextAction workflow.Action   `json:"nextAction"`
	Buckets    []workflow.Bucket `json:"buckets"`
}

// NewDetail builds the detail panel payload for one booking.
func NewDetail(b models.Booking, now time.Time) *Detail {
	return &Detail{Booking: b, NextAction: b.NextAction(), Buckets: b.Buckets(now)}
}

// BuildList projects bookings into the list view. bookings is expected in
// store order and is never modified.
func BuildList(bookings []models.Booking, session Session, now time.Time) StageList {
	grouped := make(map[workflow.Stage][]models.Booking)
	var other []models.Booking
	matched := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !matchesSession(b, session, now) {
			continue
		}
		matched = append(matched, b)
		if b.Stage.Valid() {
			grouped[b.Stage] = append(grouped[b.Stage], b)
		} else {
			other = append(other, b)
		}
	}

	list := StageList{Total: len(matched), Stage: AllStages, Visible: make([]models.Booking, 0, len(matched))}
	for _, stage := range workflow.Stages() {
		group := grouped[stage]
		if group == nil {
			group = []models.Booking{}
		}
		list.Groups = append(list.Groups, StageGroup{Stage: string(stage), Label: stage.Label(), Count: len(group), Bookings: group})
	}
	if len(other) > 0 {
		list.Groups = append(list.Groups, StageGroup{Stage: OtherStage, Label: "Other", Count: len(other), Bookings: other})
	}

	wanted, filtered := session.stageFilter()
	if filtered {
		list.Stage = string(wanted)
	}
	for _, b := range matched {
		switch {
		case !filtered:
		case string(wanted) == OtherStage && !b.Stage.Valid():
		case b.Stage == wanted:
		default:
			continue
		}
		list.Visible = append(list.Visible, b)
	}

	list.Selected = selected(bookings, session.BookingID, now)
	return list
}

// Flatten returns the ids of every booking the list groups cover, group by
// group. The stage selection narrows Visible only.
func (l StageList) Flatten() []string {
	ids := make([]string, 0, l.Total)
	for _, group := range l.Groups {
		for _, b := range group.Bookings {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// selected looks the focused booking up in the full set so filters never
// hide the detail panel of a booking the user opened.
func selected(bookings []models.Booking, id string, now time.Time) *Detail {
	if id == "" {
		return nil
	}
	for _, b := range bookings {
		if b.ID == id {
			return NewDetail(b, now)
		}
	}
	return nil
}
