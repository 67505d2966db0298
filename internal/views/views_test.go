package views

import (
	"sort"
	"testing"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func sample() []models.Booking {
	notes := "Promoter prefers a Friday slot"
	return []models.Booking{
		{ID: "b1", OwnerID: 7, VenueName: "The Fillmore", VenueCity: "San Francisco", Stage: workflow.StageIntro, Status: models.BookingStatusActive, EventDate: now.AddDate(0, 2, 0)},
		{ID: "b2", OwnerID: 7, VenueName: "Roxy", VenueCity: "Los Angeles", Stage: workflow.StageInvoice, Status: models.BookingStatusActive, Notes: &notes},
		{ID: "b3", OwnerID: 7, VenueName: "Bowery Ballroom", VenueCity: "New York", Stage: workflow.StagePayment, Status: models.BookingStatusInactive},
		{ID: "b4", OwnerID: 7, VenueName: "Metro", VenueCity: "Chicago", Stage: workflow.Stage("on_hold"), Status: models.BookingStatusActive},
	}
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListAndBoardCoverSameBookings(t *testing.T) {
	bookings := sample()
	session := DefaultSession()

	list := BuildList(bookings, session, now)
	board := BuildBoard(bookings, session.WithMode(ModeKanban), now)

	want := []string{"b1", "b2", "b3", "b4"}
	if got := sorted(list.Flatten()); !equal(got, want) {
		t.Fatalf("list ids = %v, want %v", got, want)
	}
	if got := sorted(board.Flatten()); !equal(got, want) {
		t.Fatalf("board ids = %v, want %v", got, want)
	}
}

func TestStageSelectionKeepsListAndBoardInAgreement(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bookings := []models.Booking{
		{ID: "a", OwnerID: 7, Stage: workflow.StageIntro, CreatedAt: created},
		{ID: "b", OwnerID: 7, Stage: workflow.StageOffer, CreatedAt: created.Add(time.Hour)},
	}
	session := DefaultSession().SelectStage("offer")

	list := BuildList(bookings, session, now)
	board := BuildBoard(bookings, session.WithMode(ModeKanban), now)

	if got, want := sorted(list.Flatten()), []string{"a", "b"}; !equal(got, want) {
		t.Fatalf("list ids = %v, want %v", got, want)
	}
	if got := sorted(board.Flatten()); !equal(got, sorted(list.Flatten())) {
		t.Fatalf("board ids = %v, list ids = %v", got, list.Flatten())
	}
	if len(list.Visible) != 1 || list.Visible[0].ID != "b" {
		t.Fatalf("visible = %v, want only b", list.Visible)
	}
	if list.Groups[0].Stage != "intro" || len(list.Groups[0].Bookings) != 1 || list.Groups[0].Bookings[0].ID != "a" {
		t.Fatalf("intro group = %+v", list.Groups[0])
	}

	back := session.WithMode(ModeKanban).WithMode(ModeList)
	if back.Stage != "offer" {
		t.Fatalf("stage selection lost across mode switch: %q", back.Stage)
	}
}

func TestBuildListGroups(t *testing.T) {
	list := BuildList(sample(), DefaultSession(), now)

	if list.Total != 4 {
		t.Fatalf("Total = %d, want 4", list.Total)
	}
	if len(list.Groups) != 6 {
		t.Fatalf("expected five stage groups plus other, got %d", len(list.Groups))
	}
	wantCounts := map[string]int{"intro": 1, "offer": 0, "contract": 0, "invoice": 1, "payment": 1, OtherStage: 1}
	for i, g := range list.Groups[:5] {
		if g.Stage != string(workflow.Stages()[i]) {
			t.Fatalf("group %d = %s, out of canonical order", i, g.Stage)
		}
	}
	for _, g := range list.Groups {
		if g.Count != wantCounts[g.Stage] {
			t.Fatalf("group %s count = %d, want %d", g.Stage, g.Count, wantCounts[g.Stage])
		}
	}
}

func TestBuildListWithoutUnknownStagesHasNoOtherGroup(t *testing.T) {
	list := BuildList(sample()[:3], DefaultSession(), now)
	for _, g := range list.Groups {
		if g.Stage == OtherStage {
			t.Fatalf("unexpected other group")
		}
	}
}

func TestBuildListStageSelection(t *testing.T) {
	bookings := sample()

	list := BuildList(bookings, DefaultSession().SelectStage("Invoice"), now)
	if got := list.Flatten(); !equal(got, []string{"b2"}) {
		t.Fatalf("visible = %v, want [b2]", got)
	}
	if list.Total != 4 {
		t.Fatalf("stage selection must not change the total, got %d", list.Total)
	}

	other := BuildList(bookings, DefaultSession().SelectStage(OtherStage), now)
	if got := other.Flatten(); !equal(got, []string{"b4"}) {
		t.Fatalf("other visible = %v, want [b4]", got)
	}

	all := BuildList(bookings, DefaultSession().SelectStage("invoice").SelectStage(""), now)
	if len(all.Visible) != 4 || all.Stage != AllStages {
		t.Fatalf("clearing stage should show all, got %d under %q", len(all.Visible), all.Stage)
	}
}

func TestBuildBoardColumns(t *testing.T) {
	board := BuildBoard(sample(), DefaultSession().WithMode(ModeKanban), now)

	if len(board.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(board.Columns))
	}
	for i, col := range board.Columns {
		if col.Stage != workflow.Stages()[i] {
			t.Fatalf("column %d stage = %s", i, col.Stage)
		}
		if col.Action != workflow.NextActionFor(col.Stage) {
			t.Fatalf("column %s action = %+v", col.Stage, col.Action)
		}
	}
	if len(board.Columns[0].Bookings) != 1 || board.Columns[0].Bookings[0].ID != "b1" {
		t.Fatalf("intro column = %+v", board.Columns[0].Bookings)
	}
	if board.Columns[3].Action.Label != "Generate Assets" {
		t.Fatalf("invoice column action = %q", board.Columns[3].Action.Label)
	}
	if len(board.Unstaged) != 1 || board.Unstaged[0].ID != "b4" {
		t.Fatalf("unstaged = %+v", board.Unstaged)
	}
}

func TestBoardIgnoresStageSelection(t *testing.T) {
	board := BuildBoard(sample(), DefaultSession().SelectStage("intro"), now)
	if len(board.Flatten()) != 4 {
		t.Fatalf("board should not narrow by stage, got %v", board.Flatten())
	}
}

func TestSelectionSharedAcrossModes(t *testing.T) {
	bookings := sample()
	session := DefaultSession().Select("b2")

	list := BuildList(bookings, session, now)
	board := BuildBoard(bookings, session.WithMode(ModeKanban), now)

	if list.Selected == nil || board.Selected == nil {
		t.Fatalf("selection lost: list=%v board=%v", list.Selected, board.Selected)
	}
	if list.Selected.Booking.ID != "b2" || board.Selected.Booking.ID != "b2" {
		t.Fatalf("selected ids differ")
	}
	if list.Selected.NextAction.Label != "Generate Assets" {
		t.Fatalf("next action = %q", list.Selected.NextAction.Label)
	}
}

func TestSelectionOfMissingBooking(t *testing.T) {
	list := BuildList(sample(), DefaultSession().Select("gone"), now)
	if list.Selected != nil {
		t.Fatalf("expected no selection, got %+v", list.Selected)
	}
}

func TestSwitchingModeDoesNotTouchBookings(t *testing.T) {
	bookings := sample()
	before := make([]models.Booking, len(bookings))
	for i := range bookings {
		before[i] = bookings[i].Clone()
	}

	session := DefaultSession()
	for i := 0; i < 3; i++ {
		session = session.WithMode(ModeKanban)
		Project(bookings, session, now)
		session = session.WithMode(ModeList)
		Project(bookings, session, now)
	}

	for i := range bookings {
		if bookings[i].ID != before[i].ID || bookings[i].Stage != before[i].Stage {
			t.Fatalf("booking %d changed: %+v", i, bookings[i])
		}
	}
}

func TestFilters(t *testing.T) {
	bookings := sample()

	tests := []struct {
		name    string
		session Session
		want    []string
	}{
		{"city", DefaultSession().WithFilter("chicago", ""), []string{"b4"}},
		{"notes", DefaultSession().WithFilter("FRIDAY", ""), []string{"b2"}},
		{"upcoming", DefaultSession().WithFilter("", workflow.BucketUpcoming), []string{"b1"}},
		{"pipeline", DefaultSession().WithFilter("", workflow.BucketPipeline), []string{"b1", "b2"}},
		{"confirmed", DefaultSession().WithFilter("", workflow.BucketConfirmed), []string{"b1", "b2", "b4"}},
		{"unknown bucket", DefaultSession().WithFilter("", workflow.Bucket("vip")), []string{"b1", "b2", "b3", "b4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := BuildList(bookings, tt.session, now)
			board := BuildBoard(bookings, tt.session, now)
			if got := sorted(list.Flatten()); !equal(got, tt.want) {
				t.Fatalf("list = %v, want %v", got, tt.want)
			}
			if got := sorted(board.Flatten()); !equal(got, tt.want) {
				t.Fatalf("board = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseViewMode(t *testing.T) {
	if ParseViewMode(" Kanban ") != ModeKanban {
		t.Fatalf("kanban not parsed")
	}
	if ParseViewMode("grid") != ModeList {
		t.Fatalf("unknown mode should default to list")
	}
}

func TestProjectPicksView(t *testing.T) {
	p := Project(sample(), DefaultSession().WithMode(ModeKanban), now)
	if p.Board == nil || p.List != nil {
		t.Fatalf("kanban projection = %+v", p)
	}
	p = Project(sample(), DefaultSession(), now)
	if p.List == nil || p.Board != nil {
		t.Fatalf("list projection = %+v", p)
	}
}
