package views

import (
	"strings"

	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// ViewMode selects which projection a dashboard session renders.
type ViewMode string

const (
	ModeList   ViewMode = "list"
	ModeKanban ViewMode = "kanban"
)

// AllStages is the stage selector value meaning "no stage filter".
const AllStages = "all"

// ParseViewMode accepts "list" or "kanban" in any case; anything else
// falls back to the list view.
func ParseViewMode(raw string) ViewMode {
	if ViewMode(strings.ToLower(strings.TrimSpace(raw))) == ModeKanban {
		return ModeKanban
	}
	return ModeList
}

// Session is the per-dashboard UI state both projections read. It is a
// plain value: changing it never touches the booking store.
type Session struct {
	Mode      ViewMode        `json:"mode"`
	Stage     string          `json:"stage,omitempty"`
	BookingID string          `json:"bookingId,omitempty"`
	Query     string          `json:"query,omitempty"`
	Bucket    workflow.Bucket `json:"bucket,omitempty"`
}

// DefaultSession shows every stage in the list view.
func DefaultSession() Session {
	return Session{Mode: ModeList, Stage: AllStages}
}

// WithMode switches the view mode, keeping the selection.
func (s Session) WithMode(mode ViewMode) Session {
	s.Mode = mode
	return s
}

// Select focuses one booking. An empty id clears the selection.
func (s Session) Select(bookingID string) Session {
	s.BookingID = strings.TrimSpace(bookingID)
	return s
}

// SelectStage narrows the list to one stage; "" or "all" clears it.
func (s Session) SelectStage(stage string) Session {
	stage = strings.ToLower(strings.TrimSpace(stage))
	if stage == "" {
		stage = AllStages
	}
	s.Stage = stage
	return s
}

// WithFilter sets the text query and bucket filter.
func (s Session) WithFilter(query string, bucket workflow.Bucket) Session {
	s.Query = strings.TrimSpace(query)
	s.Bucket = bucket
	return s
}

func (s Session) stageFilter() (workflow.Stage, bool) {
	if s.Stage == "" || s.Stage == AllStages {
		return "", false
	}
	return workflow.Stage(s.Stage), true
}
