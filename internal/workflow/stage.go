package workflow

import "strings"

// Stage is the workflow position of a booking.
type Stage string

const (
	StageIntro    Stage = "intro"
	StageOffer    Stage = "offer"
	StageContract Stage = "contract"
	StageInvoice  Stage = "invoice"
	StagePayment  Stage = "payment"
)

// InitialStage is the stage every freshly created booking starts in.
const InitialStage = StageIntro

var canonicalOrder = []Stage{
	StageIntro,
	StageOffer,
	StageContract,
	StageInvoice,
	StagePayment,
}

var stageLabels = map[Stage]string{
	StageIntro:    "Introduction",
	StageOffer:    "Offer",
	StageContract: "Contract",
	StageInvoice:  "Invoice",
	StagePayment:  "Payment",
}

// Stages returns the stages in canonical forward order. The slice is a copy.
func Stages() []Stage {
	out := make([]Stage, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// ParseStage maps free text onto a known stage, ignoring case and
// surrounding whitespace.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return s, false
	}
	return s, true
}

// Valid reports whether s is one of the five known stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in the canonical order, or -1.
func (s Stage) Index() int {
	for i, known := range canonicalOrder {
		if s == known {
			return i
		}
	}
	return -1
}

// Terminal reports whether no forward transition is defined from s.
func (s Stage) Terminal() bool {
	return s == StagePayment
}

// Label is the display name used for list groups and board columns.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	if s == "" {
		return "Unstaged"
	}
	return string(s)
}

func (s Stage) String() string { return string(s) }

// Advance returns the stage following s. ok is false when s is terminal
// or unrecognised.
func Advance(s Stage) (next Stage, ok bool) {
	i := s.Index()
	if i < 0 || i == len(canonicalOrder)-1 {
		return s, false
	}
	return canonicalOrder[i+1], true
}

// ValidateTransition checks a core-initiated stage change. Only a single
// step forward is legal; jumps, backward moves and unknown targets are
// rejected. Overwrites delivered by the change feed never pass through
// here.
func ValidateTransition(current, requested Stage) error {
	if !requested.Valid() {
		return &TransitionError{From: current, To: requested, Reason: "unknown stage"}
	}
	next, ok := Advance(current)
	if !ok {
		if current.Terminal() {
			return &TransitionError{From: current, To: requested, Reason: "stage is terminal"}
		}
		return &TransitionError{From: current, To: requested, Reason: "current stage is unknown"}
	}
	if requested != next {
		return &TransitionError{From: current, To: requested, Reason: "only the next stage may be requested"}
	}
	return nil
}
