package workflow

// ActionKind identifies the kind of work the next action performs.
type ActionKind string

const (
	ActionEmail    ActionKind = "email"
	ActionContract ActionKind = "contract"
	ActionInvoice  ActionKind = "invoice"
	ActionAssets   ActionKind = "assets"
)

// DialogKind names the document-generation collaborator an action opens.
type DialogKind string

const (
	DialogEmailComposer     DialogKind = "email"
	DialogContractGenerator DialogKind = "contract"
	DialogInvoiceGenerator  DialogKind = "invoice"
	DialogAssetGenerator    DialogKind = "assets"
)

// Action is the canonical next step for a booking.
type Action struct {
	Label  string     `json:"label"`
	Kind   ActionKind `json:"kind"`
	Dialog DialogKind `json:"dialog"`
}

// DefaultAction applies to payment and to any stage the policy does not know.
var DefaultAction = Action{Label: "Contact Venue", Kind: ActionEmail, Dialog: DialogEmailComposer}

var stageActions = map[Stage]Action{
	StageIntro:    {Label: "Send Offer", Kind: ActionEmail, Dialog: DialogEmailComposer},
	StageOffer:    {Label: "Send Contract", Kind: ActionContract, Dialog: DialogContractGenerator},
	StageContract: {Label: "Send Invoice", Kind: ActionInvoice, Dialog: DialogInvoiceGenerator},
	StageInvoice:  {Label: "Generate Assets", Kind: ActionAssets, Dialog: DialogAssetGenerator},
}

// NextActionFor returns the action owed at stage s. It is total: unknown
// values, including the empty stage, get DefaultAction instead of an error.
func NextActionFor(s Stage) Action {
	if action, ok := stageActions[s]; ok {
		return action
	}
	return DefaultAction
}
