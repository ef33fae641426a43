package intake

// State names the step a session is waiting on.
type State string

const (
	StateFullName State = "awaiting_full_name"
	StateAddress  State = "awaiting_address"
	StateKin1     State = "awaiting_kin1"
	StateKin2     State = "awaiting_kin2"
	StatePhone    State = "awaiting_phone"
	StateDocID    State = "awaiting_id_card"
	StateDocPsych State = "awaiting_psych_cert"
	StateDocNarc  State = "awaiting_narc_cert"
)

// Only the declared media type is checked; file bytes never reach the bot.
const pdfMimeType = "application/pdf"

// Form is the per-session scratch record. One field per step, written
// exactly when that step accepts input, so no step ever reads an unset key.
type Form struct {
	FullName string
	Address  string
	Kin1     string
	Kin2     string
	Phone    string
	IDCard   string
	Psych    string
	Narc     string
}

// step describes one state of the intake flow: the input kind that advances
// it, where the accepted value goes, the prompt sent on entering the state,
// and the re-prompt sent when input is rejected.
type step struct {
	state    State
	kind     EventKind
	assign   func(f *Form, value string)
	prompt   string
	reprompt string
}

// flow is the intake conversation in its strict linear order. Dispatch is
// driven by this table; there is no per-state handler code.
var flow = []step{
	{
		state:    StateFullName,
		kind:     EventText,
		assign:   func(f *Form, v string) { f.FullName = v },
		prompt:   "Please enter your full name:",
		reprompt: "Please enter your full name:",
	},
	{
		state:    StateAddress,
		kind:     EventText,
		assign:   func(f *Form, v string) { f.Address = v },
		prompt:   "Please enter your home address:",
		reprompt: "Please enter your home address:",
	},
	{
		state:    StateKin1,
		kind:     EventText,
		assign:   func(f *Form, v string) { f.Kin1 = v },
		prompt:   "Please enter the name and phone number of your first next of kin:",
		reprompt: "Please enter the name and phone number of your first next of kin:",
	},
	{
		state:    StateKin2,
		kind:     EventText,
		assign:   func(f *Form, v string) { f.Kin2 = v },
		prompt:   "Please enter the name and phone number of your second next of kin:",
		reprompt: "Please enter the name and phone number of your second next of kin:",
	},
	{
		state:    StatePhone,
		kind:     EventText,
		assign:   func(f *Form, v string) { f.Phone = v },
		prompt:   "Please enter your phone number:",
		reprompt: "Please enter your phone number:",
	},
	{
		state:    StateDocID,
		kind:     EventDocument,
		assign:   func(f *Form, v string) { f.IDCard = v },
		prompt:   "Please send your identity document as a PDF file.",
		reprompt: "That is not a PDF. Please send your identity document as a PDF file.",
	},
	{
		state:    StateDocPsych,
		kind:     EventDocument,
		assign:   func(f *Form, v string) { f.Psych = v },
		prompt:   "Now send your psychiatric-clinic certificate as a PDF file.",
		reprompt: "That is not a PDF. Please send your psychiatric-clinic certificate as a PDF file.",
	},
	{
		state:    StateDocNarc,
		kind:     EventDocument,
		assign:   func(f *Form, v string) { f.Narc = v },
		prompt:   "Now send your narcology-clinic certificate as a PDF file.",
		reprompt: "That is not a PDF. Please send your narcology-clinic certificate as a PDF file.",
	},
}

// User-facing texts outside the step table.
const (
	cancelText = "Submission cancelled."
	retryText  = "Could not submit your application, please try again."
	ackText    = "All documents received. Your submission has been sent."
)
