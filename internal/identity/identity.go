// Package identity implements the pre-verification identity exchange: the
// caller asks for patient details (date of birth, member ID, name) and the
// agent answers from the reference patient record while tracking which
// identity fields have been supplied.
//
// All state lives in an explicit per-session [State]; [Extract] itself is a
// pure function of its inputs and is idempotent for the same utterance.
package identity

import (
	"strings"

	"github.com/karienad/dental-insurance-ai-agent/internal/patient"
)

// Field identifies one identity field the caller must be given before the
// verification phase can start.
type Field string

const (
	FieldDOB      Field = "dob"
	FieldMemberID Field = "member_id"
)

// ClarifyPrompt is returned when no fragment of the utterance matches a known
// identity request.
const ClarifyPrompt = "What information would you like about the patient?"

// State is the per-session identity progress. It is owned by the session and
// passed explicitly into every call; nothing in this package retains state
// between calls.
type State struct {
	// Asked marks fields the caller has explicitly requested.
	Asked map[Field]bool

	// Provided marks fields whose value has been spoken to the caller. A
	// field may become provided without having been asked in a prior turn.
	Provided map[Field]bool

	// ConsentPending is set once both required fields are provided and a
	// help-offering utterance has been detected; it stays set until the
	// consent question is answered true or false.
	ConsentPending bool
}

// NewState returns an empty identity state.
func NewState() *State {
	return &State{
		Asked:    make(map[Field]bool),
		Provided: make(map[Field]bool),
	}
}

// HasRequired reports whether both the date of birth and the member ID have
// been provided. This gates entry into the verification phase.
func (s *State) HasRequired() bool {
	return s.Provided[FieldDOB] && s.Provided[FieldMemberID]
}

// Result is the outcome of one [Extract] call.
type Result struct {
	// Message is the agent's spoken reply.
	Message string

	// FieldsFound lists the identity fields answered this turn. At most one
	// field is answered per invocation.
	FieldsFound []Field
}

// Extract interprets utterance as an identity request against p, updates
// state, and returns the reply.
//
// The utterance is normalised (lower-cased, question marks and filler words
// stripped) and split into comma-delimited request fragments. A name request
// short-circuits without touching state. Otherwise the first fragment
// matching the date-of-birth or member-ID keyword sets produces the answer;
// later fragments are ignored, so at most one field is answered per turn.
func Extract(p patient.Patient, state *State, utterance string) Result {
	normalized := normalize(utterance)

	if isNameRequest(normalized) {
		return Result{Message: "The patient's name is " + p.FullName()}
	}

	for _, fragment := range fragments(normalized) {
		switch {
		case isDOBRequest(fragment):
			state.Asked[FieldDOB] = true
			state.Provided[FieldDOB] = true
			return Result{
				Message:     "The date of birth is " + p.DateOfBirth,
				FieldsFound: []Field{FieldDOB},
			}
		case isMemberIDRequest(fragment):
			state.Asked[FieldMemberID] = true
			state.Provided[FieldMemberID] = true
			return Result{
				Message:     "The member ID is " + p.MemberNumber,
				FieldsFound: []Field{FieldMemberID},
			}
		}
	}

	return Result{Message: ClarifyPrompt}
}

// normalize lower-cases the utterance, turns question marks and " and " into
// fragment separators, and strips filler words.
func normalize(utterance string) string {
	s := strings.ToLower(utterance)
	s = strings.ReplaceAll(s, "?", ",")
	s = strings.ReplaceAll(s, " and ", ", ")
	s = strings.ReplaceAll(s, "please", "")
	return strings.TrimSpace(s)
}

// fragments splits the normalised utterance into non-empty comma-delimited
// request fragments, preserving order.
func fragments(normalized string) []string {
	parts := strings.Split(normalized, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isNameRequest(normalized string) bool {
	for _, kw := range []string{"name", "who is", "patient name"} {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func isDOBRequest(fragment string) bool {
	for _, kw := range []string{"date", "birth", "dob"} {
		if strings.Contains(fragment, kw) {
			return true
		}
	}
	return false
}

func isMemberIDRequest(fragment string) bool {
	if strings.Contains(fragment, "member") {
		return true
	}
	// "id" is matched as a whole word so it does not fire on words like
	// "provide" or "holiday".
	for _, tok := range strings.Fields(fragment) {
		if strings.Trim(tok, ".,!") == "id" {
			return true
		}
	}
	return false
}
