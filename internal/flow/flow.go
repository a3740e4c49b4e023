// Package flow drives the two-phase verification dialogue.
//
// A call starts in the patient-information phase, where the agent answers
// identity questions (name, date of birth, member ID) from the patient
// record. Once both required identity fields have been read back and the
// caller offers to help, the agent asks for consent to verify coverage.
// Consent moves the dialogue into the verification phase: a fixed walk over
// the schema's categories and fields, asking one question at a time and
// extracting typed answers until the record is complete.
package flow

import (
	"context"
	"log/slog"

	"github.com/karienad/dental-insurance-ai-agent/internal/identity"
	"github.com/karienad/dental-insurance-ai-agent/internal/patient"
	"github.com/karienad/dental-insurance-ai-agent/internal/schema"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification/extract"
)

// Phase is the dialogue's coarse state.
type Phase int

const (
	// PhasePatientInfo is the identity exchange before verification starts.
	PhasePatientInfo Phase = iota

	// PhaseVerification is the question-by-question schema walk.
	PhaseVerification

	// PhaseComplete means every field has been collected.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePatientInfo:
		return "patient_info"
	case PhaseVerification:
		return "verification"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Fixed dialogue messages.
const (
	// ConsentQuestion is asked once the caller offers to help.
	ConsentQuestion = "Would you mind verifying patient insurance coverage?"

	// declineAck acknowledges a refusal and leaves the door open.
	declineAck = "I understand. Please let me know when you're ready to proceed."

	// reprompt is used when no value could be extracted from an answer.
	reprompt = "I didn't quite get that. Could you rephrase?"

	// completionMessage ends the verification phase.
	completionMessage = "Verification complete!"
)

// Oracle is the semantic extraction backend the manager consults.
// Implemented by extract.Extractor.
type Oracle interface {
	ExtractField(ctx context.Context, spec schema.FieldSpec, utterance string) (*verification.FieldValue, error)
	ExtractBoolean(ctx context.Context, question, utterance string) (extract.Tristate, error)
	IsHelpOffer(ctx context.Context, utterance string) (bool, error)
}

// Reply is the manager's answer to one caller utterance.
type Reply struct {
	// Message is what the agent says next.
	Message string

	// Phase is the dialogue phase after processing the utterance.
	Phase Phase
}

// Manager holds all dialogue state for one call. Not safe for concurrent
// use; each session owns exactly one Manager.
type Manager struct {
	patient  patient.Patient
	oracle   Oracle
	schema   *schema.Schema
	record   *verification.Record
	identity *identity.State

	phase    Phase
	category schema.Category

	log *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSchema overrides the default verification schema.
func WithSchema(s *schema.Schema) Option {
	return func(m *Manager) { m.schema = s }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager returns a Manager for one call about p.
func NewManager(p patient.Patient, oracle Oracle, opts ...Option) *Manager {
	m := &Manager{
		patient:  p,
		oracle:   oracle,
		phase:    PhasePatientInfo,
		identity: identity.NewState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.schema == nil {
		m.schema = schema.Default()
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	m.record = verification.NewRecord(m.schema)
	m.category = m.schema.Categories()[0]
	return m
}

// Phase returns the current dialogue phase.
func (m *Manager) Phase() Phase { return m.phase }

// Record returns the verification record being filled.
func (m *Manager) Record() *verification.Record { return m.record }

// PendingQuestion returns the verification question awaiting an answer, or
// "" outside the verification phase.
func (m *Manager) PendingQuestion() string {
	if m.phase != PhaseVerification {
		return ""
	}
	spec, ok := m.record.NextUnset()
	if !ok {
		return ""
	}
	return spec.Question
}

// HandleUtterance processes one caller utterance and returns the agent's
// reply. Oracle failures are soft: the turn degrades to a reprompt or to
// identity handling rather than erroring out.
func (m *Manager) HandleUtterance(ctx context.Context, utterance string) Reply {
	switch m.phase {
	case PhasePatientInfo:
		return m.handlePatientInfo(ctx, utterance)
	case PhaseVerification:
		return m.handleVerification(ctx, utterance)
	default:
		return Reply{Message: completionMessage, Phase: PhaseComplete}
	}
}

func (m *Manager) handlePatientInfo(ctx context.Context, utterance string) Reply {
	if m.identity.ConsentPending {
		consent, err := m.oracle.ExtractBoolean(ctx, ConsentQuestion, utterance)
		if err != nil {
			m.log.WarnContext(ctx, "consent check failed",
				slog.String("error", err.Error()))
			consent = extract.Unknown
		}
		switch consent {
		case extract.Yes:
			m.identity.ConsentPending = false
			m.phase = PhaseVerification
			m.log.InfoContext(ctx, "consent granted, starting verification")
			return Reply{Message: m.nextQuestion(), Phase: m.phase}
		case extract.No:
			// A later help offer re-triggers the consent question.
			m.identity.ConsentPending = false
			return Reply{Message: declineAck, Phase: m.phase}
		default:
			return Reply{Message: ConsentQuestion, Phase: m.phase}
		}
	}

	if m.identity.HasRequired() {
		offer, err := m.oracle.IsHelpOffer(ctx, utterance)
		if err != nil {
			m.log.WarnContext(ctx, "help offer check failed",
				slog.String("error", err.Error()))
		} else if offer {
			m.identity.ConsentPending = true
			return Reply{Message: ConsentQuestion, Phase: m.phase}
		}
	}

	res := identity.Extract(m.patient, m.identity, utterance)
	return Reply{Message: res.Message, Phase: m.phase}
}

func (m *Manager) handleVerification(ctx context.Context, utterance string) Reply {
	spec, ok := m.record.NextUnset()
	if !ok {
		m.phase = PhaseComplete
		return Reply{Message: completionMessage, Phase: m.phase}
	}

	value, err := m.oracle.ExtractField(ctx, spec, utterance)
	if err != nil {
		m.log.WarnContext(ctx, "extraction failed",
			slog.String("category", string(spec.Category)),
			slog.String("field", spec.Name),
			slog.String("error", err.Error()))
		value = nil
	}
	if value == nil {
		return Reply{Message: reprompt, Phase: m.phase}
	}

	if err := m.record.Set(spec.Category, spec.Name, *value); err != nil {
		m.log.ErrorContext(ctx, "failed to store extracted value",
			slog.String("category", string(spec.Category)),
			slog.String("field", spec.Name),
			slog.String("error", err.Error()))
		return Reply{Message: reprompt, Phase: m.phase}
	}
	m.log.InfoContext(ctx, "field collected",
		slog.String("category", string(spec.Category)),
		slog.String("field", spec.Name),
		slog.String("value", value.String()))

	next := m.nextQuestion()
	if next == "" {
		m.phase = PhaseComplete
		return Reply{Message: completionMessage, Phase: m.phase}
	}
	return Reply{Message: next, Phase: m.phase}
}

// nextQuestion returns the question for the first unset field, prefixed with
// the category intro when the walk crosses into a new category. Returns ""
// when the record is complete.
func (m *Manager) nextQuestion() string {
	spec, ok := m.record.NextUnset()
	if !ok {
		return ""
	}
	if spec.Category != m.category {
		m.category = spec.Category
		return m.schema.Intro(spec.Category) + spec.Question
	}
	return spec.Question
}
