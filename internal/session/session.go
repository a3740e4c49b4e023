// Package session runs one verification call end to end: greeting, turn
// processing through the correction pipeline and flow manager, optional
// correction confirmations, and summary persistence when the call ends.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karienad/dental-insurance-ai-agent/internal/correction"
	"github.com/karienad/dental-insurance-ai-agent/internal/flow"
	"github.com/karienad/dental-insurance-ai-agent/internal/observe"
	"github.com/karienad/dental-insurance-ai-agent/internal/patient"
	"github.com/karienad/dental-insurance-ai-agent/internal/report"
	"github.com/karienad/dental-insurance-ai-agent/internal/speech"
)

// QuitCommand ends the session immediately, persisting whatever has been
// collected so far.
const QuitCommand = "quit"

const (
	rephraseMsg = "Could you please rephrase that?"
	farewellMsg = "All verification information has been collected. Thank you for your help. Have a nice day. Bye Bye."
	goodbyeMsg  = "Thank you for your time. Goodbye."
)

// Confirmation classifies a reply to a "did you mean ...?" question by
// keyword. Returns Unconfirmed when neither a positive nor a negative
// keyword is present.
func Confirmation(text string) ConfirmState {
	lower := strings.ToLower(text)
	for _, kw := range []string{"yes", "correct", "right", "yeah", "yep"} {
		if strings.Contains(lower, kw) {
			return Confirmed
		}
	}
	for _, kw := range []string{"no", "incorrect", "wrong", "nope"} {
		if strings.Contains(lower, kw) {
			return Denied
		}
	}
	return Unconfirmed
}

// ConfirmState is the outcome of a confirmation keyword scan.
type ConfirmState int

const (
	Unconfirmed ConfirmState = iota
	Confirmed
	Denied
)

// Reply is the session's answer to one caller utterance.
type Reply struct {
	// Message is the agent's next line, formatted for speech output.
	Message string

	// Done reports that the session has ended and its summary has been
	// persisted.
	Done bool
}

// Runner owns all state of one call. Not safe for concurrent use.
type Runner struct {
	id       string
	patient  patient.Patient
	office   string
	manager  *flow.Manager
	pipeline *correction.Pipeline
	writers  []report.Writer

	// pending is a correction candidate awaiting caller confirmation.
	pending string

	done bool

	log     *slog.Logger
	metrics *observe.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithOfficeName sets the dental office named in the greeting.
func WithOfficeName(name string) Option {
	return func(r *Runner) { r.office = name }
}

// WithWriters sets the summary persistence targets.
func WithWriters(ws ...report.Writer) Option {
	return func(r *Runner) { r.writers = ws }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New creates a Runner for one call about p. manager and pipeline are owned
// by the Runner afterwards.
func New(id string, p patient.Patient, manager *flow.Manager, pipeline *correction.Pipeline, opts ...Option) *Runner {
	r := &Runner{
		id:       id,
		patient:  p,
		office:   "the dental office",
		manager:  manager,
		pipeline: pipeline,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	r.metrics.SessionStarted(context.Background())
	return r
}

// ID returns the session identifier.
func (r *Runner) ID() string { return r.id }

// Done reports whether the session has ended.
func (r *Runner) Done() bool { return r.done }

// Greeting returns the agent's opening line, formatted for speech.
func (r *Runner) Greeting() string {
	return speech.Format(fmt.Sprintf(
		"Hi, this is an assistant from %s. I'm calling about our patient %s. Would you mind helping me verify insurance coverage?",
		r.office, r.patient.FullName()))
}

// HandleTurn processes one caller utterance. After Reply.Done is true,
// further calls return the goodbye message unchanged.
func (r *Runner) HandleTurn(ctx context.Context, text string) Reply {
	if r.done {
		return Reply{Message: goodbyeMsg, Done: true}
	}
	start := time.Now()
	reply := r.handleTurn(ctx, text)
	r.metrics.RecordTurn(ctx, r.manager.Phase().String(), time.Since(start).Seconds())
	return reply
}

func (r *Runner) handleTurn(ctx context.Context, text string) Reply {
	if strings.EqualFold(strings.TrimSpace(text), QuitCommand) {
		r.end(ctx)
		return Reply{Message: goodbyeMsg, Done: true}
	}

	if r.pending != "" {
		candidate := r.pending
		r.pending = ""
		if Confirmation(text) != Confirmed {
			r.log.InfoContext(ctx, "correction rejected by caller")
			return Reply{Message: rephraseMsg}
		}
		r.log.InfoContext(ctx, "correction confirmed by caller",
			slog.String("corrected", candidate))
		text = candidate
	} else {
		res := r.pipeline.Process(ctx, r.dialogueContext(), r.manager.PendingQuestion(), text)
		switch res.Outcome {
		case correction.OutcomeNeedsConfirmation:
			r.pending = res.Candidate
			return Reply{Message: fmt.Sprintf("Did you mean: %s?", res.Candidate)}
		case correction.OutcomeCorrected:
			text = res.Text
		}
	}

	reply := r.manager.HandleUtterance(ctx, text)
	if reply.Phase == flow.PhaseComplete {
		r.end(ctx)
		return Reply{Message: speech.Format(reply.Message + " " + farewellMsg), Done: true}
	}
	return Reply{Message: speech.Format(reply.Message)}
}

// dialogueContext maps the flow phase onto a correction context label.
func (r *Runner) dialogueContext() string {
	if r.manager.Phase() == flow.PhaseVerification {
		return correction.ContextVerification
	}
	return correction.ContextPatientInfo
}

// end persists the summary to every configured writer and closes the
// session. Writer failures are logged, not fatal; losing the archive copy
// must not crash a finished call.
func (r *Runner) end(ctx context.Context) {
	summary := r.manager.Record().Summary()
	for _, w := range r.writers {
		if err := w.Write(ctx, r.id, summary); err != nil {
			r.log.ErrorContext(ctx, "failed to persist verification summary",
				slog.String("session_id", r.id),
				slog.String("error", err.Error()))
		}
	}
	r.log.InfoContext(ctx, "session ended",
		slog.String("session_id", r.id),
		slog.String("status", summary.Status),
		slog.Int("missing", len(summary.Missing)))
	r.metrics.SessionEnded(ctx)
	r.done = true
}
