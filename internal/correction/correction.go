// Package correction repairs transcription errors in caller utterances before
// extraction sees them.
//
// The pipeline looks the utterance up in a nearest-neighbour index of known
// misheard phrases and applies the stored correction when confidence is high
// enough and the entry belongs to the current dialogue phase. Confidence is
// 1/(1+distance), so an exact index hit scores 1.0.
//
// During verification an utterance is first checked for relevance to the
// pending question. An utterance that already answers the question is passed
// through untouched; the index lookup runs only when no extractable
// information was heard, since a usable answer must never be rewritten.
package correction

import (
	"context"
	"log/slog"
	"time"

	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index"
	"github.com/karienad/dental-insurance-ai-agent/internal/observe"
)

// Dialogue context labels. Index entries are tagged with one of these and
// only apply while the conversation is in the matching phase.
const (
	ContextPatientInfo  = "patient information"
	ContextVerification = "insurance verification"
)

// DefaultThreshold is the minimum confidence at which a correction is
// applied automatically.
const DefaultThreshold = 0.70

// confirmFloor is the bottom of the optional ask-first band. Matches below
// it are never surfaced.
const confirmFloor = 0.50

// RelevanceChecker reports whether an utterance plausibly answers the
// pending verification question. Implemented by extract.Extractor.
type RelevanceChecker interface {
	IsRelevant(ctx context.Context, question, utterance string) (bool, error)
}

// Outcome classifies what the pipeline did with an utterance.
type Outcome string

const (
	// OutcomeUnchanged means no correction applied; use the utterance as is.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeCorrected means the returned text differs from the input.
	OutcomeCorrected Outcome = "corrected"

	// OutcomeRelevant means the relevance check confirmed the utterance
	// answers the pending question; no index lookup ran.
	OutcomeRelevant Outcome = "relevant"

	// OutcomeNeedsConfirmation means a plausible correction exists but is
	// not confident enough to apply silently. The caller should ask.
	OutcomeNeedsConfirmation Outcome = "needs_confirmation"
)

// Result is the pipeline's verdict on one utterance.
type Result struct {
	// Text is the utterance to hand to extraction. Equal to the input unless
	// Outcome is OutcomeCorrected.
	Text string

	// Outcome says what happened.
	Outcome Outcome

	// Candidate is the proposed correction when Outcome is
	// OutcomeNeedsConfirmation.
	Candidate string

	// Confidence is 1/(1+distance) of the nearest index entry, zero when no
	// lookup ran or the index was empty.
	Confidence float64
}

// Pipeline wires the correction index, the relevance oracle, and the
// confidence policy together. Safe for concurrent use.
type Pipeline struct {
	idx       index.Index
	relevance RelevanceChecker
	threshold float64
	confirm   bool
	log       *slog.Logger
	metrics   *observe.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithThreshold overrides the auto-apply confidence threshold.
func WithThreshold(t float64) Option {
	return func(p *Pipeline) { p.threshold = t }
}

// WithConfirmation enables the ask-first band: matches with confidence in
// [0.50, threshold) come back as OutcomeNeedsConfirmation instead of being
// dropped. Off by default.
func WithConfirmation(enabled bool) Option {
	return func(p *Pipeline) { p.confirm = enabled }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New returns a Pipeline over idx. relevance may be nil, in which case the
// relevance gate is skipped and every utterance goes straight to lookup.
func New(idx index.Index, relevance RelevanceChecker, opts ...Option) *Pipeline {
	p := &Pipeline{
		idx:       idx,
		relevance: relevance,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Process runs the full pipeline for an utterance heard in dialogueContext
// (one of the Context* labels). question is the pending verification
// question; pass "" outside the verification phase to skip the relevance
// gate. Relevance takes priority over fuzzy correction: an utterance the
// oracle deems relevant is returned untouched and only a no-information
// utterance reaches the index.
//
// Index failures are soft: the utterance passes through unchanged so a
// degraded index never blocks the conversation.
func (p *Pipeline) Process(ctx context.Context, dialogueContext, question, utterance string) Result {
	if question != "" && p.relevance != nil {
		relevant, err := p.relevance.IsRelevant(ctx, question, utterance)
		if err != nil {
			p.log.WarnContext(ctx, "relevance check failed, falling back to index lookup",
				slog.String("error", err.Error()))
		} else if relevant {
			return Result{Text: utterance, Outcome: OutcomeRelevant}
		}
	}
	return p.Apply(ctx, dialogueContext, utterance)
}

// Apply looks the utterance up and applies the confidence and context
// policy, without any relevance gating.
func (p *Pipeline) Apply(ctx context.Context, dialogueContext, utterance string) Result {
	start := time.Now()
	match, found, err := p.idx.Lookup(ctx, utterance)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		p.metrics.RecordCorrectionLookup(ctx, "error", elapsed)
		p.log.WarnContext(ctx, "correction lookup failed, passing utterance through",
			slog.String("error", err.Error()))
		return Result{Text: utterance, Outcome: OutcomeUnchanged}
	}
	if !found {
		p.metrics.RecordCorrectionLookup(ctx, "empty", elapsed)
		return Result{Text: utterance, Outcome: OutcomeUnchanged}
	}

	confidence := 1 / (1 + match.Distance)

	if match.Context != "" && match.Context != dialogueContext {
		p.metrics.RecordCorrectionLookup(ctx, "rejected", elapsed)
		p.log.DebugContext(ctx, "correction rejected: wrong dialogue context",
			slog.String("misheard", match.Misheard),
			slog.String("entry_context", match.Context),
			slog.String("dialogue_context", dialogueContext),
			slog.Float64("confidence", confidence))
		return Result{Text: utterance, Outcome: OutcomeUnchanged, Confidence: confidence}
	}

	switch {
	case confidence >= p.threshold:
		p.metrics.RecordCorrectionLookup(ctx, "corrected", elapsed)
		p.log.InfoContext(ctx, "applied transcript correction",
			slog.String("misheard", match.Misheard),
			slog.String("correction", match.Correction),
			slog.Float64("confidence", confidence))
		return Result{Text: match.Correction, Outcome: OutcomeCorrected, Confidence: confidence}
	case p.confirm && confidence >= confirmFloor:
		p.metrics.RecordCorrectionLookup(ctx, "low_confidence", elapsed)
		return Result{
			Text:       utterance,
			Outcome:    OutcomeNeedsConfirmation,
			Candidate:  match.Correction,
			Confidence: confidence,
		}
	default:
		p.metrics.RecordCorrectionLookup(ctx, "low_confidence", elapsed)
		p.log.DebugContext(ctx, "correction below threshold",
			slog.String("misheard", match.Misheard),
			slog.Float64("confidence", confidence))
		return Result{Text: utterance, Outcome: OutcomeUnchanged, Confidence: confidence}
	}
}
