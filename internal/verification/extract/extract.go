// Package extract turns free-form call-center utterances into typed
// verification values by prompting an LLM oracle with constrained output
// formats and validating whatever comes back.
//
// The oracle is treated as untrusted: every response goes through kind
// specific validation, and anything that fails it is reported as "no value"
// rather than an error. Only transport failures surface as errors.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/karienad/dental-insurance-ai-agent/internal/observe"
	"github.com/karienad/dental-insurance-ai-agent/internal/resilience"
	"github.com/karienad/dental-insurance-ai-agent/internal/schema"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification"
	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/llm"
)

// Extraction prompts want deterministic, format-following output.
const (
	oracleTemperature = 0.1
	oracleMaxTokens   = 100
)

// frequencyFallbackKey is the catch-all key used when the oracle's frequency
// answer is not parseable JSON but the caller clearly said something.
const frequencyFallbackKey = "original_response"

// Tristate is a yes/no answer that may also be indeterminate. Consent and
// binary verification questions use it so "unclear" can be re-prompted
// instead of being coerced to false.
type Tristate int

const (
	Unknown Tristate = iota
	Yes
	No
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Extractor answers typed extraction questions using an llm.Provider.
// It is safe for concurrent use if the underlying provider is.
type Extractor struct {
	provider llm.Provider
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
	metrics  *observe.Metrics
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRetry sets the retry policy for oracle calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(e *Extractor) { e.retry = cfg }
}

// WithBreaker sets the circuit breaker guarding oracle calls.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(e *Extractor) { e.breaker = cb }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithClock overrides the time source used for current-year date prompts.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New returns an Extractor backed by provider.
func New(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.breaker == nil {
		e.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "oracle"})
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// ExtractField extracts a value of spec.Kind from utterance. It returns
// (nil, nil) when the oracle finds no value or the value fails validation,
// and a non-nil error only when the oracle itself is unreachable.
func (e *Extractor) ExtractField(ctx context.Context, spec schema.FieldSpec, utterance string) (*verification.FieldValue, error) {
	var prompt string
	switch spec.Kind {
	case schema.KindStatus:
		prompt = statusPrompt(spec.Question, utterance)
	case schema.KindDate:
		prompt = datePrompt(spec.Question, utterance, e.now().Year())
	case schema.KindAmount:
		prompt = amountPrompt(spec.Question, utterance)
	case schema.KindPercentage:
		prompt = percentagePrompt(spec.Question, utterance)
	case schema.KindPlanType:
		prompt = planTypePrompt(spec.Question, utterance)
	case schema.KindPeriod:
		prompt = periodPrompt(spec.Question, utterance)
	case schema.KindFrequencyMap:
		prompt = frequencyPrompt(spec.Question, utterance)
	case schema.KindBoolean:
		t, err := e.ExtractBoolean(ctx, spec.Question, utterance)
		if err != nil || t == Unknown {
			return nil, err
		}
		v := verification.NewBoolean(t == Yes)
		return &v, nil
	default:
		return nil, fmt.Errorf("extract: unsupported value kind %q", spec.Kind)
	}

	raw, err := e.ask(ctx, string(spec.Kind), prompt)
	if err != nil {
		return nil, err
	}
	value, ok := parseValue(spec.Kind, raw, utterance)
	e.recordExtraction(ctx, spec.Kind, ok)
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// ExtractBoolean interprets utterance as a yes/no answer to question.
func (e *Extractor) ExtractBoolean(ctx context.Context, question, utterance string) (Tristate, error) {
	raw, err := e.ask(ctx, "boolean", booleanPrompt(question, utterance))
	if err != nil {
		return Unknown, err
	}
	t := parseTristate(raw)
	e.recordExtraction(ctx, schema.KindBoolean, t != Unknown)
	return t, nil
}

// IsRelevant reports whether utterance plausibly contains an answer to
// question. The correction pipeline consults it before any fuzzy lookup; a
// relevant answer is used as heard, even when misheard words are present.
func (e *Extractor) IsRelevant(ctx context.Context, question, utterance string) (bool, error) {
	raw, err := e.ask(ctx, "relevance", relevancePrompt(question, utterance))
	if err != nil {
		return false, err
	}
	return parseTristate(raw) == Yes, nil
}

// IsHelpOffer reports whether utterance is the call-center agent offering to
// help ("How may I assist you?"). Common phrasings short-circuit without an
// oracle round trip.
func (e *Extractor) IsHelpOffer(ctx context.Context, utterance string) (bool, error) {
	if isHelpPhrase(utterance) {
		return true, nil
	}
	raw, err := e.ask(ctx, "help_offer", helpOfferPrompt(utterance))
	if err != nil {
		return false, err
	}
	return parseTristate(raw) == Yes, nil
}

var helpPhrases = []string{
	"how can i help",
	"how may i help",
	"how can i assist",
	"how may i assist",
	"what can i do for you",
	"what can i help you with",
	"what would you like to verify",
}

func isHelpPhrase(utterance string) bool {
	u := strings.ToLower(utterance)
	for _, p := range helpPhrases {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}

// ask sends a single-prompt completion through the retry policy and circuit
// breaker and returns the cleaned response text. When the breaker is open
// the call fails fast without reaching the provider.
func (e *Extractor) ask(ctx context.Context, promptKind, prompt string) (string, error) {
	start := time.Now()
	resp, err := resilience.DoWithResult(ctx, e.retry, func(ctx context.Context) (*llm.CompletionResponse, error) {
		var resp *llm.CompletionResponse
		execErr := e.breaker.Execute(func() error {
			var callErr error
			resp, callErr = e.provider.Complete(ctx, llm.CompletionRequest{
				Messages:    []llm.Message{{Role: "user", Content: prompt}},
				Temperature: oracleTemperature,
				MaxTokens:   oracleMaxTokens,
			})
			return callErr
		})
		return resp, execErr
	})
	e.metrics.RecordOracleDuration(ctx, promptKind, time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordOracleError(ctx, promptKind)
		return "", fmt.Errorf("extract: oracle %s: %w", promptKind, err)
	}
	return cleanResponse(resp.Content), nil
}

// cleanResponse strips markdown fences, surrounding quotes, and whitespace
// that chat models habitually wrap short answers in.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func isNone(s string) bool {
	return s == "" || strings.EqualFold(s, noneSentinel)
}

// parseValue validates the oracle's raw answer for kind and builds the typed
// value. Validation is deliberately strict: a malformed answer is dropped so
// the caller re-asks, never stored.
func parseValue(kind schema.ValueKind, raw, utterance string) (verification.FieldValue, bool) {
	if isNone(raw) && kind != schema.KindFrequencyMap {
		return verification.FieldValue{}, false
	}
	switch kind {
	case schema.KindStatus:
		switch {
		case strings.EqualFold(raw, "Active"):
			return verification.NewStatus("Active"), true
		case strings.EqualFold(raw, "Inactive"):
			return verification.NewStatus("Inactive"), true
		}
		return verification.FieldValue{}, false
	case schema.KindDate:
		if !validDate(raw) {
			return verification.FieldValue{}, false
		}
		return verification.NewDate(raw), true
	case schema.KindAmount:
		amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return verification.FieldValue{}, false
		}
		return verification.NewAmount(amount), true
	case schema.KindPercentage:
		pct, err := strconv.Atoi(raw)
		if err != nil || pct < 0 || pct > 100 {
			return verification.FieldValue{}, false
		}
		return verification.NewPercentage(pct), true
	case schema.KindPlanType:
		return verification.NewPlanType(raw), true
	case schema.KindPeriod:
		return verification.NewPeriod(raw), true
	case schema.KindFrequencyMap:
		return parseFrequency(raw, utterance)
	default:
		return verification.FieldValue{}, false
	}
}

// validDate requires exactly MM/DD/YYYY with all-numeric components and
// in-range month and day. Oracle answers like "13/40/2024" are rejected here
// rather than trusted.
func validDate(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		nums[i] = n
	}
	month, day := nums[0], nums[1]
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// parseFrequency insists on a flat string-to-string JSON object. When the
// oracle returned something else but the caller did say something, the raw
// utterance is preserved under a catch-all key so the answer is not lost.
func parseFrequency(raw, utterance string) (verification.FieldValue, bool) {
	var freq map[string]string
	if err := json.Unmarshal([]byte(raw), &freq); err == nil && len(freq) > 0 {
		return verification.NewFrequency(freq), true
	}
	if strings.TrimSpace(utterance) == "" {
		return verification.FieldValue{}, false
	}
	return verification.NewFrequency(map[string]string{frequencyFallbackKey: utterance}), true
}

func parseTristate(raw string) Tristate {
	switch {
	case strings.EqualFold(raw, "True"):
		return Yes
	case strings.EqualFold(raw, "False"):
		return No
	default:
		return Unknown
	}
}

func (e *Extractor) recordExtraction(ctx context.Context, kind schema.ValueKind, ok bool) {
	status := "extracted"
	if !ok {
		status = "empty"
	}
	e.metrics.RecordExtraction(ctx, string(kind), status)
}
