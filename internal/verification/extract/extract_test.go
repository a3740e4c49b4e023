package extract_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/karienad/dental-insurance-ai-agent/internal/resilience"
	"github.com/karienad/dental-insurance-ai-agent/internal/schema"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification/extract"
	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/llm/mock"
)

func mustField(t *testing.T, category schema.Category, name string) schema.FieldSpec {
	t.Helper()
	spec, ok := schema.Default().Field(category, name)
	if !ok {
		t.Fatalf("field %s.%s not in default schema", category, name)
	}
	return spec
}

func TestExtractFieldStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		reply    string
		want     string
		wantNone bool
	}{
		{name: "active", reply: "Active", want: "Active"},
		{name: "inactive", reply: "Inactive", want: "Inactive"},
		{name: "case insensitive", reply: "active", want: "Active"},
		{name: "quoted", reply: `"Active"`, want: "Active"},
		{name: "none", reply: "None", wantNone: true},
		{name: "off format", reply: "The patient is covered", wantNone: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &mock.Provider{Response: tt.reply}
			e := extract.New(p)
			got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryEligibility, "status"), "the patient is active")
			if err != nil {
				t.Fatalf("ExtractField: %v", err)
			}
			if tt.wantNone {
				if got != nil {
					t.Fatalf("want no value, got %v", got)
				}
				return
			}
			if got == nil || got.Text != tt.want {
				t.Fatalf("want status %q, got %v", tt.want, got)
			}
		})
	}
}

func TestExtractFieldDateValidation(t *testing.T) {
	t.Parallel()

	spec := mustField(t, schema.CategoryEligibility, "effective_date")

	tests := []struct {
		name  string
		reply string
		valid bool
	}{
		{name: "valid", reply: "01/15/2025", valid: true},
		{name: "out of range month and day", reply: "13/40/2024", valid: false},
		{name: "two components", reply: "01/2025", valid: false},
		{name: "non numeric component", reply: "Jan/01/2025", valid: false},
		{name: "zero month", reply: "00/10/2025", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &mock.Provider{Response: tt.reply}
			e := extract.New(p)
			got, err := e.ExtractField(context.Background(), spec, "effective January fifteenth")
			if err != nil {
				t.Fatalf("ExtractField: %v", err)
			}
			if tt.valid {
				if got == nil || got.Text != tt.reply {
					t.Fatalf("want date %q, got %v", tt.reply, got)
				}
			} else if got != nil {
				t.Fatalf("date %q should have been rejected, got %v", tt.reply, got)
			}
		})
	}
}

func TestExtractFieldDatePromptUsesCurrentYear(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Response: "01/01/2030"}
	e := extract.New(p, extract.WithClock(func() time.Time {
		return time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)
	}))
	if _, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryEligibility, "effective_date"), "start of the year"); err != nil {
		t.Fatalf("ExtractField: %v", err)
	}
	if len(p.Calls) != 1 {
		t.Fatalf("want 1 oracle call, got %d", len(p.Calls))
	}
	prompt := p.Calls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "2030") {
		t.Errorf("date prompt should mention the injected current year:\n%s", prompt)
	}
}

func TestExtractFieldAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply    string
		want     float64
		wantNone bool
	}{
		{reply: "1500", want: 1500},
		{reply: "1,500", want: 1500},
		{reply: "50.5", want: 50.5},
		{reply: "0", want: 0},
		{reply: "None", wantNone: true},
		{reply: "about fifty", wantNone: true},
	}
	for _, tt := range tests {
		p := &mock.Provider{Response: tt.reply}
		e := extract.New(p)
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryBenefits, "annual_maximum"), "fifteen hundred dollars")
		if err != nil {
			t.Fatalf("ExtractField(%q): %v", tt.reply, err)
		}
		if tt.wantNone {
			if got != nil {
				t.Errorf("reply %q: want no value, got %v", tt.reply, got)
			}
			continue
		}
		if got == nil || got.Amount != tt.want {
			t.Errorf("reply %q: want amount %v, got %v", tt.reply, tt.want, got)
		}
	}
}

func TestExtractFieldPercentageBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply    string
		want     int
		wantNone bool
	}{
		{reply: "50", want: 50},
		{reply: "100", want: 100},
		{reply: "0", want: 0},
		{reply: "120", wantNone: true},
		{reply: "-5", wantNone: true},
		{reply: "80.5", wantNone: true},
		{reply: "None", wantNone: true},
	}
	for _, tt := range tests {
		p := &mock.Provider{Response: tt.reply}
		e := extract.New(p)
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryCoverage, "basic"), "basic has half coverage")
		if err != nil {
			t.Fatalf("ExtractField(%q): %v", tt.reply, err)
		}
		if tt.wantNone {
			if got != nil {
				t.Errorf("reply %q: want no value, got %v", tt.reply, got)
			}
			continue
		}
		if got == nil || got.Percent != tt.want {
			t.Errorf("reply %q: want percent %d, got %v", tt.reply, tt.want, got)
		}
	}
}

func TestExtractFieldFrequency(t *testing.T) {
	t.Parallel()

	t.Run("valid json", func(t *testing.T) {
		t.Parallel()

		p := &mock.Provider{Response: `{"Cleanings": "twice per year", "X-rays": "once every 3 years"}`}
		e := extract.New(p)
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryLimitations, "frequency"), "cleanings twice a year")
		if err != nil {
			t.Fatalf("ExtractField: %v", err)
		}
		if got == nil || got.Frequency["Cleanings"] != "twice per year" || got.Frequency["X-rays"] != "once every 3 years" {
			t.Fatalf("unexpected frequency value: %v", got)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		t.Parallel()

		p := &mock.Provider{Response: "```json\n{\"Cleanings\": \"twice per year\"}\n```"}
		e := extract.New(p)
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryLimitations, "frequency"), "cleanings twice a year")
		if err != nil {
			t.Fatalf("ExtractField: %v", err)
		}
		if got == nil || got.Frequency["Cleanings"] != "twice per year" {
			t.Fatalf("unexpected frequency value: %v", got)
		}
	})

	t.Run("malformed falls back to raw utterance", func(t *testing.T) {
		t.Parallel()

		p := &mock.Provider{Response: "cleanings are twice a year I think"}
		e := extract.New(p)
		utterance := "cleanings twice a year"
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryLimitations, "frequency"), utterance)
		if err != nil {
			t.Fatalf("ExtractField: %v", err)
		}
		if got == nil || got.Frequency["original_response"] != utterance {
			t.Fatalf("want fallback under original_response, got %v", got)
		}
	})

	t.Run("none with spoken answer falls back to raw utterance", func(t *testing.T) {
		t.Parallel()

		p := &mock.Provider{Response: "None"}
		e := extract.New(p)
		utterance := "cleanings twice a year I think"
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryLimitations, "frequency"), utterance)
		if err != nil {
			t.Fatalf("ExtractField: %v", err)
		}
		if got == nil || got.Frequency["original_response"] != utterance {
			t.Fatalf("want fallback under original_response, got %v", got)
		}
	})

	t.Run("none with empty utterance yields nothing", func(t *testing.T) {
		t.Parallel()

		p := &mock.Provider{Response: "None"}
		e := extract.New(p)
		got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryLimitations, "frequency"), "   ")
		if err != nil {
			t.Fatalf("ExtractField: %v", err)
		}
		if got != nil {
			t.Fatalf("want no value, got %v", got)
		}
	})
}

func TestExtractFieldBooleanKind(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Response: "True"}
	e := extract.New(p)
	got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryLimitations, "missing_tooth"), "yes there is a missing tooth clause")
	if err != nil {
		t.Fatalf("ExtractField: %v", err)
	}
	if got == nil || got.Kind != schema.KindBoolean || !got.Bool {
		t.Fatalf("want boolean true, got %v", got)
	}
}

func TestExtractBoolean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply string
		want  extract.Tristate
	}{
		{reply: "True", want: extract.Yes},
		{reply: "False", want: extract.No},
		{reply: "None", want: extract.Unknown},
		{reply: "maybe", want: extract.Unknown},
	}
	for _, tt := range tests {
		p := &mock.Provider{Response: tt.reply}
		e := extract.New(p)
		got, err := e.ExtractBoolean(context.Background(), "Would you mind verifying patient insurance coverage?", "sure")
		if err != nil {
			t.Fatalf("ExtractBoolean(%q): %v", tt.reply, err)
		}
		if got != tt.want {
			t.Errorf("reply %q: want %v, got %v", tt.reply, tt.want, got)
		}
	}
}

func TestIsHelpOfferShortCircuit(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Response: "False"}
	e := extract.New(p)
	ok, err := e.IsHelpOffer(context.Background(), "Thanks for holding. How may I help you today?")
	if err != nil {
		t.Fatalf("IsHelpOffer: %v", err)
	}
	if !ok {
		t.Fatal("common help phrasing should be recognised without the oracle")
	}
	if len(p.Calls) != 0 {
		t.Fatalf("expected no oracle calls, got %d", len(p.Calls))
	}
}

func TestIsHelpOfferFallsBackToOracle(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Response: "True"}
	e := extract.New(p)
	ok, err := e.IsHelpOffer(context.Background(), "what do you need from me")
	if err != nil {
		t.Fatalf("IsHelpOffer: %v", err)
	}
	if !ok {
		t.Fatal("want help offer per oracle answer")
	}
	if len(p.Calls) != 1 {
		t.Fatalf("want 1 oracle call, got %d", len(p.Calls))
	}
}

func TestIsRelevant(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Response: "False"}
	e := extract.New(p)
	ok, err := e.IsRelevant(context.Background(), "What is the patient's current eligibility status?", "nice weather today")
	if err != nil {
		t.Fatalf("IsRelevant: %v", err)
	}
	if ok {
		t.Fatal("off-topic chatter should not be relevant")
	}
}

func TestExtractFieldOracleError(t *testing.T) {
	t.Parallel()

	oracleErr := errors.New("backend down")
	p := &mock.Provider{Err: oracleErr}
	e := extract.New(p)
	got, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryEligibility, "status"), "active")
	if err == nil {
		t.Fatal("want error from unreachable oracle")
	}
	if !errors.Is(err, oracleErr) {
		t.Fatalf("want wrapped oracle error, got %v", err)
	}
	if got != nil {
		t.Fatalf("want no value alongside error, got %v", got)
	}
}

func TestOracleBreakerFailsFastWhenOpen(t *testing.T) {
	t.Parallel()

	oracleErr := errors.New("backend down")
	p := &mock.Provider{Err: oracleErr}
	e := extract.New(p,
		extract.WithRetry(resilience.RetryConfig{Attempts: 1, Delay: time.Millisecond}),
		extract.WithBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "oracle",
			MaxFailures: 2,
		})),
	)
	ctx := context.Background()
	field := mustField(t, schema.CategoryEligibility, "status")

	for i := 0; i < 2; i++ {
		if _, err := e.ExtractField(ctx, field, "active"); !errors.Is(err, oracleErr) {
			t.Fatalf("call #%d: want provider error, got %v", i, err)
		}
	}

	_, err := e.ExtractField(ctx, field, "active")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("want ErrCircuitOpen after the breaker trips, got %v", err)
	}
	if len(p.Calls) != 2 {
		t.Errorf("open breaker must not reach the provider, got %d calls", len(p.Calls))
	}
}

func TestAskSendsLowTemperaturePrompt(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Response: "Active"}
	e := extract.New(p)
	if _, err := e.ExtractField(context.Background(), mustField(t, schema.CategoryEligibility, "status"), "active"); err != nil {
		t.Fatalf("ExtractField: %v", err)
	}
	req := p.Calls[0].Req
	if req.Temperature != 0.1 {
		t.Errorf("want temperature 0.1, got %v", req.Temperature)
	}
	if req.MaxTokens != 100 {
		t.Errorf("want max tokens 100, got %d", req.MaxTokens)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("want a single user message, got %+v", req.Messages)
	}
}
