package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/karienad/dental-insurance-ai-agent/internal/correction"
	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index"
	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index/memindex"
	"github.com/karienad/dental-insurance-ai-agent/internal/flow"
	"github.com/karienad/dental-insurance-ai-agent/internal/patient"
	"github.com/karienad/dental-insurance-ai-agent/internal/report"
	"github.com/karienad/dental-insurance-ai-agent/internal/schema"
	"github.com/karienad/dental-insurance-ai-agent/internal/session"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification/extract"
)

var testPatient = patient.Patient{
	FirstName:         "James",
	LastName:          "Brown",
	DateOfBirth:       "07/04/1970",
	MemberNumber:      "987654321",
	GroupNumber:       "4242",
	InsuranceProvider: "Delta Dental",
}

type scriptedOracle struct {
	values  map[string]verification.FieldValue
	consent extract.Tristate
	help    bool
}

func (o *scriptedOracle) ExtractField(_ context.Context, spec schema.FieldSpec, _ string) (*verification.FieldValue, error) {
	v, ok := o.values[spec.Name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (o *scriptedOracle) ExtractBoolean(context.Context, string, string) (extract.Tristate, error) {
	return o.consent, nil
}

func (o *scriptedOracle) IsHelpOffer(context.Context, string) (bool, error) {
	return o.help, nil
}

// memoryWriter records persisted summaries.
type memoryWriter struct {
	sessions  []string
	summaries []verification.Summary
	err       error
}

func (w *memoryWriter) Write(_ context.Context, sessionID string, s verification.Summary) error {
	if w.err != nil {
		return w.err
	}
	w.sessions = append(w.sessions, sessionID)
	w.summaries = append(w.summaries, s)
	return nil
}

func newRunner(t *testing.T, o *scriptedOracle, w report.Writer, opts ...session.Option) *session.Runner {
	t.Helper()
	m := flow.NewManager(testPatient, o)
	pipe := correction.New(memindex.New([]index.Entry{
		{Misheard: "annual max come", Correction: "annual maximum", Context: correction.ContextVerification},
	}), nil)
	if w != nil {
		opts = append(opts, session.WithWriters(w))
	}
	return session.New("test-session", testPatient, m, pipe, opts...)
}

func TestGreeting(t *testing.T) {
	t.Parallel()

	r := newRunner(t, &scriptedOracle{}, nil, session.WithOfficeName("Bright Smile Dental"))
	g := r.Greeting()
	if !strings.Contains(g, "Bright Smile Dental") {
		t.Errorf("greeting must name the office, got %q", g)
	}
	if !strings.Contains(g, "James Brown") {
		t.Errorf("greeting must name the patient, got %q", g)
	}
}

func TestQuitPersistsSummary(t *testing.T) {
	t.Parallel()

	w := &memoryWriter{}
	r := newRunner(t, &scriptedOracle{}, w)

	reply := r.HandleTurn(context.Background(), "quit")
	if !reply.Done {
		t.Fatal("quit must end the session")
	}
	if len(w.summaries) != 1 {
		t.Fatalf("want 1 persisted summary, got %d", len(w.summaries))
	}
	if w.sessions[0] != "test-session" {
		t.Errorf("want session id recorded, got %q", w.sessions[0])
	}
	if w.summaries[0].Status != verification.StatusIncomplete {
		t.Errorf("nothing was collected, want incomplete, got %q", w.summaries[0].Status)
	}
	if !r.Done() {
		t.Error("runner must report done")
	}

	again := r.HandleTurn(context.Background(), "hello?")
	if !again.Done {
		t.Error("turns after the end must stay done")
	}
	if len(w.summaries) != 1 {
		t.Error("summary must not be persisted twice")
	}
}

func TestWriterFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	w := &memoryWriter{err: errors.New("disk full")}
	r := newRunner(t, &scriptedOracle{}, w)
	reply := r.HandleTurn(context.Background(), "quit")
	if !reply.Done {
		t.Fatal("persistence failure must not keep the session alive")
	}
}

func TestIdentityTurnsFlowThrough(t *testing.T) {
	t.Parallel()

	r := newRunner(t, &scriptedOracle{}, nil)
	reply := r.HandleTurn(context.Background(), "What is the patient's date of birth?")
	// Speech formatting turns the date slashes into pause markers.
	if !strings.Contains(reply.Message, "07..04..1970") {
		t.Errorf("want speech-formatted DOB readback, got %q", reply.Message)
	}
}

func TestMemberIDSpeechFormatting(t *testing.T) {
	t.Parallel()

	r := newRunner(t, &scriptedOracle{}, nil)
	reply := r.HandleTurn(context.Background(), "Can you give me the member ID?")
	if !strings.Contains(reply.Message, "member I..D is 9 8 7 6 5 4 3 2 1") {
		t.Errorf("want spelled-out member ID, got %q", reply.Message)
	}
}

func TestCorrectionAppliedBeforeFlow(t *testing.T) {
	t.Parallel()

	// Drive the session into the verification phase, then answer with a
	// misheard phrase that the index corrects before extraction.
	o := &scriptedOracle{
		values: map[string]verification.FieldValue{
			"status": verification.NewStatus("Active"),
		},
	}
	r := newRunner(t, o, nil)
	ctx := context.Background()

	r.HandleTurn(ctx, "date of birth?")
	r.HandleTurn(ctx, "and the member id?")
	o.help = true
	r.HandleTurn(ctx, "how may I help you?")
	o.consent = extract.Yes
	reply := r.HandleTurn(ctx, "sure")
	if !strings.Contains(reply.Message, "eligibility status") {
		t.Fatalf("want first verification question, got %q", reply.Message)
	}

	reply = r.HandleTurn(ctx, "annual max come")
	// The correction applies (exact index hit in verification context) and
	// the oracle extracts the status value, moving to the next question.
	if !strings.Contains(reply.Message, "effective date") {
		t.Errorf("want next question after corrected turn, got %q", reply.Message)
	}
}

func TestCrossContextCorrectionRejected(t *testing.T) {
	t.Parallel()

	// An exact index hit whose entry is labelled for the verification phase
	// must not fire during the identity exchange.
	r := newRunner(t, &scriptedOracle{}, nil)
	reply := r.HandleTurn(context.Background(), "annual max come")
	if !strings.Contains(reply.Message, "What information would you like") {
		t.Errorf("utterance must reach identity handling uncorrected, got %q", reply.Message)
	}
}

func TestPendingConfirmation(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{
		values: map[string]verification.FieldValue{
			"status": verification.NewStatus("Active"),
		},
	}
	m := flow.NewManager(testPatient, o)
	// Index entry scores in the ask-first band against the utterance below.
	pipe := correction.New(memindex.New([]index.Entry{
		{Misheard: "annual max come", Correction: "annual maximum", Context: correction.ContextPatientInfo},
	}), nil, correction.WithThreshold(0.99), correction.WithConfirmation(true))
	r := session.New("confirm-test", testPatient, m, pipe)
	ctx := context.Background()

	reply := r.HandleTurn(ctx, "annual max comb")
	if !strings.HasPrefix(reply.Message, "Did you mean:") {
		t.Fatalf("want confirmation question, got %q", reply.Message)
	}

	reply = r.HandleTurn(ctx, "nope, that's wrong")
	if reply.Message != "Could you please rephrase that?" {
		t.Errorf("denied confirmation must ask for a rephrase, got %q", reply.Message)
	}
}

func TestConfirmation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want session.ConfirmState
	}{
		{in: "yes", want: session.Confirmed},
		{in: "yeah that's correct", want: session.Confirmed},
		{in: "yep", want: session.Confirmed},
		{in: "no", want: session.Denied},
		{in: "that's wrong", want: session.Denied},
		{in: "hmm maybe", want: session.Unconfirmed},
	}
	for _, tt := range tests {
		if got := session.Confirmation(tt.in); got != tt.want {
			t.Errorf("Confirmation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompletionPersistsAndSaysGoodbye(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{
		values: map[string]verification.FieldValue{
			"status":            verification.NewStatus("Active"),
			"effective_date":    verification.NewDate("01/01/2026"),
			"plan_type":         verification.NewPlanType("PPO"),
			"annual_maximum":    verification.NewAmount(1500),
			"remaining_maximum": verification.NewAmount(1200),
			"deductible":        verification.NewAmount(50),
			"deductible_met":    verification.NewAmount(0),
			"benefit_period":    verification.NewPeriod("Calendar Year"),
			"preventive":        verification.NewPercentage(100),
			"basic":             verification.NewPercentage(80),
			"major":             verification.NewPercentage(50),
			"periodontics":      verification.NewPercentage(80),
			"endodontics":       verification.NewPercentage(80),
			"waiting_period":    verification.NewPeriod("None"),
			"frequency":         verification.NewFrequency(map[string]string{"Cleanings": "twice per year"}),
			"missing_tooth":     verification.NewBoolean(true),
			"pre_authorization": verification.NewBoolean(false),
		},
	}
	w := &memoryWriter{}
	r := newRunner(t, o, w)
	ctx := context.Background()

	r.HandleTurn(ctx, "date of birth?")
	r.HandleTurn(ctx, "member id?")
	o.help = true
	r.HandleTurn(ctx, "how may I help you?")
	o.consent = extract.Yes
	r.HandleTurn(ctx, "sure")

	var last session.Reply
	for i := 0; i < 40 && !r.Done(); i++ {
		last = r.HandleTurn(ctx, "an answer")
	}

	if !last.Done {
		t.Fatal("session did not complete")
	}
	if !strings.Contains(last.Message, "Verification complete!") {
		t.Errorf("want completion message, got %q", last.Message)
	}
	if !strings.Contains(last.Message, "Have a nice day") {
		t.Errorf("want farewell appended, got %q", last.Message)
	}
	if len(w.summaries) != 1 {
		t.Fatalf("want 1 persisted summary, got %d", len(w.summaries))
	}
	if w.summaries[0].Status != verification.StatusComplete {
		t.Errorf("want complete status, got %q", w.summaries[0].Status)
	}
}
