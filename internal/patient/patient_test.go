package patient_test

import (
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/karienad/dental-insurance-ai-agent/internal/patient"
)

func TestFullName(t *testing.T) {
	t.Parallel()

	p := patient.Patient{FirstName: "Maria", LastName: "Santos"}
	if got := p.FullName(); got != "Maria Santos" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestSampleShape(t *testing.T) {
	t.Parallel()

	dobRe := regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	memberRe := regexp.MustCompile(`^\d{9}$`)
	groupRe := regexp.MustCompile(`^\d{4}$`)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		p := patient.Sample(rng)
		if p.FirstName == "" || p.LastName == "" || p.InsuranceProvider == "" {
			t.Fatalf("sample has empty names: %+v", p)
		}
		if !dobRe.MatchString(p.DateOfBirth) {
			t.Errorf("DOB %q is not MM/DD/YYYY", p.DateOfBirth)
		}
		if !memberRe.MatchString(p.MemberNumber) {
			t.Errorf("member number %q is not 9 digits", p.MemberNumber)
		}
		if !groupRe.MatchString(p.GroupNumber) {
			t.Errorf("group number %q is not 4 digits", p.GroupNumber)
		}
	}
}

func TestSampleIsReproducible(t *testing.T) {
	t.Parallel()

	a := patient.Sample(rand.New(rand.NewPCG(7, 7)))
	b := patient.Sample(rand.New(rand.NewPCG(7, 7)))
	if a != b {
		t.Errorf("same seed produced different patients:\n%+v\n%+v", a, b)
	}
}
