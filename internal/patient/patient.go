// Package patient defines the reference patient record the agent answers
// identity questions from, plus a sample-record generator for demos and tests.
package patient

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Patient is the reference record for one verification call. The engine only
// reads it; it is never mutated during a session.
type Patient struct {
	FirstName         string `yaml:"first_name"`
	LastName          string `yaml:"last_name"`
	DateOfBirth       string `yaml:"date_of_birth"` // MM/DD/YYYY
	MemberNumber      string `yaml:"member_number"`
	GroupNumber       string `yaml:"group_number"`
	InsuranceProvider string `yaml:"insurance_provider"`
}

// FullName returns "First Last".
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

var (
	sampleFirstNames = []string{"John", "Maria", "James", "Sarah", "Michael"}
	sampleLastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones"}
	sampleProviders  = []string{"Delta Dental", "Cigna", "MetLife", "Aetna", "Guardian"}
)

// Sample generates a realistic random patient record using rng. Passing a
// seeded rng makes the result reproducible in tests.
func Sample(rng *rand.Rand) Patient {
	// Age between ~18 and ~80 years.
	ageDays := 6570 + rng.IntN(29200-6570)
	dob := time.Now().AddDate(0, 0, -ageDays)

	return Patient{
		FirstName:         sampleFirstNames[rng.IntN(len(sampleFirstNames))],
		LastName:          sampleLastNames[rng.IntN(len(sampleLastNames))],
		DateOfBirth:       fmt.Sprintf("%02d/%02d/%04d", dob.Month(), dob.Day(), dob.Year()),
		MemberNumber:      fmt.Sprintf("%09d", 100000000+rng.IntN(900000000)),
		GroupNumber:       fmt.Sprintf("%04d", 1000+rng.IntN(9000)),
		InsuranceProvider: sampleProviders[rng.IntN(len(sampleProviders))],
	}
}
