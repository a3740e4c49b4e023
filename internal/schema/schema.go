// Package schema defines the static insurance-verification question schema:
// the ordered verification categories, the ordered fields within each
// category, and each field's value kind and question text.
//
// The schema is pure data. It is defined once at startup and never mutated;
// ordering of categories and of fields within a category is significant and
// drives the order in which the flow manager asks questions.
package schema

import "fmt"

// Category identifies one verification category.
type Category string

const (
	CategoryEligibility Category = "eligibility"
	CategoryBenefits    Category = "benefits"
	CategoryCoverage    Category = "coverage"
	CategoryLimitations Category = "limitations"
)

// IsValid reports whether c is a recognised category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEligibility, CategoryBenefits, CategoryCoverage, CategoryLimitations:
		return true
	}
	return false
}

// ValueKind selects the typed extractor and validation rules for a field.
type ValueKind string

const (
	KindStatus       ValueKind = "status"
	KindDate         ValueKind = "date"
	KindAmount       ValueKind = "amount"
	KindPercentage   ValueKind = "percentage"
	KindPlanType     ValueKind = "plan_type"
	KindPeriod       ValueKind = "period"
	KindFrequencyMap ValueKind = "frequency_map"
	KindBoolean      ValueKind = "boolean"
)

// IsValid reports whether k is a recognised value kind.
func (k ValueKind) IsValid() bool {
	switch k {
	case KindStatus, KindDate, KindAmount, KindPercentage,
		KindPlanType, KindPeriod, KindFrequencyMap, KindBoolean:
		return true
	}
	return false
}

// FieldSpec describes a single verification slot: which category it belongs
// to, its name, the question the agent asks to fill it, and the value kind
// governing extraction and validation. FieldSpecs are immutable.
type FieldSpec struct {
	Category Category
	Name     string
	Question string
	Kind     ValueKind
}

// Schema is the read-only verification question schema.
type Schema struct {
	categories []Category
	fields     map[Category][]FieldSpec
	intros     map[Category]string
}

// Default returns the dental insurance verification schema: four categories
// traversed eligibility → benefits → coverage → limitations, with fields
// asked in declaration order.
func Default() *Schema {
	s := &Schema{
		categories: []Category{
			CategoryEligibility,
			CategoryBenefits,
			CategoryCoverage,
			CategoryLimitations,
		},
		fields: map[Category][]FieldSpec{
			CategoryEligibility: {
				{CategoryEligibility, "status", "What is the patient's current eligibility status?", KindStatus},
				{CategoryEligibility, "effective_date", "What is the effective date of coverage?", KindDate},
				{CategoryEligibility, "plan_type", "What type of plan does the patient have?", KindPlanType},
			},
			CategoryBenefits: {
				{CategoryBenefits, "annual_maximum", "What is the annual maximum benefit?", KindAmount},
				{CategoryBenefits, "remaining_maximum", "What is the remaining benefit amount?", KindAmount},
				{CategoryBenefits, "deductible", "What is the deductible amount?", KindAmount},
				{CategoryBenefits, "deductible_met", "How much of the deductible has been met? Please provide dollar amount.", KindAmount},
				{CategoryBenefits, "benefit_period", "What is the benefit period?", KindPeriod},
			},
			CategoryCoverage: {
				{CategoryCoverage, "preventive", "What is the coverage percentage for preventive services?", KindPercentage},
				{CategoryCoverage, "basic", "What is the coverage percentage for basic services?", KindPercentage},
				{CategoryCoverage, "major", "What is the coverage percentage for major services?", KindPercentage},
				{CategoryCoverage, "periodontics", "What is the coverage percentage for periodontal services?", KindPercentage},
				{CategoryCoverage, "endodontics", "What is the coverage percentage for endodontic services?", KindPercentage},
			},
			CategoryLimitations: {
				{CategoryLimitations, "waiting_period", "Are there any waiting periods?", KindPeriod},
				{CategoryLimitations, "frequency", "What are the frequency limitations?", KindFrequencyMap},
				{CategoryLimitations, "missing_tooth", "Is there a missing tooth clause?", KindBoolean},
				{CategoryLimitations, "pre_authorization", "Are there any pre-authorization requirements?", KindBoolean},
			},
		},
		intros: map[Category]string{
			CategoryEligibility: "Let's verify eligibility. ",
			CategoryBenefits:    "Now for benefits. ",
			CategoryCoverage:    "Let's check coverage percentages. ",
			CategoryLimitations: "Finally, about limitations. ",
		},
	}
	return s
}

// Categories returns the ordered category sequence. Callers must not mutate
// the returned slice.
func (s *Schema) Categories() []Category {
	return s.categories
}

// Fields returns the ordered FieldSpecs for category. Unknown categories are
// a programmer error and panic. Callers must not mutate the returned slice.
func (s *Schema) Fields(category Category) []FieldSpec {
	fields, ok := s.fields[category]
	if !ok {
		panic(fmt.Sprintf("schema: unknown category %q", category))
	}
	return fields
}

// Field returns the FieldSpec for (category, name) and whether it exists.
func (s *Schema) Field(category Category, name string) (FieldSpec, bool) {
	for _, f := range s.fields[category] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// QuestionFor returns the question text for (category, field). Unknown keys
// are a programmer error and panic.
func (s *Schema) QuestionFor(category Category, field string) string {
	f, ok := s.Field(category, field)
	if !ok {
		panic(fmt.Sprintf("schema: unknown field %q.%q", category, field))
	}
	return f.Question
}

// Intro returns the transition preamble spoken when entering category.
func (s *Schema) Intro(category Category) string {
	return s.intros[category]
}
