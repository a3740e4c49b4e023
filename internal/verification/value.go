package verification

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/karienad/dental-insurance-ai-agent/internal/schema"
)

// FieldValue is a typed verification answer. The Kind tag selects which of
// the payload fields is meaningful; construct values with the NewXxx helpers
// rather than by struct literal.
type FieldValue struct {
	Kind schema.ValueKind

	// Text holds status, date, plan-type, and period values.
	Text string

	// Amount holds dollar amounts.
	Amount float64

	// Percent holds coverage percentages in [0, 100].
	Percent int

	// Bool holds yes/no answers.
	Bool bool

	// Frequency holds service-type → frequency-description mappings.
	Frequency map[string]string
}

// NewStatus returns a status value ("Active" or "Inactive").
func NewStatus(status string) FieldValue {
	return FieldValue{Kind: schema.KindStatus, Text: status}
}

// NewDate returns a date value in MM/DD/YYYY form.
func NewDate(date string) FieldValue {
	return FieldValue{Kind: schema.KindDate, Text: date}
}

// NewAmount returns a dollar-amount value.
func NewAmount(amount float64) FieldValue {
	return FieldValue{Kind: schema.KindAmount, Amount: amount}
}

// NewPercentage returns a coverage-percentage value.
func NewPercentage(percent int) FieldValue {
	return FieldValue{Kind: schema.KindPercentage, Percent: percent}
}

// NewPlanType returns a plan-type value.
func NewPlanType(planType string) FieldValue {
	return FieldValue{Kind: schema.KindPlanType, Text: planType}
}

// NewPeriod returns a benefit/waiting period value.
func NewPeriod(period string) FieldValue {
	return FieldValue{Kind: schema.KindPeriod, Text: period}
}

// NewFrequency returns a frequency-limitation value.
func NewFrequency(freq map[string]string) FieldValue {
	return FieldValue{Kind: schema.KindFrequencyMap, Frequency: freq}
}

// NewBoolean returns a yes/no value.
func NewBoolean(b bool) FieldValue {
	return FieldValue{Kind: schema.KindBoolean, Bool: b}
}

// String renders the value for logs and spoken summaries.
func (v FieldValue) String() string {
	switch v.Kind {
	case schema.KindAmount:
		return strconv.FormatFloat(v.Amount, 'f', -1, 64)
	case schema.KindPercentage:
		return strconv.Itoa(v.Percent) + "%"
	case schema.KindBoolean:
		if v.Bool {
			return "yes"
		}
		return "no"
	case schema.KindFrequencyMap:
		keys := make([]string, 0, len(v.Frequency))
		for k := range v.Frequency {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.Frequency[k]))
		}
		return strings.Join(parts, "; ")
	default:
		return v.Text
	}
}

// MarshalJSON encodes the value as its natural JSON shape: a string for
// textual kinds, a number for amounts and percentages, a bool for booleans,
// and an object for frequency maps.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case schema.KindAmount:
		return json.Marshal(v.Amount)
	case schema.KindPercentage:
		return json.Marshal(v.Percent)
	case schema.KindBoolean:
		return json.Marshal(v.Bool)
	case schema.KindFrequencyMap:
		return json.Marshal(v.Frequency)
	default:
		return json.Marshal(v.Text)
	}
}
