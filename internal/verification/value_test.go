package verification_test

import (
	"testing"

	"github.com/karienad/dental-insurance-ai-agent/internal/verification"
)

func TestFieldValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    verification.FieldValue
		want string
	}{
		{name: "status", v: verification.NewStatus("Active"), want: "Active"},
		{name: "date", v: verification.NewDate("01/01/2026"), want: "01/01/2026"},
		{name: "amount", v: verification.NewAmount(1500), want: "1500"},
		{name: "amount with cents", v: verification.NewAmount(50.5), want: "50.5"},
		{name: "percentage", v: verification.NewPercentage(80), want: "80%"},
		{name: "boolean yes", v: verification.NewBoolean(true), want: "yes"},
		{name: "boolean no", v: verification.NewBoolean(false), want: "no"},
		{
			name: "frequency sorted by service",
			v: verification.NewFrequency(map[string]string{
				"X-rays":    "once every 3 years",
				"Cleanings": "twice per year",
			}),
			want: "Cleanings: twice per year; X-rays: once every 3 years",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
