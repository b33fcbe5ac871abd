package analytics

import "testing"

func TestNormalizeDays(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		expected int
	}{
		{name: "zero defaults", days: 0, expected: DefaultDays},
		{name: "negative defaults", days: -3, expected: DefaultDays},
		{name: "in range unchanged", days: 30, expected: 30},
		{name: "one is valid", days: 1, expected: 1},
		{name: "over max clamped", days: 365, expected: MaxDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDays(tt.days); got != tt.expected {
				t.Errorf("NormalizeDays(%d) = %d, want %d", tt.days, got, tt.expected)
			}
		})
	}
}
