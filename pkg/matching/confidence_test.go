package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateConfidence_NoRosterMatch(t *testing.T) {
	// Without a roster-level match no other signal matters.
	assert.Equal(t, 0.0, CalculateConfidence(1.0, false, true, true))
	assert.Equal(t, 0.0, CalculateConfidence(0.5, false))
	assert.Equal(t, 0.0, CalculateConfidence(0.0, false, true))
}

func TestCalculateConfidence_SingleSourceCap(t *testing.T) {
	tests := []struct {
		name       string
		fuzzyScore float64
		expected   float64
	}{
		{"perfect score capped", 1.0, 0.85},
		{"above cap is capped", 0.90, 0.85},
		{"at cap passes through", 0.85, 0.85},
		{"below cap passes through", 0.80, 0.80},
		{"zero passes through", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateConfidence(tt.fuzzyScore, true), 1e-9)
		})
	}
}

func TestCalculateConfidence_CorroborationBoost(t *testing.T) {
	// One agreeing secondary source adds exactly 0.05.
	assert.InDelta(t, 0.95, CalculateConfidence(0.90, true, true, false), 1e-9)

	// Two agreeing secondary sources add 0.10, clamped at 1.0.
	assert.InDelta(t, 1.0, CalculateConfidence(0.98, true, true, true), 1e-9)

	// A failed check contributes nothing: same as roster-only.
	assert.InDelta(t, 0.85, CalculateConfidence(0.90, true, false, false), 1e-9)
}

func TestCalculateConfidence_IsPure(t *testing.T) {
	first := CalculateConfidence(0.87, true, true)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CalculateConfidence(0.87, true, true))
	}
}
