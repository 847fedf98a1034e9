package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTraits(t *testing.T) {
	meta := map[string]string{
		"evaluation_framework_primary_filter": "price vs longevity",
		"psychographics_decision_style":       "deliberate researcher",
		"purchase_hesitation_triggers":        `["subscriptions","vendor lock-in"]`,
		"emotional_language_resonance":        "craft, honesty",
		"motivations":                         `["family time"]`,
		"disagreeable":                        "0.8",
	}

	tr := ParseTraits(meta)

	assert.Equal(t, "price vs longevity", tr.PrimaryFilter)
	assert.Equal(t, "deliberate researcher", tr.DecisionStyle)
	assert.Equal(t, []string{"subscriptions", "vendor lock-in"}, tr.HesitationTriggers)
	assert.Equal(t, []string{"craft", "honesty"}, tr.EmotionalResonance)
	assert.Equal(t, []string{"family time"}, tr.Motivations)
	assert.Equal(t, 0.8, tr.Disagreeable)
}

func TestParseTraitsMissingFields(t *testing.T) {
	tr := ParseTraits(map[string]string{})
	assert.Empty(t, tr.PrimaryFilter)
	assert.Nil(t, tr.HesitationTriggers)
	assert.Equal(t, 0.5, tr.Disagreeable)
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0.5},
		{"0.3", 0.3},
		{"1.7", 1.0},
		{"-2", 0.0},
		{"not a number", 0.5},
	}
	for _, tt := range tests {
		if got := parseWeight(tt.raw); got != tt.want {
			t.Errorf("parseWeight(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
