package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"focusroom/internal/types"
)

func testPersona() types.Persona {
	return types.Persona{
		ID:       "persona_german_transfer_student_23",
		Name:     "Lena Meyer",
		Document: "Lena is a 23-year-old German transfer student studying industrial design.",
		Traits: types.Traits{
			PrimaryFilter:      "value for money",
			DecisionStyle:      "deliberate researcher",
			HesitationTriggers: []string{"hidden costs", "hype"},
			EmotionalResonance: []string{"sustainability", "craftsmanship"},
			Motivations:        []string{"independence"},
			Disagreeable:       0.3,
		},
	}
}

func TestDispositionBands(t *testing.T) {
	tests := []struct {
		weight float64
		want   string
	}{
		{0.0, "naturally agreeable"},
		{0.25, "naturally agreeable"},
		{0.26, "generally open-minded"},
		{0.5, "generally open-minded"},
		{0.75, "opinionated and assertive"},
		{0.76, "strongly opinionated"},
		{1.0, "strongly opinionated"},
	}
	for _, tt := range tests {
		got := Disposition(tt.weight)
		assert.True(t, strings.HasPrefix(got, tt.want), "weight %v: got %q", tt.weight, got)
	}
}

func TestStaticLayerOrder(t *testing.T) {
	got := Static(testPersona())

	sections := []string{
		"You are Lena Meyer.",
		"== WHO YOU ARE ==",
		"== YOUR DECISION-MAKING ANCHORS ==",
		"== YOUR DISPOSITION ==",
		"== RULES OF ENGAGEMENT ==",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(got, s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}

	assert.Contains(t, got, "value for money")
	assert.Contains(t, got, "hidden costs, hype")
	assert.Contains(t, got, "generally open-minded")
}

func TestSystemAppendsCallTimeLayers(t *testing.T) {
	b := NewBuilder()
	got := b.System(testPersona(), CallContext{
		TopicContext: "TOPIC: espresso machines\n\nSome context.",
		ActiveNames:  []string{"Lena Meyer", "Marcus Webb"},
		ImageBriefs:  "IMAGE 1: ad.png — a lifestyle ad.",
	})

	assert.Contains(t, got, "== CURRENT DISCUSSION CONTEXT ==")
	assert.Contains(t, got, "TOPIC: espresso machines")
	assert.Contains(t, got, "only Marcus Webb is in the room with you")
	assert.Contains(t, got, "<think>")
	assert.Contains(t, got, "== IMAGES SHARED IN THE ROOM ==")

	// Static layers always come before call-time layers.
	assert.Less(t,
		strings.Index(got, "== RULES OF ENGAGEMENT =="),
		strings.Index(got, "== CURRENT DISCUSSION CONTEXT =="))
}

// The room constraint must track the CURRENT roster, not the one from the
// first call, even though the static layers are cached.
func TestSystemRoomConstraintNotCached(t *testing.T) {
	b := NewBuilder()
	p := testPersona()

	first := b.System(p, CallContext{ActiveNames: []string{"Lena Meyer", "Marcus Webb"}})
	assert.Contains(t, first, "Marcus Webb is in the room")

	second := b.System(p, CallContext{ActiveNames: []string{"Lena Meyer"}})
	assert.NotContains(t, second, "Marcus Webb")
	assert.Contains(t, second, "You are alone with the moderator.")
}

func TestSystemOmitsEmptyOptionalLayers(t *testing.T) {
	b := NewBuilder()
	got := b.System(testPersona(), CallContext{ActiveNames: []string{"Lena Meyer"}})

	assert.NotContains(t, got, "== CURRENT DISCUSSION CONTEXT ==")
	assert.NotContains(t, got, "== IMAGES SHARED IN THE ROOM ==")
}

func TestStaticEmptyTraitLists(t *testing.T) {
	p := testPersona()
	p.Traits.Motivations = nil
	got := Static(p)
	assert.Contains(t, got, "What motivates you: (nothing specific)")
}
