package persona

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"focusroom/internal/types"
)

// Flattened metadata keys consumed from persona records.
const (
	keyPrimaryFilter      = "evaluation_framework_primary_filter"
	keyDecisionStyle      = "psychographics_decision_style"
	keyHesitationTriggers = "purchase_hesitation_triggers"
	keyEmotionalResonance = "emotional_language_resonance"
	keyMotivations        = "motivations"
	keyDisagreeable       = "disagreeable"
)

// ParseTraits extracts structured traits from flattened record metadata.
// Missing fields degrade to zero values; a malformed disagreeable weight
// falls back to the neutral 0.5.
func ParseTraits(meta map[string]string) types.Traits {
	return types.Traits{
		PrimaryFilter:      meta[keyPrimaryFilter],
		DecisionStyle:      meta[keyDecisionStyle],
		HesitationTriggers: parseList(meta[keyHesitationTriggers]),
		EmotionalResonance: parseList(meta[keyEmotionalResonance]),
		Motivations:        parseList(meta[keyMotivations]),
		Disagreeable:       parseWeight(meta[keyDisagreeable]),
	}
}

// Load fetches a persona record from the store and assembles an immutable
// Persona with parsed traits. The display name comes from the catalog entry,
// not the record: the store holds the document, the catalog names it.
func Load(ctx context.Context, store types.PersonaStore, entry CatalogEntry) (types.Persona, error) {
	rec, err := store.Get(ctx, entry.ID)
	if err != nil {
		return types.Persona{}, err
	}
	return types.Persona{
		ID:       rec.ID,
		Name:     entry.Name,
		Document: rec.Document,
		Traits:   ParseTraits(rec.Metadata),
	}, nil
}

// parseList decodes a metadata list value. Values arrive either as a JSON
// array string (from flattening) or as a plain comma-separated string.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return items
		}
	}

	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// parseWeight parses the disagreeable weight, clamped to [0, 1].
func parseWeight(raw string) float64 {
	if raw == "" {
		return 0.5
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0.5
	}
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
