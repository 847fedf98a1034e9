// Package types holds the shared data model for the focus group room:
// personas, exchanges, transcript entries, turn events, and the interfaces
// the orchestration core needs from its external collaborators.
package types

import (
	"strings"
	"time"
)

// =============================================================================
// PERSONA
// =============================================================================

// Traits are the structured behavioral fields attached to a persona record.
// They drive the decision-making anchors in the system prompt.
type Traits struct {
	PrimaryFilter      string   // evaluation_framework.primary_filter
	DecisionStyle      string   // psychographics_decision_style
	HesitationTriggers []string // purchase_hesitation_triggers
	EmotionalResonance []string // emotional_language_resonance
	Motivations        []string // motivations

	// Disagreeable is the 0.0–1.0 disposition weight. 0.0 caves easily,
	// 1.0 holds ground. Out-of-range values are clamped at load time.
	Disagreeable float64
}

// Persona is a fully loaded synthetic identity. Immutable for the lifetime
// of a room session.
type Persona struct {
	ID       string // stable document-store key
	Name     string // display name, e.g. "Lena"
	Document string // narrative identity text
	Traits   Traits
}

// Handle returns the lowercase first-name mention handle for the persona,
// e.g. "Lena M." -> "lena". Used for @mentions and history keys.
func (p Persona) Handle() string {
	first := p.Name
	if i := strings.IndexAny(first, " \t"); i >= 0 {
		first = first[:i]
	}
	return strings.ToLower(first)
}

// HistoryKey returns the session-history cache key for the persona.
// Key scheme: session:<handle>:messages.
func (p Persona) HistoryKey() string {
	return "session:" + p.Handle() + ":messages"
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Exchange roles as persisted in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Exchange is one (speaker, utterance) pair in a persona's model-visible
// history. Hidden thinking is never stored here.
type Exchange struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnEvent is the ephemeral result of one model call during a turn.
// It is consumed immediately by the renderer and the history-persist step.
type TurnEvent struct {
	PersonaID   string
	PersonaName string
	Visible     string
	Thinking    string
	Err         error // non-nil when inference failed for this persona
}

// OK reports whether the turn produced a usable reply.
func (e TurnEvent) OK() bool { return e.Err == nil }

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript entry kinds.
const (
	EntryUser    = "user"
	EntryPersona = "persona"
	EntrySystem  = "system"
)

// TranscriptEntry is one timestamped line of the full in-memory session log,
// including hidden thinking. The transcript feeds the summary composer only;
// it is never shown to the model.
type TranscriptEntry struct {
	Timestamp   time.Time
	Kind        string // user, persona, system
	PersonaID   string
	PersonaName string
	Thinking    string
	Content     string
}

// NewEntry builds a transcript entry stamped with the current time.
func NewEntry(kind, content string) TranscriptEntry {
	return TranscriptEntry{Timestamp: time.Now(), Kind: kind, Content: content}
}

// NewPersonaEntry builds a persona transcript entry with optional thinking.
func NewPersonaEntry(id, name, thinking, content string) TranscriptEntry {
	return TranscriptEntry{
		Timestamp:   time.Now(),
		Kind:        EntryPersona,
		PersonaID:   id,
		PersonaName: name,
		Thinking:    thinking,
		Content:     content,
	}
}
