package types

import "context"

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================
//
// The orchestration core treats its external dependencies as narrow
// interfaces constructed once at startup and passed in by reference.
// Tests substitute in-memory fakes.

// PersonaRecord is the raw shape stored in the persona document store:
// a narrative document plus flattened metadata (nested keys joined with "_",
// list values JSON-encoded).
type PersonaRecord struct {
	ID       string
	Document string
	Metadata map[string]string
}

// PersonaStore fetches persona identity records by id.
type PersonaStore interface {
	Get(ctx context.Context, id string) (PersonaRecord, error)
	Upsert(ctx context.Context, rec PersonaRecord) error
}

// HistoryStore persists the ordered exchange list for a persona, keyed by
// the persona's history key. Every write replaces the full list and
// refreshes the expiry.
type HistoryStore interface {
	Load(ctx context.Context, key string) ([]Exchange, error)
	Replace(ctx context.Context, key string, history []Exchange) error
	Clear(ctx context.Context, key string) error
}

// ChatClient is the black-box language-model call: a system prompt, prior
// exchanges, and one user message in; raw text (possibly containing a
// thinking block) out.
type ChatClient interface {
	Chat(ctx context.Context, system string, history []Exchange, user string) (string, error)
}
