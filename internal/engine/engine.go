// Package engine executes conversation turns: moderator-directed turns
// against one or many personas, and autonomous multi-round observe
// sequences. Strictly sequential — one model call is outstanding at a time,
// and replies are produced in room-insertion order.
package engine

import (
	"context"
	"fmt"
	"strings"

	"focusroom/internal/llm"
	"focusroom/internal/logging"
	"focusroom/internal/prompt"
	"focusroom/internal/room"
	"focusroom/internal/types"
)

const defaultObserveRounds = 3

// EventFunc receives each turn event as it is produced, before the next
// model call starts.
type EventFunc func(types.TurnEvent)

// Options tunes engine behavior.
type Options struct {
	// ObserveRounds is the default round count for !observe. Zero means 3.
	ObserveRounds int
	// ImageBriefs returns the formatted brief block for images currently
	// shared in the room, or "" when none. Nil is treated as no images.
	ImageBriefs func(ctx context.Context) string
}

// Engine drives model calls for one room session.
type Engine struct {
	room    *room.Room
	client  types.ChatClient
	history types.HistoryStore
	prompts *prompt.Builder
	opts    Options
}

// New creates an engine bound to a room.
func New(r *room.Room, client types.ChatClient, history types.HistoryStore, opts Options) *Engine {
	if opts.ObserveRounds <= 0 {
		opts.ObserveRounds = defaultObserveRounds
	}
	return &Engine{
		room:    r,
		client:  client,
		history: history,
		prompts: prompt.NewBuilder(),
		opts:    opts,
	}
}

// ===== DIRECTED TURN =====

// Ask runs one moderator-directed turn. Recipient priority: the focused
// persona, then an explicit addressee, then every active persona in room
// order. Inference failure for one persona does not stop the others;
// history-store failure aborts the turn.
func (e *Engine) Ask(ctx context.Context, input, addresseeID string, emit EventFunc) error {
	recipients := e.recipients(addresseeID)
	if len(recipients) == 0 {
		return types.ErrNotPresent
	}

	e.room.Append(types.NewEntry(types.EntryUser, input))

	timer := logging.StartTimer(logging.CategoryEngine, fmt.Sprintf("directed turn (%d recipients)", len(recipients)))
	defer timer.Stop()

	for _, p := range recipients {
		if err := e.speak(ctx, p, input, emit); err != nil {
			return err
		}
	}
	return nil
}

// recipients resolves who answers this turn.
func (e *Engine) recipients(addresseeID string) []types.Persona {
	if focused, ok := e.room.Focus(); ok {
		return []types.Persona{focused}
	}
	if addresseeID != "" {
		if p, ok := e.room.Lookup(addresseeID); ok {
			return []types.Persona{p}
		}
		return nil
	}
	return e.room.Active()
}

// speak runs one model call for one persona and commits the exchange.
// An inference failure is emitted as a failed event and returns nil; a
// history failure returns the error to abort the enclosing turn.
func (e *Engine) speak(ctx context.Context, p types.Persona, input string, emit EventFunc) error {
	key := p.HistoryKey()

	history, err := e.history.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load history for %s: %w", p.Name, err)
	}

	system := e.prompts.System(p, prompt.CallContext{
		TopicContext: e.room.TopicContext(),
		ActiveNames:  e.room.ActiveNames(),
		ImageBriefs:  e.imageBriefs(ctx),
	})

	raw, err := e.client.Chat(ctx, system, history, input)
	if err != nil {
		logging.Engine("Inference failed for %s: %v", p.Name, err)
		emit(types.TurnEvent{PersonaID: p.ID, PersonaName: p.Name, Err: err})
		return nil
	}

	thinking, visible := llm.ExtractThinking(raw)

	// Only the visible reply enters model-visible history. Thinking goes to
	// the transcript for the summary.
	history = append(history,
		types.Exchange{Role: types.RoleUser, Content: input},
		types.Exchange{Role: types.RoleAssistant, Content: visible},
	)
	if err := e.history.Replace(ctx, key, history); err != nil {
		return fmt.Errorf("failed to persist history for %s: %w", p.Name, err)
	}

	e.room.Append(types.NewPersonaEntry(p.ID, p.Name, thinking, visible))
	emit(types.TurnEvent{PersonaID: p.ID, PersonaName: p.Name, Visible: visible, Thinking: thinking})
	return nil
}

func (e *Engine) imageBriefs(ctx context.Context) string {
	if e.opts.ImageBriefs == nil || len(e.room.Images()) == 0 {
		return ""
	}
	return e.opts.ImageBriefs(ctx)
}

// ===== OBSERVE MODE =====

// Observe lets the personas converse among themselves for the given number
// of rounds (0 means the configured default). One round is one full pass
// over the active roster in room order. Cancellation is checked between
// model calls; exchanges committed before cancellation stay committed.
func (e *Engine) Observe(ctx context.Context, seed string, rounds int, emit EventFunc) error {
	roster := e.room.Active()
	if len(roster) < 2 {
		return fmt.Errorf("observe requires at least 2 personas in the room")
	}
	if rounds <= 0 {
		rounds = e.opts.ObserveRounds
	}

	explicit := seed != ""
	if seed == "" {
		if last, ok := e.room.LastModeratorMessage(); ok {
			seed = last
		} else {
			seed = fmt.Sprintf("Share your honest thoughts on %s.", e.room.Topic())
		}
	}

	note := fmt.Sprintf("Observing (%d %s)", rounds, plural("round", rounds))
	if explicit {
		note += ": " + seed
	}
	e.room.Append(types.NewEntry(types.EntrySystem, note+"."))
	logging.Engine("Observe: %d rounds, %d personas, seed %q", rounds, len(roster), seed)

	names := make([]string, len(roster))
	for i, p := range roster {
		names[i] = p.Name
	}
	speakerList := joinNames(names)

	// The schedule is a flat precomputed slot list. A persona never
	// self-replies because consecutive slots always name different speakers
	// when the roster has 2+ members.
	slots := make([]types.Persona, 0, rounds*len(roster))
	for round := 0; round < rounds; round++ {
		slots = append(slots, roster...)
	}

	current := fmt.Sprintf(
		"[The moderator has stepped back. Only %s are in this room — speak only to each other. "+
			"The moderator wants you to discuss: %q. If you disagree, don't just move on — negotiate, "+
			"push back, and try to find what's genuinely fair. Make any agreement feel earned, not polite.]",
		speakerList, seed,
	)

	for _, p := range slots {
		if err := ctx.Err(); err != nil {
			e.room.Append(types.NewEntry(types.EntrySystem, "Observation stopped."))
			logging.Engine("Observe interrupted: %v", err)
			return nil
		}

		ev, err := e.observeSpeak(ctx, p, current, emit)
		if err != nil {
			return err
		}
		if !ev.OK() {
			// Skip the failed slot; the next persona answers the same prompt.
			continue
		}

		others := make([]string, 0, len(names)-1)
		for _, n := range names {
			if n != p.Name {
				others = append(others, n)
			}
		}
		addressee := joinNames(others)
		current = fmt.Sprintf(
			"[%s just said to %s]: %q\n[You are %s. Respond directly to %s. "+
				"Only %s are in this room. Keep the discussion on: %q]",
			p.Name, addressee, ev.Visible, addressee, p.Name, speakerList, seed,
		)
	}
	return nil
}

// observeSpeak is speak with the event handed back so the loop can chain
// the next prompt off the reply.
func (e *Engine) observeSpeak(ctx context.Context, p types.Persona, input string, emit EventFunc) (types.TurnEvent, error) {
	var captured types.TurnEvent
	err := e.speak(ctx, p, input, func(ev types.TurnEvent) {
		captured = ev
		emit(ev)
	})
	return captured, err
}

// ===== RESET =====

// ResetHistories wipes the persisted conversation history of every active
// persona.
func (e *Engine) ResetHistories(ctx context.Context) error {
	for _, p := range e.room.Active() {
		if err := e.history.Clear(ctx, p.HistoryKey()); err != nil {
			return fmt.Errorf("failed to reset %s: %w", p.Name, err)
		}
	}
	e.room.Append(types.NewEntry(types.EntrySystem, "Memory cleared — all personas reset."))
	return nil
}

// ===== HELPERS =====

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "the other participant"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
