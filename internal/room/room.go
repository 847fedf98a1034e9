// Package room holds the live state of one focus group session: which
// personas are present, who the moderator is focused on, the current topic,
// shared images, and the full transcript.
//
// Invariants enforced here:
//   - The active roster is never empty while the room is open.
//   - Focus always points at an active persona, or nobody.
//   - Roster order is join order; it drives speaking order everywhere.
package room

import (
	"fmt"
	"sync"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// ImageRef identifies one analyzed image shared in the room.
type ImageRef struct {
	Filename string
	Hash     string
}

// Room is the session state machine. Safe for concurrent use; the observe
// loop reads the roster while the signal handler may close the room.
type Room struct {
	mu sync.RWMutex

	active     []string // persona IDs in join order
	personas   map[string]types.Persona
	focus      string // "" means all active respond
	topic      string
	topicCtx   string
	images     []ImageRef
	transcript []types.TranscriptEntry
	closed     bool
}

// New opens a room with the given initial roster. At least one persona is
// required; a room never exists empty.
func New(initial []types.Persona, topic, topicContext string) (*Room, error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("failed to open room: no personas given")
	}

	r := &Room{
		personas: make(map[string]types.Persona),
		topic:    topic,
		topicCtx: topicContext,
	}
	for _, p := range initial {
		if _, dup := r.personas[p.ID]; dup {
			return nil, fmt.Errorf("failed to open room: duplicate persona %s", p.ID)
		}
		r.personas[p.ID] = p
		r.active = append(r.active, p.ID)
	}

	logging.Room("Opened room with %d personas, topic %q", len(initial), topic)
	return r, nil
}

// ===== ROSTER =====

// Add puts a persona in the room at the end of the speaking order.
func (r *Room) Add(p types.Persona) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return types.ErrRoomClosed
	}
	if _, present := r.personas[p.ID]; present {
		return fmt.Errorf("%w: %s", types.ErrAlreadyPresent, p.Name)
	}

	r.personas[p.ID] = p
	r.active = append(r.active, p.ID)
	logging.Room("%s joined the room (%d active)", p.Name, len(r.active))
	return nil
}

// Remove takes a persona out of the room. The last persona cannot be
// removed; removing the focused persona clears focus.
func (r *Room) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return types.ErrRoomClosed
	}
	p, present := r.personas[id]
	if !present {
		return types.ErrNotPresent
	}
	if len(r.active) == 1 {
		return fmt.Errorf("%w: %s", types.ErrLastPersona, p.Name)
	}

	delete(r.personas, id)
	for i, aid := range r.active {
		if aid == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
	if r.focus == id {
		r.focus = ""
	}
	logging.Room("%s left the room (%d active)", p.Name, len(r.active))
	return nil
}

// Active returns the personas currently in the room, in join order.
func (r *Room) Active() []types.Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Persona, 0, len(r.active))
	for _, id := range r.active {
		out = append(out, r.personas[id])
	}
	return out
}

// ActiveNames returns the display names of everyone present, in join order.
func (r *Room) ActiveNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.active))
	for _, id := range r.active {
		out = append(out, r.personas[id].Name)
	}
	return out
}

// Lookup returns the persona with the given ID if present.
func (r *Room) Lookup(id string) (types.Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[id]
	return p, ok
}

// ===== FOCUS =====

// SetFocus directs all subsequent moderator messages at one persona.
func (r *Room) SetFocus(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return types.ErrRoomClosed
	}
	if _, present := r.personas[id]; !present {
		return types.ErrNotPresent
	}
	r.focus = id
	logging.Room("Focus set to %s", r.personas[id].Name)
	return nil
}

// ClearFocus returns the room to all-respond mode.
func (r *Room) ClearFocus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = ""
}

// Focus returns the focused persona, if any.
func (r *Room) Focus() (types.Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.focus == "" {
		return types.Persona{}, false
	}
	p, ok := r.personas[r.focus]
	return p, ok
}

// ===== TOPIC =====

// SetTopic swaps the discussion topic and its fetched context block.
func (r *Room) SetTopic(topic, topicContext string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topic = topic
	r.topicCtx = topicContext
	logging.Room("Topic changed to %q", topic)
}

// Topic returns the current discussion topic.
func (r *Room) Topic() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topic
}

// TopicContext returns the fetched context block for the current topic.
func (r *Room) TopicContext() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topicCtx
}

// ===== IMAGES =====

// AddImage records a shared image. Duplicate hashes are ignored so the same
// file loaded twice briefs the personas once.
func (r *Room) AddImage(img ImageRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.images {
		if existing.Hash == img.Hash {
			return
		}
	}
	r.images = append(r.images, img)
}

// Images returns the shared images in load order.
func (r *Room) Images() []ImageRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ImageRef, len(r.images))
	copy(out, r.images)
	return out
}

// ClearImages removes all shared images from the room.
func (r *Room) ClearImages() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = nil
}

// ===== TRANSCRIPT =====

// Append adds an entry to the session transcript.
func (r *Room) Append(entry types.TranscriptEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = append(r.transcript, entry)
}

// Transcript returns a copy of the full session log.
func (r *Room) Transcript() []types.TranscriptEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.TranscriptEntry, len(r.transcript))
	copy(out, r.transcript)
	return out
}

// LastModeratorMessage returns the most recent user entry, used as the
// observe seed when none is given.
func (r *Room) LastModeratorMessage() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.transcript) - 1; i >= 0; i-- {
		if r.transcript[i].Kind == types.EntryUser {
			return r.transcript[i].Content, true
		}
	}
	return "", false
}

// ===== LIFECYCLE =====

// Close marks the room closed and returns the final transcript. Further
// mutations fail with ErrRoomClosed. Closing twice is harmless.
func (r *Room) Close() []types.TranscriptEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		r.closed = true
		logging.Room("Room closed (%d transcript entries)", len(r.transcript))
	}
	out := make([]types.TranscriptEntry, len(r.transcript))
	copy(out, r.transcript)
	return out
}

// Closed reports whether the room has been closed.
func (r *Room) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
