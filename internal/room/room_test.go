package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusroom/internal/types"
)

func lena() types.Persona {
	return types.Persona{ID: "persona_lena", Name: "Lena"}
}

func marcus() types.Persona {
	return types.Persona{ID: "persona_marcus", Name: "Marcus"}
}

func openRoom(t *testing.T, personas ...types.Persona) *Room {
	t.Helper()
	r, err := New(personas, "PlayStation 5", "TOPIC: PlayStation 5")
	require.NoError(t, err)
	return r
}

func TestNewRequiresAtLeastOnePersona(t *testing.T) {
	_, err := New(nil, "PlayStation 5", "")
	assert.Error(t, err)
}

func TestAddPreservesJoinOrder(t *testing.T) {
	r := openRoom(t, lena())
	require.NoError(t, r.Add(marcus()))
	require.NoError(t, r.Add(types.Persona{ID: "persona_priya", Name: "Priya"}))

	assert.Equal(t, []string{"Lena", "Marcus", "Priya"}, r.ActiveNames())
}

func TestAddDuplicateRejected(t *testing.T) {
	r := openRoom(t, lena())
	err := r.Add(lena())
	assert.ErrorIs(t, err, types.ErrAlreadyPresent)
	assert.Len(t, r.Active(), 1)
}

func TestRemoveLastPersonaRejected(t *testing.T) {
	r := openRoom(t, lena())
	err := r.Remove("persona_lena")
	assert.ErrorIs(t, err, types.ErrLastPersona)
	assert.Equal(t, []string{"Lena"}, r.ActiveNames())
}

func TestRemoveUnknownPersona(t *testing.T) {
	r := openRoom(t, lena(), marcus())
	assert.ErrorIs(t, r.Remove("persona_ghost"), types.ErrNotPresent)
}

func TestRemoveFocusedPersonaClearsFocus(t *testing.T) {
	r := openRoom(t, lena(), marcus())
	require.NoError(t, r.SetFocus("persona_marcus"))

	require.NoError(t, r.Remove("persona_marcus"))

	_, focused := r.Focus()
	assert.False(t, focused, "focus must clear when the focused persona leaves")
	assert.Equal(t, []string{"Lena"}, r.ActiveNames())
}

func TestRemoveOtherPersonaKeepsFocus(t *testing.T) {
	r := openRoom(t, lena(), marcus())
	require.NoError(t, r.SetFocus("persona_lena"))

	require.NoError(t, r.Remove("persona_marcus"))

	f, focused := r.Focus()
	require.True(t, focused)
	assert.Equal(t, "Lena", f.Name)
}

func TestSetFocusRequiresPresence(t *testing.T) {
	r := openRoom(t, lena())
	assert.ErrorIs(t, r.SetFocus("persona_marcus"), types.ErrNotPresent)
}

func TestSetTopicSwapsContext(t *testing.T) {
	r := openRoom(t, lena())
	r.SetTopic("espresso machines", "TOPIC: espresso machines\n\nctx")

	assert.Equal(t, "espresso machines", r.Topic())
	assert.Contains(t, r.TopicContext(), "espresso machines")
}

func TestAddImageDeduplicatesByHash(t *testing.T) {
	r := openRoom(t, lena())
	r.AddImage(ImageRef{Filename: "ad.png", Hash: "abc123"})
	r.AddImage(ImageRef{Filename: "copy-of-ad.png", Hash: "abc123"})
	r.AddImage(ImageRef{Filename: "other.png", Hash: "def456"})

	imgs := r.Images()
	require.Len(t, imgs, 2)
	assert.Equal(t, "ad.png", imgs[0].Filename)
	assert.Equal(t, "other.png", imgs[1].Filename)

	r.ClearImages()
	assert.Empty(t, r.Images())
}

func TestLastModeratorMessage(t *testing.T) {
	r := openRoom(t, lena())

	_, ok := r.LastModeratorMessage()
	assert.False(t, ok)

	r.Append(types.NewEntry(types.EntryUser, "first question"))
	r.Append(types.NewPersonaEntry("persona_lena", "Lena", "", "an answer"))
	r.Append(types.NewEntry(types.EntryUser, "second question"))
	r.Append(types.NewEntry(types.EntrySystem, "Marcus joined the room."))

	got, ok := r.LastModeratorMessage()
	require.True(t, ok)
	assert.Equal(t, "second question", got)
}

func TestCloseFreezesRoom(t *testing.T) {
	r := openRoom(t, lena(), marcus())
	r.Append(types.NewEntry(types.EntryUser, "hello"))

	transcript := r.Close()
	assert.Len(t, transcript, 1)
	assert.True(t, r.Closed())

	assert.ErrorIs(t, r.Add(types.Persona{ID: "p3", Name: "Priya"}), types.ErrRoomClosed)
	assert.ErrorIs(t, r.Remove("persona_lena"), types.ErrRoomClosed)
	assert.ErrorIs(t, r.SetFocus("persona_lena"), types.ErrRoomClosed)

	// Closing again returns the same transcript.
	assert.Len(t, r.Close(), 1)
}
