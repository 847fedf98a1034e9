package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusroom/internal/types"
)

type fakeClient struct {
	reply string
	err   error
	last  string
}

func (f *fakeClient) Chat(ctx context.Context, system string, hist []types.Exchange, user string) (string, error) {
	f.last = user
	return f.reply, f.err
}

func sampleTranscript() []types.TranscriptEntry {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	return []types.TranscriptEntry{
		{Timestamp: at, Kind: types.EntryUser, Content: "What do you think of the price?"},
		{Timestamp: at.Add(time.Minute), Kind: types.EntryPersona, PersonaID: "persona_lena", PersonaName: "Lena", Thinking: "too expensive for me", Content: "Honestly, $499 is a lot."},
		{Timestamp: at.Add(2 * time.Minute), Kind: types.EntrySystem, Content: "Marcus joined the room."},
		{Timestamp: at.Add(3 * time.Minute), Kind: types.EntryPersona, PersonaID: "persona_marcus", PersonaName: "Marcus", Content: "Worth it for the exclusives."},
	}
}

func TestBuildMarkdownLayout(t *testing.T) {
	got := BuildMarkdown("The group was split on price.", sampleTranscript())

	sections := []string{
		"# Focus Group Session Summary",
		"## Executive Summary",
		"The group was split on price.",
		"## Full Chat Log",
		"**[10:30:00] Moderator:** What do you think of the price?",
		"**[10:31:00] Lena:**",
		"> *💭 Thinking: too expensive for me*",
		"Honestly, $499 is a lot.",
		"*[10:32:00] ⚙ Marcus joined the room.*",
		"**[10:33:00] Marcus:**",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(got, s)
		require.Greater(t, idx, last, "section %q missing or out of order", s)
		last = idx
	}
}

func TestSynthesizeEmptyTranscript(t *testing.T) {
	c := NewComposer(&fakeClient{}, t.TempDir())
	got := c.Synthesize(context.Background(), nil, nil, "PlayStation 5")
	assert.Equal(t, "No conversation to summarize.", got)
}

func TestSynthesizePromptMentionsTopicAndParticipants(t *testing.T) {
	fc := &fakeClient{reply: "Summary text."}
	c := NewComposer(fc, t.TempDir())

	got := c.Synthesize(context.Background(), sampleTranscript(), []string{"Lena", "Marcus"}, "espresso machines")
	assert.Equal(t, "Summary text.", got)
	assert.Contains(t, fc.last, "about espresso machines")
	assert.Contains(t, fc.last, "Participants: Lena, Marcus")
	assert.Contains(t, fc.last, "[Moderator]: What do you think of the price?")
	assert.Contains(t, fc.last, "[Lena]: Honestly, $499 is a lot.")
}

func TestSaveWritesFileEvenWhenSynthesisFails(t *testing.T) {
	dir := t.TempDir()
	c := NewComposer(&fakeClient{err: fmt.Errorf("model down")}, dir)

	path, err := c.Save(context.Background(), sampleTranscript(), []string{"Lena", "Marcus"}, "PlayStation 5")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "[Summary generation failed:")
	assert.Contains(t, content, "Honestly, $499 is a lot.", "literal log present despite synthesis failure")
	assert.True(t, strings.HasPrefix(filepath.Base(path), "chat_"))
	assert.True(t, strings.HasSuffix(path, ".md"))
}

func TestExitBriefTooShortSession(t *testing.T) {
	c := NewComposer(&fakeClient{reply: "• bullet"}, t.TempDir())

	short := []types.TranscriptEntry{
		{Timestamp: time.Now(), Kind: types.EntryUser, Content: "hi"},
		{Timestamp: time.Now(), Kind: types.EntryPersona, PersonaName: "Lena", Content: "hello"},
	}
	assert.Empty(t, c.ExitBrief(context.Background(), short, []string{"Lena"}))
}

func TestExitBriefReturnsBullets(t *testing.T) {
	fc := &fakeClient{reply: "• one\n• two\n• three\n• four\n• five"}
	c := NewComposer(fc, t.TempDir())

	got := c.ExitBrief(context.Background(), sampleTranscript(), []string{"Lena", "Marcus"})
	assert.Equal(t, 5, strings.Count(got, "•"))
	assert.NotContains(t, fc.last, "[System]:", "system entries excluded from the brief prompt")
}

func TestExitBriefFailureReturnsEmpty(t *testing.T) {
	c := NewComposer(&fakeClient{err: fmt.Errorf("down")}, t.TempDir())
	assert.Empty(t, c.ExitBrief(context.Background(), sampleTranscript(), nil))
}
