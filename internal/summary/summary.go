// Package summary turns a session transcript into a Markdown report: an
// LLM-written executive summary on top, the literal chat log (including
// hidden thinking) below. Synthesis failure never prevents the literal log
// from being written.
package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// Composer writes session summaries.
type Composer struct {
	client types.ChatClient // nil disables synthesis
	dir    string
}

// NewComposer creates a composer that writes files under dir.
func NewComposer(client types.ChatClient, dir string) *Composer {
	return &Composer{client: client, dir: dir}
}

// ===== SAVE =====

// Save synthesizes the executive summary and writes the full Markdown file.
// Returns the path of the written file. If synthesis fails the file is still
// written with a failure note in place of the summary.
func (c *Composer) Save(ctx context.Context, transcript []types.TranscriptEntry, personaNames []string, topic string) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summaries dir: %w", err)
	}

	execSummary := c.Synthesize(ctx, transcript, personaNames, topic)
	content := BuildMarkdown(execSummary, transcript)

	filename := fmt.Sprintf("chat_%s.md", time.Now().Format("20060102_150405"))
	path := filepath.Join(c.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	logging.Summary("Saved session summary to %s (%d entries)", path, len(transcript))
	return path, nil
}

// ===== SYNTHESIS =====

// Synthesize asks the model for a concise executive summary of the session.
// Failures degrade to a note; the caller still gets a usable string.
func (c *Composer) Synthesize(ctx context.Context, transcript []types.TranscriptEntry, personaNames []string, topic string) string {
	if len(transcript) == 0 {
		return "No conversation to summarize."
	}

	participants := strings.Join(personaNames, ", ")
	if participants == "" {
		participants = "Unknown participants"
	}

	prompt := fmt.Sprintf(`You are a focus group analyst. Below is a transcript of a focus group session about %s.

Participants: %s

Transcript:
%s

Write a concise executive summary (3-5 paragraphs) covering:
1. Key themes and opinions expressed
2. Points of agreement and disagreement between participants
3. Notable insights about %s
4. Overall sentiment

Be analytical and objective. Do not add any preamble — start directly with the summary.
`, topic, participants, plainTranscript(transcript, true), topic)

	if c.client == nil {
		return "[Summary generation unavailable.]\n\nRaw transcript available in chat log below."
	}

	result, err := c.client.Chat(ctx, "", nil, prompt)
	if err != nil {
		logging.Summary("Synthesis failed: %v", err)
		return fmt.Sprintf("[Summary generation failed: %v]\n\nRaw transcript available in chat log below.", err)
	}
	return strings.TrimSpace(result)
}

// ExitBrief generates a short terminal-friendly debrief: exactly 5 bullet
// insights. Returns "" when the session is too short or the model fails.
func (c *Composer) ExitBrief(ctx context.Context, transcript []types.TranscriptEntry, personaNames []string) string {
	personaTurns := 0
	for _, e := range transcript {
		if e.Kind == types.EntryPersona {
			personaTurns++
		}
	}
	if personaTurns < 2 || c.client == nil {
		return ""
	}

	participants := strings.Join(personaNames, ", ")
	if participants == "" {
		participants = "participants"
	}

	prompt := fmt.Sprintf(`You are a focus group analyst. The session below just ended.

Participants: %s

Transcript:
%s

Write exactly 5 bullet-point insights — plain text, no markdown, no headers.
Each bullet starts with •, is a single sentence, and is under 20 words.
Cover: dominant sentiment, a consensus point, a key tension, one surprising insight, one actionable takeaway.
Be specific to what was actually said — no generalities.
Do not add any preamble. Output only the 5 bullets.`, participants, plainTranscript(transcript, false))

	result, err := c.client.Chat(ctx, "", nil, prompt)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result)
}

// ===== MARKDOWN =====

// BuildMarkdown lays out the report: summary on top, then the full chat log
// with thinking.
func BuildMarkdown(execSummary string, transcript []types.TranscriptEntry) string {
	var lines []string

	lines = append(lines,
		"# Focus Group Session Summary",
		fmt.Sprintf("*Generated: %s*", time.Now().Format("2006-01-02 15:04:05")),
		"",
		"---",
		"",
		"## Executive Summary",
		"",
		execSummary,
		"",
		"---",
		"",
		"## Full Chat Log",
		"",
	)

	for _, e := range transcript {
		ts := e.Timestamp.Format("15:04:05")

		switch e.Kind {
		case types.EntrySystem:
			lines = append(lines, fmt.Sprintf("*[%s] ⚙ %s*", ts, e.Content), "")
		case types.EntryUser:
			lines = append(lines, fmt.Sprintf("**[%s] Moderator:** %s", ts, e.Content), "")
		case types.EntryPersona:
			name := e.PersonaName
			if name == "" {
				name = "Persona"
			}
			lines = append(lines, fmt.Sprintf("**[%s] %s:**", ts, name))
			if e.Thinking != "" {
				lines = append(lines, "", fmt.Sprintf("> *💭 Thinking: %s*", e.Thinking))
			}
			lines = append(lines, "", e.Content, "")
		}
	}

	return strings.Join(lines, "\n")
}

// plainTranscript flattens the log for the model. System entries carry no
// opinions, so the exit brief skips them.
func plainTranscript(transcript []types.TranscriptEntry, includeSystem bool) string {
	var lines []string
	for _, e := range transcript {
		switch e.Kind {
		case types.EntryUser:
			lines = append(lines, fmt.Sprintf("[Moderator]: %s", e.Content))
		case types.EntryPersona:
			lines = append(lines, fmt.Sprintf("[%s]: %s", e.PersonaName, e.Content))
		case types.EntrySystem:
			if includeSystem {
				lines = append(lines, fmt.Sprintf("[System]: %s", e.Content))
			}
		}
	}
	return strings.Join(lines, "\n")
}
