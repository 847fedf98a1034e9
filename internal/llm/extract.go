package llm

import "strings"

// Reasoning-model delimiters. Models like deepseek-r1 and qwen3 wrap their
// private reasoning in a single non-nested think block before the spoken
// reply.
const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// ExtractThinking splits raw model output into a hidden reasoning segment and
// the visible spoken reply.
//
// Pure and total: malformed input degrades to "no extraction". When the close
// marker is missing (truncated output), everything after the open marker is
// treated as hidden and the visible segment is empty — an unterminated
// reasoning block is never surfaced to the user.
func ExtractThinking(raw string) (thinking, visible string) {
	start := strings.Index(raw, thinkOpen)
	if start < 0 {
		return "", raw
	}

	rest := raw[start+len(thinkOpen):]
	end := strings.Index(rest, thinkClose)
	if end < 0 {
		return strings.TrimSpace(rest), ""
	}

	thinking = strings.TrimSpace(rest[:end])
	visible = strings.TrimSpace(raw[:start] + rest[end+len(thinkClose):])
	return thinking, visible
}
