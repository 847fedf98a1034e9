package llm

import "testing"

func TestExtractThinking(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantThinking string
		wantVisible  string
	}{
		{
			name:         "block then reply",
			raw:          "<think>reasoning here</think>Actual reply.",
			wantThinking: "reasoning here",
			wantVisible:  "Actual reply.",
		},
		{
			name:         "multiline block",
			raw:          "<think>\nLine one.\nLine two.\n</think>\nFinal answer.",
			wantThinking: "Line one.\nLine two.",
			wantVisible:  "Final answer.",
		},
		{
			name:         "no block leaves input unchanged",
			raw:          "Just a plain response.",
			wantThinking: "",
			wantVisible:  "Just a plain response.",
		},
		{
			name:         "padded segments trimmed",
			raw:          "<think>  padded thoughts  </think>   spaced response   ",
			wantThinking: "padded thoughts",
			wantVisible:  "spaced response",
		},
		{
			name:         "empty block",
			raw:          "<think></think>response",
			wantThinking: "",
			wantVisible:  "response",
		},
		{
			name:         "block at end leaves empty visible",
			raw:          "<think>only thoughts</think>",
			wantThinking: "only thoughts",
			wantVisible:  "",
		},
		{
			name:         "truncated block hides everything after open marker",
			raw:          "<think>model ran out of tok",
			wantThinking: "model ran out of tok",
			wantVisible:  "",
		},
		{
			name:         "empty input",
			raw:          "",
			wantThinking: "",
			wantVisible:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thinking, visible := ExtractThinking(tt.raw)
			if thinking != tt.wantThinking {
				t.Errorf("thinking = %q, want %q", thinking, tt.wantThinking)
			}
			if visible != tt.wantVisible {
				t.Errorf("visible = %q, want %q", visible, tt.wantVisible)
			}
		})
	}
}

// Extraction must be idempotent on already-stripped text.
func TestExtractThinkingIdempotent(t *testing.T) {
	inputs := []string{
		"<think>reasoning</think>Reply.",
		"plain text",
		"<think>unterminated",
	}
	for _, raw := range inputs {
		_, visible := ExtractThinking(raw)
		_, again := ExtractThinking(visible)
		if again != visible {
			t.Errorf("ExtractThinking not idempotent: %q -> %q", visible, again)
		}
	}
}
