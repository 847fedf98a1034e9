// Package command parses one line of raw moderator input into exactly one
// typed command. A line beginning with ! is always a command; an
// unrecognized !word is rejected, never forwarded as a message. A bare
// @name token in a command-free line is not a command — it is the intended
// addressee attached to a Message.
package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"focusroom/internal/persona"
	"focusroom/internal/types"
)

// ===== COMMAND VARIANTS =====

// Kind discriminates the closed set of parsed commands.
type Kind int

const (
	Message Kind = iota
	AddPersona
	KickPersona
	Focus
	Unfocus
	Observe
	TopicSet
	TopicReset
	ImageLoad
	ImageClear
	ImageList
	Reset
	Exit
	Help
)

// Command is the parsed form of one input line. Which fields are meaningful
// depends on Kind:
//
//	AddPersona/KickPersona/Focus  Target
//	Message                       Text, optional Target (addressee), optional ImagePath
//	Observe                       Seed ("" means derive from log), Rounds (0 means default)
//	TopicSet                      Text
//	ImageLoad                     ImagePath
type Command struct {
	Kind      Kind
	Target    persona.CatalogEntry
	HasTarget bool
	Text      string
	Seed      string
	Rounds    int
	ImagePath string
}

var (
	inlineImageRe = regexp.MustCompile(`(?i)!image\s+(.+)`)
	quotedSeedRe  = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	mentionRe     = regexp.MustCompile(`^@[A-Za-z][\w-]*$`)
)

// ===== PARSER =====

// Parse turns a raw input line into a Command. The catalog resolves
// @mentions; room membership is the caller's concern.
func Parse(line string, catalog *persona.Catalog) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{}, fmt.Errorf("%w: empty input", types.ErrMalformedCommand)
	}

	if strings.HasPrefix(trimmed, "!") {
		return parseBang(trimmed, catalog)
	}
	return parseMessage(trimmed, catalog)
}

func parseBang(line string, catalog *persona.Catalog) (Command, error) {
	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch verb {
	case "!add":
		return withTarget(AddPersona, verb, rest, catalog)
	case "!kick":
		return withTarget(KickPersona, verb, rest, catalog)

	case "!focus":
		if rest == "" {
			return Command{Kind: Unfocus}, nil
		}
		return withTarget(Focus, verb, rest, catalog)

	case "!observe":
		return parseObserve(rest)

	case "!topic":
		if rest == "" {
			return Command{Kind: TopicReset}, nil
		}
		return Command{Kind: TopicSet, Text: rest}, nil

	case "!image":
		if rest == "" {
			return Command{}, fmt.Errorf("%w: usage: !image <path> or !image clear", types.ErrMalformedCommand)
		}
		if strings.EqualFold(rest, "clear") {
			return Command{Kind: ImageClear}, nil
		}
		return Command{Kind: ImageLoad, ImagePath: unquote(rest)}, nil

	case "!images":
		return Command{Kind: ImageList}, nil

	case "!reset", "!clear":
		return Command{Kind: Reset}, nil

	case "!exit":
		return Command{Kind: Exit}, nil

	case "!help":
		return Command{Kind: Help}, nil
	}

	return Command{}, fmt.Errorf("%w: %s", types.ErrUnknownCommand, verb)
}

// withTarget parses the single @name argument of !add, !kick, and !focus.
func withTarget(kind Kind, verb, rest string, catalog *persona.Catalog) (Command, error) {
	if rest == "" {
		return Command{}, fmt.Errorf("%w: usage: %s @name", types.ErrMalformedCommand, verb)
	}
	entry, ok := catalog.ByMention(rest)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", types.ErrUnknownPersona, rest)
	}
	return Command{Kind: kind, Target: entry, HasTarget: true}, nil
}

// parseObserve accepts an optional quoted seed and/or a round count, in
// either order: !observe, !observe 5, !observe "price?", !observe "price?" 2,
// !observe 2 "price?".
func parseObserve(rest string) (Command, error) {
	cmd := Command{Kind: Observe}
	if rest == "" {
		return cmd, nil
	}

	if m := quotedSeedRe.FindStringSubmatchIndex(rest); m != nil {
		groups := quotedSeedRe.FindStringSubmatch(rest)
		if groups[1] != "" {
			cmd.Seed = groups[1]
		} else {
			cmd.Seed = groups[2]
		}
		rest = strings.TrimSpace(rest[:m[0]] + rest[m[1]:])
	}

	if rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("%w: usage: !observe [\"seed\"] [rounds]", types.ErrMalformedCommand)
		}
		cmd.Rounds = n
	}
	return cmd, nil
}

// parseMessage handles command-free lines: extracts an inline !image token
// and resolves a bare @mention addressee.
func parseMessage(line string, catalog *persona.Catalog) (Command, error) {
	cmd := Command{Kind: Message}

	if m := inlineImageRe.FindStringSubmatchIndex(line); m != nil {
		cmd.ImagePath = unquote(strings.TrimSpace(line[m[2]:m[3]]))
		line = strings.TrimSpace(line[:m[0]] + line[m[1]:])
	}

	tokens := strings.Fields(line)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !cmd.HasTarget && mentionRe.MatchString(tok) {
			entry, ok := catalog.ByMention(tok)
			if !ok {
				return Command{}, fmt.Errorf("%w: %s", types.ErrUnknownPersona, tok)
			}
			cmd.Target = entry
			cmd.HasTarget = true
			continue
		}
		kept = append(kept, tok)
	}

	cmd.Text = strings.Join(kept, " ")
	return cmd, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '\'' || s[0] == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
