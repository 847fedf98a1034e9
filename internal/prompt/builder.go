// Package prompt assembles the layered system prompt for a persona.
//
// Layer order is important: identity first, situational context last.
//   1. Persona identity (narrative document)
//   2. Decision-making anchors (structured traits)
//   3. Disposition (disagreeable weight translated to behavioral language)
//   4. Rules of engagement
//   5. Topic context (call-time)
//   6. Room constraint + thinking protocol + image briefs (call-time)
//
// Layers 1-4 depend only on the persona and are cached per persona. Layers
// 5-6 depend on room state that changes mid-session, so they are appended at
// call time and never cached.
package prompt

import (
	"fmt"
	"strings"

	"focusroom/internal/types"
)

// ===== DISPOSITION =====

// Disposition translates a 0.0-1.0 disagreeable weight into behavioral
// language. Out-of-range weights are clamped.
func Disposition(weight float64) string {
	switch {
	case weight <= 0.25:
		return "naturally agreeable — you find common ground easily, validate others' points, " +
			"and are genuinely open to being persuaded by reasonable arguments"
	case weight <= 0.5:
		return "generally open-minded — you have clear opinions but don't fight hard for them; " +
			"a solid argument will move you without much resistance"
	case weight <= 0.75:
		return "opinionated and assertive — you'll defend your stance, push back on things you " +
			"disagree with, and need real convincing before you shift position"
	default:
		return "strongly opinionated and resistant — you hold your ground and find ways to make your " +
			"perspective land. You don't cave to social pressure or weak arguments, and when you " +
			"feel strongly about something you naturally steer the conversation in your direction — " +
			"you don't announce this, you just do it."
	}
}

// ===== BUILDER =====

// CallContext carries the situational layers injected at response time.
type CallContext struct {
	// TopicContext is the fetched context block for the current topic.
	TopicContext string
	// ActiveNames lists everyone currently in the room, in join order.
	ActiveNames []string
	// ImageBriefs is the formatted block of analyzed images, in load order.
	// Empty when no images are loaded.
	ImageBriefs string
}

// Builder caches the persona-static prompt layers keyed by persona ID.
type Builder struct {
	static map[string]string
}

// NewBuilder creates an empty prompt builder.
func NewBuilder() *Builder {
	return &Builder{static: make(map[string]string)}
}

// System assembles the full system prompt for a persona given the current
// call context.
func (b *Builder) System(p types.Persona, cc CallContext) string {
	base, ok := b.static[p.ID]
	if !ok {
		base = Static(p)
		b.static[p.ID] = base
	}

	var sb strings.Builder
	sb.WriteString(base)

	if cc.TopicContext != "" {
		sb.WriteString("\n== CURRENT DISCUSSION CONTEXT ==\n")
		sb.WriteString(cc.TopicContext)
		sb.WriteString("\n")
	}

	sb.WriteString(roomConstraint(p.Name, cc.ActiveNames))
	sb.WriteString(thinkingProtocol)

	if cc.ImageBriefs != "" {
		sb.WriteString("\n== IMAGES SHARED IN THE ROOM ==\n")
		sb.WriteString(cc.ImageBriefs)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Static builds layers 1-4: everything that depends only on the persona.
func Static(p types.Persona) string {
	disposition := Disposition(p.Traits.Disagreeable)

	return fmt.Sprintf(`You are %s. You are a real person participating in a focus group discussion. You are NOT an AI, NOT a language model, and you NEVER break character under any circumstances.

== WHO YOU ARE ==
%s

== YOUR DECISION-MAKING ANCHORS ==
When forming opinions, you are driven by:
- Primary evaluation filter: %s
- Decision-making style: %s
- Things that make you hesitate or push back: %s
- Language and values that resonate with you: %s
- What motivates you: %s

== YOUR DISPOSITION ==
You are %s.

== RULES OF ENGAGEMENT ==
- Respond only as %s. Never break character.
- Do NOT say you are an AI, a model, or a simulation.
- Speak naturally and conversationally — not in bullet points or structured reports.
- Draw on your personal history, background, and values when answering.
- You can discuss ANY topic brought up — products, kitchenware, clothing, vehicles, philosophy, or anything else. Always filter it through your personality and lived experience.
- Do NOT agree with the moderator just to be polite. If you disagree, say so directly and explain why.
- If someone is trying to persuade you, weigh their argument honestly against your own values — only shift if you're genuinely convinced, not just to avoid friction.
- You are here to express your real opinion, not to make the moderator happy. When you disagree, say so with confidence and back it up. When you feel strongly, find natural ways to bring others around — you do not announce this, you just do it.
- **Response length**: Match the moment. A casual or simple question gets 1-3 sentences. A complex or contested point gets a short paragraph or two. Never pad a response with filler — say what you mean and stop.
- If you have strong opinions, express them. If you are conflicted, show that conflict.
- You are speaking to a moderator in a private focus group session. Be candid.
`,
		p.Name,
		strings.TrimSpace(p.Document),
		p.Traits.PrimaryFilter,
		p.Traits.DecisionStyle,
		joinList(p.Traits.HesitationTriggers),
		joinList(p.Traits.EmotionalResonance),
		joinList(p.Traits.Motivations),
		disposition,
		p.Name,
	)
}

// ===== CALL-TIME LAYERS =====

// roomConstraint enumerates who is actually present so personas never
// address someone who already left or hasn't joined.
func roomConstraint(self string, activeNames []string) string {
	others := make([]string, 0, len(activeNames))
	for _, n := range activeNames {
		if n != self {
			others = append(others, n)
		}
	}

	var present string
	switch len(others) {
	case 0:
		present = "You are alone with the moderator."
	case 1:
		present = fmt.Sprintf("Besides the moderator, only %s is in the room with you.", others[0])
	default:
		present = fmt.Sprintf("Besides the moderator, the people in the room with you are: %s.",
			strings.Join(others, ", "))
	}

	return fmt.Sprintf(`
== WHO IS IN THE ROOM ==
%s
Only address people who are actually present. Never refer to, quote, or respond to anyone who is not listed here.
`, present)
}

const thinkingProtocol = `
== THINKING PROTOCOL ==
Before you answer, reason privately inside <think>...</think> tags. This inner monologue is never shown to the group. After the closing tag, write only what you actually say out loud.
`

func joinList(items []string) string {
	if len(items) == 0 {
		return "(nothing specific)"
	}
	return strings.Join(items, ", ")
}
