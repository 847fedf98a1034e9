// Package image analyzes advertisement images with a cloud vision model and
// briefs the room's personas on what the images contain. Analyses are cached
// by content hash so reloading the same file never repeats the model call.
package image

import (
	"fmt"
	"strings"
)

// AnalysisResult is the structured description returned by the vision model.
// Older cache entries carry only the legacy fields (typography_notes,
// pricing_text); formatting handles both shapes.
type AnalysisResult struct {
	VividDescription string `json:"vivid_description"`

	CopyVerbatim        string `json:"copy_verbatim,omitempty"`
	CopyMeaning         string `json:"copy_meaning,omitempty"`
	TypographyStyle     string `json:"typography_style,omitempty"`
	TypographyHierarchy string `json:"typography_hierarchy,omitempty"`

	ColourPalette    []string `json:"colour_palette,omitempty"`
	ColourSchemeType string   `json:"colour_scheme_type,omitempty"`
	ColourPsychology string   `json:"colour_psychology,omitempty"`

	HasDeal         *bool  `json:"has_deal,omitempty"`
	PricingVerbatim string `json:"pricing_verbatim,omitempty"`
	DealType        string `json:"deal_type,omitempty"`
	DealConditions  string `json:"deal_conditions,omitempty"`

	BackgroundDescription string `json:"background_description,omitempty"`
	BackgroundObjects     string `json:"background_objects,omitempty"`
	VisualLayers          string `json:"visual_layers,omitempty"`
	ObjectCount           *int   `json:"object_count,omitempty"`

	PeoplePresent     *bool  `json:"people_present,omitempty"`
	PeopleDescription string `json:"people_description,omitempty"`

	ProductPlacement string   `json:"product_placement,omitempty"`
	BrandPresence    string   `json:"brand_presence,omitempty"`
	VisualHierarchy  []string `json:"visual_hierarchy,omitempty"`
	EmotionalTone    string   `json:"emotional_tone,omitempty"`
	ImpliedAudience  string   `json:"implied_audience,omitempty"`

	// Legacy schema fields.
	TypographyNotes string `json:"typography_notes,omitempty"`
	PricingText     string `json:"pricing_text,omitempty"`
}

// LoadedImage is one analyzed image in the room.
type LoadedImage struct {
	Filename string         `json:"filename"`
	Hash     string         `json:"hash"`
	Analysis AnalysisResult `json:"analysis"`
}

// analysisPrompt instructs the vision model to document the ad with clinical
// precision and return strict JSON.
const analysisPrompt = `You are a designer and marketing analyst. Your job is to document this advertisement with clinical precision — vivid, factual, and strictly neutral. Do not say whether the ad is good or bad. Do not praise or criticise it. Just describe exactly what you see.

Return ONLY a valid JSON object — no markdown, no explanation, no code fences. Start your response with { and end with }.

The JSON must have exactly these fields:

{
  "vivid_description": "<Immersive prose, 250-350 words. Describe spatial layout, the first thing the eye lands on, depth and layers, lighting quality, colour relationships, negative space, overall composition balance, and atmosphere. Write as if the reader cannot see the image at all.>",

  "copy_verbatim": "<Every line of text visible in the ad, copied exactly as written. Separate lines with ' | '. Include headlines, body copy, taglines, pricing, disclaimers, and any other readable text. If no text is present, write null.>",
  "copy_meaning": "<What the text communicates as a complete message — the idea or value proposition being sold. One concise paragraph. Neutral, no opinion.>",
  "typography_style": "<The character of the font(s): serif or sans-serif, weight (thin/regular/bold/black), and whether the style reads as premium, casual, urgent, playful, technical, or something else. Note if multiple fonts are used.>",
  "typography_hierarchy": "<Which text element is largest or most visually dominant (primary), what follows in weight (secondary), and what is fine print or tertiary. Describe size and weight contrast between levels.>",

  "colour_palette": ["<most dominant colour — name it and describe its role and emotional quality>", "<secondary colour — name it and describe its role>", "<accent or tertiary colour if present, or omit this entry>"],
  "colour_scheme_type": "<e.g. monochromatic, complementary, analogous, split-complementary, high-contrast achromatic, warm-dominant, cool-dominant, etc.>",
  "colour_psychology": "<What emotions or associations the colour choices are intended to trigger — e.g. trust, excitement, luxury, urgency, calm, energy. Neutral and observational, not evaluative.>",

  "has_deal": <true if any discount, bundle, promotional offer, or special pricing is visible; false otherwise>,
  "pricing_verbatim": "<Verbatim price or offer text exactly as it appears in the image, or null if none>",
  "deal_type": "<one of: bundle, percentage-off, amount-off, limited-time, free-gift, trade-in, financing, membership — or null if no deal is present>",
  "deal_conditions": "<Any terms, conditions, or fine print related to the offer, verbatim or closely paraphrased. null if none visible.>",

  "background_description": "<The physical environment or setting — studio backdrop, lifestyle scene, abstract gradient, outdoor location, plain colour, etc. Describe the mood and context it creates.>",
  "background_objects": "<Other props, objects, or supporting elements visible beyond the main product. List each with a brief description. Write 'none' if there are no secondary objects.>",
  "visual_layers": "<Describe what occupies the foreground, midground, and background of the composition.>",
  "object_count": <integer — approximate count of distinct visual elements including products, people, props, text blocks, logos, decorative elements>,

  "people_present": <true if any people or body parts are visible; false otherwise>,
  "people_description": "<If people are present: count, apparent age range, gender, ethnicity if determinable, activity, and facial expression or mood. null if no people.>",

  "product_placement": "<Where the product sits in the frame — left/right/centre, foreground/background — how large it appears relative to the whole image, and what frames or surrounds it.>",
  "brand_presence": "<Brand name and/or logo — exact location in frame, approximate size relative to image, and whether it reads as subtle / moderate / dominant at a glance.>",

  "visual_hierarchy": ["<the first thing the eye is drawn to>", "<second>", "<third>", "<fourth if applicable>"],
  "emotional_tone": "<The dominant feeling the ad is designed to evoke — e.g. aspiration, nostalgia, urgency, trust, excitement, exclusivity, warmth, power. One phrase.>",
  "implied_audience": "<Who this ad is targeting. Be specific about inferred age range, gender, lifestyle, income level, and psychographics — based only on what the visual language and design choices signal.>"
}`

// ===== PERSONA BRIEF FORMATTING =====

// FormatForPersonas renders all loaded images as one context block. Personas
// can reference images by filename or position.
func FormatForPersonas(images []LoadedImage) string {
	if len(images) == 0 {
		return ""
	}

	parts := make([]string, 0, len(images))
	for i, img := range images {
		parts = append(parts, formatOne(i+1, img))
	}

	plural := " has"
	if len(images) != 1 {
		plural = "s have"
	}
	header := fmt.Sprintf(
		"%d advertisement image%s been shared in the room.\n"+
			"You may refer to them by filename or as 'the first image', 'the second image', etc.\n\n",
		len(images), plural,
	)
	return header + strings.Join(parts, "\n\n---\n\n")
}

func formatOne(n int, img LoadedImage) string {
	r := img.Analysis
	var b strings.Builder

	fmt.Fprintf(&b, "Image %d — %s\n", n, img.Filename)
	b.WriteString(r.VividDescription + "\n")

	if r.CopyVerbatim != "" {
		fmt.Fprintf(&b, "\nText visible in ad: %s\n", r.CopyVerbatim)
	}
	optLine(&b, "Message", r.CopyMeaning)
	switch {
	case r.TypographyStyle != "" && r.TypographyHierarchy != "":
		fmt.Fprintf(&b, "Typography: %s — hierarchy: %s\n", r.TypographyStyle, r.TypographyHierarchy)
	case r.TypographyStyle != "":
		fmt.Fprintf(&b, "Typography: %s\n", r.TypographyStyle)
	case r.TypographyHierarchy != "":
		fmt.Fprintf(&b, "Typography: %s\n", r.TypographyHierarchy)
	case r.TypographyNotes != "":
		fmt.Fprintf(&b, "Typography: %s\n", r.TypographyNotes)
	}

	if len(r.ColourPalette) > 0 {
		fmt.Fprintf(&b, "\nColour palette: %s\n", strings.Join(r.ColourPalette, ", "))
	}
	optLine(&b, "Colour scheme", r.ColourSchemeType)
	optLine(&b, "Colour psychology", r.ColourPsychology)

	pricing := r.PricingVerbatim
	if pricing == "" {
		pricing = r.PricingText
	}
	switch {
	case r.HasDeal != nil && *r.HasDeal:
		deal := "\nDeal: "
		if r.DealType != "" {
			deal += r.DealType
		} else {
			deal += "present"
		}
		if pricing != "" {
			deal += " — " + pricing
		}
		if r.DealConditions != "" {
			deal += " (" + r.DealConditions + ")"
		}
		b.WriteString(deal + "\n")
	case r.HasDeal != nil:
		b.WriteString("\nDeal: none\n")
	case pricing != "":
		fmt.Fprintf(&b, "\nPricing / offer: %s\n", pricing)
	}

	optLine(&b, "\nBackground", r.BackgroundDescription)
	optLine(&b, "Objects", r.BackgroundObjects)
	optLine(&b, "Layers", r.VisualLayers)
	if r.ObjectCount != nil {
		fmt.Fprintf(&b, "Visual element count: ~%d\n", *r.ObjectCount)
	}

	switch {
	case r.PeoplePresent != nil && *r.PeoplePresent && r.PeopleDescription != "":
		fmt.Fprintf(&b, "People: %s\n", r.PeopleDescription)
	case r.PeoplePresent != nil && !*r.PeoplePresent:
		b.WriteString("People: none\n")
	}

	optLine(&b, "\nProduct placement", r.ProductPlacement)
	optLine(&b, "Brand", r.BrandPresence)

	if len(r.VisualHierarchy) > 0 {
		fmt.Fprintf(&b, "\nEye path: %s\n", strings.Join(r.VisualHierarchy, " → "))
	}
	optLine(&b, "Emotional tone", r.EmotionalTone)
	optLine(&b, "Implied audience", r.ImpliedAudience)

	return strings.TrimRight(b.String(), "\n")
}

func optLine(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
