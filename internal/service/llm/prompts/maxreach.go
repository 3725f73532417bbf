package prompts

import (
	_ "embed"
	"fmt"
	"strings"
)

// maxPromptText bounds the source text embedded in a URL-mode prompt, in runes
const maxPromptText = 120000

//go:embed templates/maxreach.skeleton.json
var maxReachSkeleton string

const structureHint = `You MUST return a single JSON object that EXACTLY matches the JSON Schema provided.
- All required keys MUST appear.
- No extra keys are allowed.
- Arrays MUST have the exact number of items the schema asks for (minItems equals maxItems).
- Strings MUST stay within the schema's maxLength limits.
- When a value cannot be determined from context, use an empty string "" and keep the key.`

const baseRules = `Rules:
- Write ORIGINAL, professional, benefit-driven digital marketing copy.
- Keep the tone persuasive yet credible.
- Do NOT add or rename keys.
- Do NOT add comments, markdown or any text outside the JSON object.
- Icons are Feather icon names (react-icons/fi), e.g. "FiZap", "FiEdit3", "FiSettings".
- Statistic values and suffixes are strings.
- Keep array sizes EXACT: 4 steps, 8 FAQ items, 3 testimonials and so on.
- Respect maxLength limits with concise, clear sentences.
- If unsure, output "" rather than skipping a field.`

// MaxReach builds prompts for the digital-marketing/maxreach template
type MaxReach struct{}

// NewMaxReach creates the maxreach prompt builder
func NewMaxReach() *MaxReach {
	return &MaxReach{}
}

// Skeleton returns the literal JSON skeleton embedded in every prompt
func Skeleton() string {
	return maxReachSkeleton
}

// ID implements Builder
func (m *MaxReach) ID() string {
	return DefaultTemplateID
}

// FromURL implements Builder
func (m *MaxReach) FromURL(ctx URLContext) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are generating STRICT schema-aligned JSON for a website clone in the %q industry.\n\n", ctx.Industry))

	sb.WriteString("Source context:\n")
	sb.WriteString(fmt.Sprintf("- URL: %s\n", ctx.URL))
	sb.WriteString(fmt.Sprintf("- Title: %s\n", orNA(ctx.Title)))
	sb.WriteString(fmt.Sprintf("- Meta: %s\n\n", orNA(ctx.MetaDescription)))

	sb.WriteString("SOURCE (trimmed):\n\"\"\"\n")
	sb.WriteString(trimText(ctx.Text, maxPromptText))
	sb.WriteString("\n\"\"\"\n\n")

	m.writeContract(&sb)
	return sb.String()
}

// FromSeed implements Builder
func (m *MaxReach) FromSeed(ctx SeedContext) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are generating STRICT schema-aligned JSON for a new website clone in the %q industry.\n", ctx.Industry))
	sb.WriteString(fmt.Sprintf("There is no source website. Write original marketing copy for %q.\n\n", ctx.CompanyName))

	sb.WriteString("Brand seed:\n")
	sb.WriteString(fmt.Sprintf("- Company: %s\n", ctx.CompanyName))
	sb.WriteString(fmt.Sprintf("- Industry: %s\n", ctx.Industry))
	sb.WriteString("- Voice: professional, credible, conversion-focused\n\n")

	m.writeContract(&sb)
	return sb.String()
}

// writeContract appends the shape requirements shared by both modes
func (m *MaxReach) writeContract(sb *strings.Builder) {
	sb.WriteString(structureHint)
	sb.WriteString("\n\nHere is a minimal JSON skeleton to follow (all required keys present, arrays exact length):\n")
	sb.WriteString(strings.TrimSpace(maxReachSkeleton))
	sb.WriteString("\n\n")
	sb.WriteString(baseRules)
	sb.WriteString("\n\nReturn ONLY the final JSON object now.\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// trimText collapses whitespace and keeps at most limit runes
func trimText(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
