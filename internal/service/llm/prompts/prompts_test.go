package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

func TestFromSeedContainsBrandAndIndustry(t *testing.T) {
	prompt := NewMaxReach().FromSeed(SeedContext{CompanyName: "Acme", Industry: "digital-marketing"})

	assert.Contains(t, prompt, "Acme")
	assert.Contains(t, prompt, "digital-marketing")
	assert.Contains(t, prompt, "There is no source website")
	assert.Contains(t, prompt, `"faqItems"`)
	assert.True(t, strings.HasSuffix(prompt, "Return ONLY the final JSON object now.\n"))
}

func TestFromURLIsIdempotent(t *testing.T) {
	ctx := URLContext{
		URL:             "https://acme.test",
		Title:           "Acme",
		MetaDescription: "Growth marketing",
		Text:            "We grow brands.",
		Industry:        "digital-marketing",
	}
	b := NewMaxReach()

	assert.Equal(t, b.FromURL(ctx), b.FromURL(ctx))
}

func TestFromURLFallsBackToNA(t *testing.T) {
	prompt := NewMaxReach().FromURL(URLContext{URL: "https://acme.test", Industry: "digital-marketing"})

	assert.Contains(t, prompt, "- Title: N/A\n")
	assert.Contains(t, prompt, "- Meta: N/A\n")
}

func TestFromURLTrimsSourceText(t *testing.T) {
	long := strings.Repeat("word   ", 50000)
	prompt := NewMaxReach().FromURL(URLContext{URL: "https://acme.test", Text: long, Industry: "x"})

	start := strings.Index(prompt, "\"\"\"\n") + 4
	end := strings.LastIndex(prompt, "\n\"\"\"")
	require.Greater(t, end, start)

	source := prompt[start:end]
	assert.Len(t, []rune(source), maxPromptText)
	assert.NotContains(t, source, "  ")
}

func TestSkeletonSatisfiesSchema(t *testing.T) {
	v, err := schema.NewValidator(DefaultTemplateID)
	require.NoError(t, err)

	res := v.Validate([]byte(Skeleton()))
	assert.True(t, res.Valid, "%+v", res.Errors)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	b, err := r.Get(DefaultTemplateID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplateID, b.ID())
	assert.Equal(t, []string{DefaultTemplateID}, r.IDs())

	_, err = r.Get("restaurants/bistro")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
