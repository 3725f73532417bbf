package providers

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

func TestConvertSchema(t *testing.T) {
	tree := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"icon", "items"},
		"$defs": map[string]interface{}{
			"icon": map[string]interface{}{
				"type":    "string",
				"pattern": "^[A-Z][A-Za-z0-9]*$",
			},
		},
		"properties": map[string]interface{}{
			"icon": map[string]interface{}{"$ref": "#/$defs/icon"},
			"items": map[string]interface{}{
				"type":     "array",
				"minItems": float64(3),
				"maxItems": float64(3),
				"items": map[string]interface{}{
					"type":        "string",
					"description": "A short label",
					"maxLength":   float64(40),
				},
			},
			"rating": map[string]interface{}{"type": "integer", "minimum": float64(1), "maximum": float64(5)},
			"kind":   map[string]interface{}{"type": "string", "enum": []interface{}{"a", "b"}},
		},
	}

	out, err := ConvertSchema(tree)
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, out.Type)
	assert.ElementsMatch(t, []string{"icon", "items"}, out.Required)

	icon := out.Properties["icon"]
	require.NotNil(t, icon)
	assert.Equal(t, genai.TypeString, icon.Type)
	assert.Contains(t, icon.Description, "must match ^[A-Z]")

	items := out.Properties["items"]
	require.NotNil(t, items)
	assert.Equal(t, genai.TypeArray, items.Type)
	assert.Equal(t, "exactly 3 items", items.Description)
	assert.Equal(t, "A short label; at most 40 characters", items.Items.Description)

	assert.Equal(t, "between 1 and 5", out.Properties["rating"].Description)
	assert.Equal(t, []string{"a", "b"}, out.Properties["kind"].Enum)
}

func TestConvertSchemaErrors(t *testing.T) {
	_, err := ConvertSchema(map[string]interface{}{"$ref": "#/$defs/missing"})
	assert.Error(t, err)

	_, err = ConvertSchema(map[string]interface{}{"type": "array"})
	assert.Error(t, err)

	_, err = ConvertSchema(map[string]interface{}{"type": "null"})
	assert.Error(t, err)

	loop := map[string]interface{}{
		"$defs": map[string]interface{}{"self": map[string]interface{}{"$ref": "#/$defs/self"}},
		"$ref":  "#/$defs/self",
	}
	_, err = ConvertSchema(loop)
	assert.Error(t, err)
}

func TestConvertTemplateSchema(t *testing.T) {
	v, err := schema.NewValidator("digital-marketing/maxreach")
	require.NoError(t, err)

	out, err := ConvertSchema(v.Document().Tree)
	require.NoError(t, err)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Contains(t, out.Properties, "faq")
	assert.Contains(t, out.Properties, "testimonials")
}

func TestNewFromConfig(t *testing.T) {
	p, err := New(context.Background(), &config.Config{LLMProvider: "openai", OpenAIAPIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, NameOpenAI, p.GetName())

	_, err = New(context.Background(), &config.Config{LLMProvider: "openai"}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(context.Background(), &config.Config{LLMProvider: "gemini"}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(context.Background(), &config.Config{LLMProvider: "claude"}, nil)
	assert.ErrorIs(t, err, llm.ErrInvalidProvider)
}
