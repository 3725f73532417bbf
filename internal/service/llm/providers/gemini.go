package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider implements llm.Provider for Google's Gemini API
type GeminiProvider struct {
	modelName   string
	temperature float32
	client      *genai.Client
	logger      logging.Logger
}

// GeminiOptions configures the Gemini provider
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float64
	// ClientOptions are appended after the API key, e.g. a custom endpoint
	ClientOptions []option.ClientOption
	Logger        logging.Logger
}

// NewGeminiProvider creates a new Gemini provider using the official client
func NewGeminiProvider(ctx context.Context, opts GeminiOptions) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(opts.APIKey)}, opts.ClientOptions...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		modelName:   opts.Model,
		temperature: float32(opts.Temperature),
		client:      client,
		logger:      opts.Logger,
	}, nil
}

// GetName returns the provider name
func (p *GeminiProvider) GetName() string {
	return "gemini"
}

func (p *GeminiProvider) model() *genai.GenerativeModel {
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(p.temperature)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockOnlyHigh},
	}
	return model
}

// GenerateStructured asks Gemini for application/json output with a response schema.
// The text part is returned as the JSON item when it is a valid object.
func (p *GeminiProvider) GenerateStructured(ctx context.Context, prompt string, doc *schema.Document) (*llm.Response, error) {
	if doc == nil {
		return nil, errors.New("gemini: structured output needs a schema")
	}

	responseSchema, err := ConvertSchema(doc.Tree)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := p.model()
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema

	resp, err := p.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}
	if isObject(json.RawMessage(resp.OutputText)) {
		resp.JSON = json.RawMessage(strings.TrimSpace(resp.OutputText))
	}
	return resp, nil
}

// GenerateText asks Gemini for plain text
func (p *GeminiProvider) GenerateText(ctx context.Context, prompt string) (*llm.Response, error) {
	return p.generate(ctx, p.model(), prompt)
}

func (p *GeminiProvider) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (*llm.Response, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		p.logger.Error("Gemini API error", "error", err)
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return nil, fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if textPart, ok := part.(genai.Text); ok {
				text.WriteString(string(textPart))
			}
		}
	}

	output, _ := json.Marshal([]map[string]string{{
		"finishReason": candidate.FinishReason.String(),
		"text":         text.String(),
	}})

	out := &llm.Response{
		Model:       p.modelName,
		Status:      candidate.FinishReason.String(),
		OutputText:  text.String(),
		Output:      output,
		OutputItems: len(resp.Candidates),
	}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// Close closes the Gemini client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// ConvertSchema maps a JSON Schema tree onto Gemini's schema subset. Local $refs are
// inlined. Keywords Gemini lacks (lengths, patterns, cardinalities) become description
// hints.
func ConvertSchema(tree map[string]interface{}) (*genai.Schema, error) {
	defs, _ := tree["$defs"].(map[string]interface{})
	return convertNode(tree, defs, 0)
}

const maxSchemaDepth = 32

func convertNode(node map[string]interface{}, defs map[string]interface{}, depth int) (*genai.Schema, error) {
	if depth > maxSchemaDepth {
		return nil, errors.New("schema nesting too deep")
	}

	if ref, ok := node["$ref"].(string); ok {
		name := strings.TrimPrefix(ref, "#/$defs/")
		target, ok := defs[name].(map[string]interface{})
		if !ok || name == ref {
			return nil, fmt.Errorf("unresolvable $ref %q", ref)
		}
		return convertNode(target, defs, depth+1)
	}

	out := &genai.Schema{}
	if desc, ok := node["description"].(string); ok {
		out.Description = desc
	}

	var hints []string
	typ, _ := node["type"].(string)
	switch typ {
	case "object":
		out.Type = genai.TypeObject
		props, _ := node["properties"].(map[string]interface{})
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			child, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("property %q is not an object", name)
			}
			converted, err := convertNode(child, defs, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out.Properties[name] = converted
		}
		if required, ok := node["required"].([]interface{}); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					out.Required = append(out.Required, s)
				}
			}
		}
	case "array":
		out.Type = genai.TypeArray
		items, ok := node["items"].(map[string]interface{})
		if !ok {
			return nil, errors.New("array without items")
		}
		converted, err := convertNode(items, defs, depth+1)
		if err != nil {
			return nil, err
		}
		out.Items = converted
		minItems, hasMin := number(node["minItems"])
		maxItems, hasMax := number(node["maxItems"])
		if hasMin && hasMax && minItems == maxItems {
			hints = append(hints, fmt.Sprintf("exactly %d items", minItems))
		} else if hasMax {
			hints = append(hints, fmt.Sprintf("at most %d items", maxItems))
		}
	case "string":
		out.Type = genai.TypeString
		if enum, ok := node["enum"].([]interface{}); ok {
			for _, e := range enum {
				if s, ok := e.(string); ok {
					out.Enum = append(out.Enum, s)
				}
			}
		}
		if maxLen, ok := number(node["maxLength"]); ok {
			hints = append(hints, fmt.Sprintf("at most %d characters", maxLen))
		}
		if pattern, ok := node["pattern"].(string); ok {
			hints = append(hints, "must match "+pattern)
		}
	case "integer":
		out.Type = genai.TypeInteger
		minimum, hasMin := number(node["minimum"])
		maximum, hasMax := number(node["maximum"])
		if hasMin && hasMax {
			hints = append(hints, fmt.Sprintf("between %d and %d", minimum, maximum))
		} else if hasMin {
			hints = append(hints, fmt.Sprintf("at least %d", minimum))
		}
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", typ)
	}

	if len(hints) > 0 {
		if out.Description != "" {
			out.Description += "; "
		}
		out.Description += strings.Join(hints, "; ")
	}
	return out, nil
}

func number(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
