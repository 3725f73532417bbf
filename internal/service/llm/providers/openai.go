package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4.1-mini"
)

// ErrMissingAPIKey is returned when a provider is configured without credentials
var ErrMissingAPIKey = errors.New("API key is required")

// APIError is a non-2xx answer from a provider API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// OpenAIProvider implements llm.Provider on the OpenAI Responses API
type OpenAIProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
	logger      logging.Logger
}

// OpenAIOptions configures the OpenAI provider
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
	Logger      logging.Logger
}

// openAIFormat is the text.format block of a Responses request
type openAIFormat struct {
	Type   string      `json:"type"`
	Name   string      `json:"name,omitempty"`
	Schema interface{} `json:"schema,omitempty"`
	Strict bool        `json:"strict,omitempty"`
}

// OpenAIRequest represents a request to the Responses API
type OpenAIRequest struct {
	Model       string      `json:"model"`
	Input       string      `json:"input"`
	Temperature float64     `json:"temperature"`
	Text        *openAIText `json:"text,omitempty"`
}

type openAIText struct {
	Format openAIFormat `json:"format"`
}

// openAIContent is one content item of an output message
type openAIContent struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	JSON json.RawMessage `json:"json,omitempty"`
}

// OpenAIResponse represents the response from the Responses API
type OpenAIResponse struct {
	ID         string          `json:"id"`
	Model      string          `json:"model"`
	Status     string          `json:"status"`
	OutputText string          `json:"output_text"`
	Output     json.RawMessage `json:"output"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOpenAIBaseURL
	}
	if opts.HTTPClient == nil {
		// deadlines come from the caller's context
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &OpenAIProvider{
		apiKey:      opts.APIKey,
		model:       opts.Model,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		temperature: opts.Temperature,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}, nil
}

// GetName returns the provider name
func (p *OpenAIProvider) GetName() string {
	return "openai"
}

// GenerateStructured requests strict json_schema output
func (p *OpenAIProvider) GenerateStructured(ctx context.Context, prompt string, doc *schema.Document) (*llm.Response, error) {
	if doc == nil {
		return nil, errors.New("openai: structured output needs a schema")
	}

	request := OpenAIRequest{
		Model:       p.model,
		Input:       prompt,
		Temperature: p.temperature,
	}
	request.Text = &openAIText{
		Format: openAIFormat{
			Type:   "json_schema",
			Name:   doc.Name,
			Schema: stripMetaKeywords(doc.Tree),
			Strict: true,
		},
	}

	return p.makeRequest(ctx, request)
}

// GenerateText requests plain text output
func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string) (*llm.Response, error) {
	return p.makeRequest(ctx, OpenAIRequest{
		Model:       p.model,
		Input:       prompt,
		Temperature: p.temperature,
	})
}

// makeRequest sends a request to the Responses API
func (p *OpenAIProvider) makeRequest(ctx context.Context, request OpenAIRequest) (*llm.Response, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResponse OpenAIResponse
	decodeErr := json.Unmarshal(body, &apiResponse)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := resp.Status
		if decodeErr == nil && apiResponse.Error != nil && apiResponse.Error.Message != "" {
			message = apiResponse.Error.Message
		}
		p.logger.Error("OpenAI API error", "status", resp.StatusCode, "message", message)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}

	return toResponse(&apiResponse), nil
}

// toResponse collects output_text items and the first json item
func toResponse(r *OpenAIResponse) *llm.Response {
	out := &llm.Response{
		ID:     r.ID,
		Model:  r.Model,
		Status: r.Status,
		Output: r.Output,
		Usage: llm.Usage{
			InputTokens:  r.Usage.InputTokens,
			OutputTokens: r.Usage.OutputTokens,
			TotalTokens:  r.Usage.TotalTokens,
		},
	}

	var items []struct {
		Type    string          `json:"type"`
		Content []openAIContent `json:"content"`
	}
	if len(r.Output) > 0 {
		if err := json.Unmarshal(r.Output, &items); err != nil {
			items = nil
		}
	}
	out.OutputItems = len(items)

	var texts []string
	for _, item := range items {
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				texts = append(texts, c.Text)
			case "json":
				if out.JSON == nil && isObject(c.JSON) {
					out.JSON = c.JSON
				}
			}
		}
	}

	out.OutputText = r.OutputText
	if out.OutputText == "" {
		out.OutputText = strings.Join(texts, "")
	}
	return out
}

// stripMetaKeywords drops top-level keywords the API does not accept
func stripMetaKeywords(tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(tree))
	for k, v := range tree {
		if k == "$schema" || k == "$id" {
			continue
		}
		out[k] = v
	}
	return out
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// Close implements llm.Provider
func (p *OpenAIProvider) Close() error {
	// Nothing to close for HTTP client
	return nil
}
