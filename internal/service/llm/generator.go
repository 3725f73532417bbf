package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/diagnostics"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

// emptyOutputMarker is written to diagnostics when the model produced no text
const emptyOutputMarker = "<empty>"

// GenerationError is returned when neither the structured nor the text path
// produced parseable JSON
type GenerationError struct {
	ParseErr error
	RawText  string
	Response *Response
	// SavedTo names where the raw output was recorded, if anywhere
	SavedTo string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("model returned invalid JSON: %v", e.ParseErr)
}

func (e *GenerationError) Unwrap() error {
	return e.ParseErr
}

// Request is one content generation call
type Request struct {
	Prompt string
	// The fields below only annotate diagnostics
	TemplateID string
	Industry   string
	Source     string
}

// Result is the candidate content and how it was obtained
type Result struct {
	Content json.RawMessage
	// UsedStructured is true when Content came from a schema-constrained JSON item
	UsedStructured bool
	RawOutputText  string
	Response       *Response
	Provider       string
}

// GeneratorOptions configures a Generator
type GeneratorOptions struct {
	Provider      string
	UseStructured bool
	Sink          diagnostics.Sink
	// SinkLabel is reported in GenerationError.SavedTo
	SinkLabel string
	Logger    logging.Logger
}

// Generator turns a prompt into candidate site content
type Generator struct {
	service       *Service
	schema        *schema.Document
	provider      string
	useStructured bool
	sink          diagnostics.Sink
	sinkLabel     string
	logger        logging.Logger
}

// NewGenerator creates a generator bound to a schema document
func NewGenerator(service *Service, doc *schema.Document, opts GeneratorOptions) *Generator {
	if opts.Sink == nil {
		opts.Sink = diagnostics.NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Generator{
		service:       service,
		schema:        doc,
		provider:      opts.Provider,
		useStructured: opts.UseStructured,
		sink:          opts.Sink,
		sinkLabel:     opts.SinkLabel,
		logger:        opts.Logger,
	}
}

// Generate prefers a single structured call and falls back to one text call plus
// best-effort JSON extraction. Neither path is retried.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	provider, err := g.service.GetProvider(g.provider)
	if err != nil {
		return nil, err
	}
	name := provider.GetName()

	var resp *Response

	if g.useStructured && g.schema != nil {
		structured, err := g.service.Structured(ctx, provider, req.Prompt, g.schema)
		if err != nil {
			g.logger.Warn("Structured output call failed; falling back to text JSON parse",
				"provider", name, "error", err)
		} else {
			resp = structured
			if len(structured.JSON) > 0 && json.Valid(structured.JSON) {
				return &Result{
					Content:        structured.JSON,
					UsedStructured: true,
					RawOutputText:  strings.TrimSpace(structured.OutputText),
					Response:       structured,
					Provider:       name,
				}, nil
			}
			g.logger.Info("Structured response carried no JSON item", "provider", name, "response_id", structured.ID)
		}
	}

	// Reuse the structured response only when it carried usable text
	if resp == nil || strings.TrimSpace(resp.OutputText) == "" {
		resp, err = g.service.Text(ctx, provider, req.Prompt)
		if err != nil {
			return nil, err
		}
	}

	outText := strings.TrimSpace(resp.OutputText)
	content, parseErr := ExtractJSON(outText)
	if parseErr != nil {
		return nil, g.fail(ctx, req, name, resp, outText, parseErr)
	}

	return &Result{
		Content:       content,
		RawOutputText: outText,
		Response:      resp,
		Provider:      name,
	}, nil
}

// fail records the raw output and builds the GenerationError
func (g *Generator) fail(ctx context.Context, req Request, provider string, resp *Response, outText string, parseErr error) error {
	raw := outText
	if raw == "" {
		raw = emptyOutputMarker
	}

	failure := diagnostics.Failure{
		TemplateID: req.TemplateID,
		Industry:   req.Industry,
		Source:     req.Source,
		Provider:   provider,
		ParseError: parseErr.Error(),
		RawOutput:  raw,
	}
	if resp != nil {
		failure.Model = resp.Model
		failure.ResponseID = resp.ID
		failure.Status = resp.Status
	}

	savedTo := g.sinkLabel
	if err := g.sink.Record(ctx, failure); err != nil {
		g.logger.Error("Failed to record invalid model output", "error", err)
		savedTo = ""
	}

	g.logger.Error("Model returned invalid JSON", "provider", provider, "error", parseErr)

	return &GenerationError{
		ParseErr: parseErr,
		RawText:  outText,
		Response: resp,
		SavedTo:  savedTo,
	}
}
