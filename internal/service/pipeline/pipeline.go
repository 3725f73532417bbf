// Package pipeline runs one site generation end to end: input checks, source fetch,
// prompt, model call, schema validation and module rendering.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/models"
	"github.com/chynybekuuludastan/sitecloner/internal/service/fetcher"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm/prompts"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Input error messages
const (
	MsgIndustryRequired = "industry required"
	MsgMissingSource    = "Provide either url or companyName"
	MsgInvalidURL       = "invalid url"
)

// Generation modes, used as metric labels
const (
	ModeURL  = "url"
	ModeSeed = "seed"
)

// SourceFetcher retrieves readable page content
type SourceFetcher interface {
	FetchReadable(ctx context.Context, url string) (*fetcher.PageExtract, error)
}

// ContentGenerator turns a prompt into candidate JSON
type ContentGenerator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// ContentValidator checks candidate JSON against the template schema
type ContentValidator interface {
	Validate(raw []byte) schema.Result
}

// Debug carries generation internals returned with ?debug=true
type Debug struct {
	UsedStructured bool   `json:"usedStructured"`
	OutputText     string `json:"output_text"`
	RawOutputItems int    `json:"rawOutputItems"`
}

// Output is a successful generation
type Output struct {
	TemplateID    string              `json:"templateId"`
	Meta          models.PageMeta     `json:"meta"`
	SiteContent   json.RawMessage     `json:"siteContent"`
	SiteContentJS string              `json:"siteContentJs"`
	Debug         *Debug              `json:"_debug,omitempty"`
	Content       *models.SiteContent `json:"-"`
}

// Options configures a Service
type Options struct {
	TemplateID string
	Reporter   Reporter
	Logger     logging.Logger
}

// Service orchestrates generation requests. Safe for concurrent use.
type Service struct {
	templateID string
	builder    prompts.Builder
	fetcher    SourceFetcher
	generator  ContentGenerator
	validator  ContentValidator
	reporter   Reporter
	logger     logging.Logger
	now        func() time.Time
}

// New creates the pipeline. The template must be registered.
func New(fetch SourceFetcher, registry *prompts.Registry, generator ContentGenerator, validator ContentValidator, opts Options) (*Service, error) {
	if opts.TemplateID == "" {
		opts.TemplateID = prompts.DefaultTemplateID
	}
	builder, err := registry.Get(opts.TemplateID)
	if err != nil {
		return nil, err
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &Service{
		templateID: opts.TemplateID,
		builder:    builder,
		fetcher:    fetch,
		generator:  generator,
		validator:  validator,
		reporter:   opts.Reporter,
		logger:     opts.Logger,
		now:        time.Now,
	}, nil
}

// TemplateID returns the template this pipeline fills
func (s *Service) TemplateID() string {
	return s.templateID
}

// Validate normalizes the request and checks it without doing any work
func Validate(req *models.GenerationRequest) error {
	req.Normalize()
	if req.Industry == "" {
		return &InputError{Message: MsgIndustryRequired}
	}
	if req.HasURL() {
		if _, err := fetcher.NormalizeURL(req.URL); err != nil {
			return &InputError{Message: MsgInvalidURL, Err: err}
		}
		return nil
	}
	if req.CompanyName == "" {
		return &InputError{Message: MsgMissingSource}
	}
	return nil
}

// Generate runs the whole pipeline. Steps are strictly sequential.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest, debug bool) (*Output, error) {
	if err := Validate(&req); err != nil {
		telemetry.Generations.WithLabelValues("none", "input_error").Inc()
		s.report(req.JobID, StageFailed, err.Error(), CategoryInput)
		return nil, err
	}

	mode := ModeSeed
	if req.HasURL() {
		mode = ModeURL
	}
	start := s.now()

	out, err := s.generate(ctx, req, mode, debug)
	telemetry.GenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		category := Categorize(err)
		telemetry.Generations.WithLabelValues(mode, category).Inc()
		s.report(req.JobID, StageFailed, err.Error(), category)
		return nil, err
	}

	telemetry.Generations.WithLabelValues(mode, "ok").Inc()
	s.report(req.JobID, StageCompleted, "", "")
	s.logger.Info("Site content generated",
		"template", s.templateID,
		"mode", mode,
		"industry", req.Industry,
		"duration", time.Since(start))
	return out, nil
}

func (s *Service) generate(ctx context.Context, req models.GenerationRequest, mode string, debug bool) (*Output, error) {
	var (
		prompt string
		meta   models.PageMeta
		source string
	)

	if mode == ModeURL {
		s.report(req.JobID, StageFetching, req.URL, "")
		page, err := s.fetcher.FetchReadable(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		meta = models.PageMeta{Title: page.Title, Description: page.MetaDescription}
		source = req.URL

		s.report(req.JobID, StagePrompting, "", "")
		prompt = s.builder.FromURL(prompts.URLContext{
			URL:             req.URL,
			Title:           page.Title,
			MetaDescription: page.MetaDescription,
			Text:            page.Text,
			Industry:        req.Industry,
		})
	} else {
		source = req.CompanyName
		s.report(req.JobID, StagePrompting, "", "")
		prompt = s.builder.FromSeed(prompts.SeedContext{
			CompanyName: req.CompanyName,
			Industry:    req.Industry,
		})
	}

	s.report(req.JobID, StageGenerating, "", "")
	result, err := s.generator.Generate(ctx, llm.Request{
		Prompt:     prompt,
		TemplateID: s.templateID,
		Industry:   req.Industry,
		Source:     source,
	})
	if err != nil {
		return nil, err
	}

	s.report(req.JobID, StageValidating, "", "")
	validation := s.validator.Validate(result.Content)
	if !validation.Valid {
		s.logger.Warn("Generated content failed schema validation",
			"issues", len(validation.Errors),
			"used_structured", result.UsedStructured)
		return nil, &ValidationFailure{
			ValidationError: &schema.ValidationError{
				Result: validation,
				Keys:   schema.TopLevelKeys(result.Content),
			},
			UsedStructured: result.UsedStructured,
			OutputText:     result.RawOutputText,
		}
	}

	var content models.SiteContent
	if err := json.Unmarshal(result.Content, &content); err != nil {
		return nil, fmt.Errorf("decode site content: %w", err)
	}

	module, err := RenderModule(s.templateID, req, result.Content)
	if err != nil {
		return nil, err
	}

	out := &Output{
		TemplateID:    s.templateID,
		Meta:          meta,
		SiteContent:   result.Content,
		SiteContentJS: module,
		Content:       &content,
	}
	if debug {
		items := 0
		if result.Response != nil {
			items = result.Response.OutputItems
		}
		out.Debug = &Debug{
			UsedStructured: result.UsedStructured,
			OutputText:     result.RawOutputText,
			RawOutputItems: items,
		}
	}
	return out, nil
}

func (s *Service) report(jobID, stage, message, category string) {
	if jobID == "" {
		return
	}
	s.reporter.Publish(jobID, Event{
		JobID:    jobID,
		Stage:    stage,
		Message:  message,
		Category: category,
		Time:     s.now().UTC(),
	})
}

// Categorize maps an error from Generate onto its caller-facing category
func Categorize(err error) string {
	var (
		inputErr      *InputError
		fetchErr      *fetcher.FetchError
		genErr        *llm.GenerationError
		validationErr *schema.ValidationError
	)
	switch {
	case errors.As(err, &inputErr):
		return CategoryInput
	case errors.As(err, &fetchErr):
		return CategoryFetch
	case errors.As(err, &validationErr):
		return CategoryValidation
	case errors.As(err, &genErr),
		errors.Is(err, llm.ErrAPIRequestFailed),
		errors.Is(err, llm.ErrRateLimitExceeded),
		errors.Is(err, llm.ErrBudgetExceeded):
		return CategoryGeneration
	default:
		return CategoryInternal
	}
}
