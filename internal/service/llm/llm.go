package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Common errors
var (
	ErrAPIRequestFailed  = errors.New("LLM API request failed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidProvider   = errors.New("invalid LLM provider specified")
	ErrNoProviders       = errors.New("no LLM providers registered")
	ErrBudgetExceeded    = errors.New("daily LLM budget exceeded")
)

// Call modes, used as metric labels
const (
	ModeStructured = "structured"
	ModeText       = "text"
)

// Usage is the token accounting reported by a provider
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is a provider-neutral model response
type Response struct {
	ID     string `json:"id,omitempty"`
	Model  string `json:"model,omitempty"`
	Status string `json:"status,omitempty"`
	// OutputText is the concatenated text output
	OutputText string `json:"output_text"`
	// JSON is set only when the provider returned a schema-constrained JSON item
	JSON json.RawMessage `json:"-"`
	// Output is the provider's raw output items, kept for debugging
	Output      json.RawMessage `json:"output,omitempty"`
	OutputItems int             `json:"-"`
	Usage       Usage           `json:"usage"`
}

// Provider defines the interface that all LLM providers must implement
type Provider interface {
	// GenerateStructured asks for output constrained to the given JSON schema
	GenerateStructured(ctx context.Context, prompt string, doc *schema.Document) (*Response, error)

	// GenerateText asks for unconstrained text output
	GenerateText(ctx context.Context, prompt string) (*Response, error)

	// GetName returns the name of the provider
	GetName() string

	// Close performs any necessary cleanup
	Close() error
}

// UsageRecorder receives token usage after every successful call
type UsageRecorder interface {
	Record(ctx context.Context, provider, model string, usage Usage) error
}

// BudgetChecker reports whether further calls should be refused
type BudgetChecker interface {
	IsBudgetExceeded(ctx context.Context) bool
}

// Service handles provider registration, rate limiting and call timeouts
type Service struct {
	providers       map[string]Provider
	defaultProvider string
	limiter         *rate.Limiter
	timeout         time.Duration
	usage           UsageRecorder
	budget          BudgetChecker
	mutex           sync.RWMutex
	logger          logging.Logger
}

// ServiceOptions contains configuration for the LLM service
type ServiceOptions struct {
	DefaultProvider string
	RateLimit       rate.Limit
	RateBurst       int
	Timeout         time.Duration
	Usage           UsageRecorder
	Budget          BudgetChecker
	Logger          logging.Logger
}

// NewService creates a new LLM service with the specified options
func NewService(opts ServiceOptions) *Service {
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Limit(2)
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 4
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &Service{
		providers:       make(map[string]Provider),
		defaultProvider: opts.DefaultProvider,
		limiter:         rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		timeout:         opts.Timeout,
		usage:           opts.Usage,
		budget:          opts.Budget,
		logger:          opts.Logger,
	}
}

// RegisterProvider registers an LLM provider with the service
func (s *Service) RegisterProvider(provider Provider) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	providerName := provider.GetName()
	s.providers[providerName] = provider

	if s.defaultProvider == "" {
		s.defaultProvider = providerName
	}

	s.logger.Info("Registered LLM provider", "provider", providerName)
}

// GetProvider returns a provider by name, using the default if name is empty
func (s *Service) GetProvider(name string) (Provider, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.providers) == 0 {
		return nil, ErrNoProviders
	}
	if name == "" {
		name = s.defaultProvider
	}

	provider, exists := s.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, name)
	}

	return provider, nil
}

// Close closes every registered provider
func (s *Service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var errs []error
	for name, p := range s.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Structured runs one rate-limited, time-bounded structured call. There is no retry.
func (s *Service) Structured(ctx context.Context, provider Provider, prompt string, doc *schema.Document) (*Response, error) {
	return s.call(ctx, provider, ModeStructured, prompt, func(ctx context.Context) (*Response, error) {
		return provider.GenerateStructured(ctx, prompt, doc)
	})
}

// Text runs one rate-limited, time-bounded text call. There is no retry.
func (s *Service) Text(ctx context.Context, provider Provider, prompt string) (*Response, error) {
	return s.call(ctx, provider, ModeText, prompt, func(ctx context.Context) (*Response, error) {
		return provider.GenerateText(ctx, prompt)
	})
}

func (s *Service) call(ctx context.Context, provider Provider, mode, prompt string, fn func(context.Context) (*Response, error)) (*Response, error) {
	name := provider.GetName()

	if s.budget != nil && s.budget.IsBudgetExceeded(ctx) {
		telemetry.LLMRequests.WithLabelValues(name, mode, "budget_exceeded").Inc()
		return nil, ErrBudgetExceeded
	}

	// Apply rate limiting
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Error("Rate limit exceeded", "error", err, "provider", name)
		telemetry.LLMRequests.WithLabelValues(name, mode, "rate_limited").Inc()
		return nil, ErrRateLimitExceeded
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := fn(callCtx)
	telemetry.LLMDuration.WithLabelValues(name, mode).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.LLMRequests.WithLabelValues(name, mode, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	telemetry.LLMRequests.WithLabelValues(name, mode, "ok").Inc()

	if resp.Usage == (Usage{}) {
		resp.Usage = estimateUsage(prompt, resp.OutputText)
	}

	if s.usage != nil {
		if err := s.usage.Record(ctx, name, resp.Model, resp.Usage); err != nil {
			s.logger.Warn("Failed to record LLM usage", "error", err, "provider", name)
		}
	}

	s.logger.Debug("LLM call finished",
		"provider", name,
		"mode", mode,
		"model", resp.Model,
		"duration", time.Since(start),
		"output_items", resp.OutputItems)

	return resp, nil
}

// estimateUsage approximates token counts when the provider reports none,
// at roughly 4 characters per token for English text
func estimateUsage(prompt, output string) Usage {
	in := utf8.RuneCountInString(prompt) / 4
	out := utf8.RuneCountInString(output) / 4
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}
