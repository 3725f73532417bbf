// Package providers implements llm.Provider for the supported model APIs.
package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
)

// Provider names accepted in LLM_PROVIDER
const (
	NameOpenAI = "openai"
	NameGemini = "gemini"
)

// New builds the provider named in the configuration
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case NameOpenAI, "":
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			BaseURL:     cfg.OpenAIBaseURL,
			Temperature: cfg.LLMTemperature,
			HTTPClient:  &http.Client{},
			Logger:      logger,
		})
	case NameGemini:
		return NewGeminiProvider(ctx, GeminiOptions{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.LLMTemperature,
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("%w: %s", llm.ErrInvalidProvider, cfg.LLMProvider)
	}
}
