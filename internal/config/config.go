package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	CORSOrigin   string

	// Logging
	LogLevel string

	// Storage (optional; empty disables the feature that needs it)
	PostgresURI string
	RedisURI    string

	// Template
	TemplateID    string
	DebugFilePath string

	// LLM
	LLMProvider      string
	LLMUseStructured bool
	LLMTimeout       time.Duration
	LLMRateLimit     float64
	LLMRateBurst     int
	LLMTemperature   float64
	LLMDailyBudget   float64
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	GeminiModel      string

	// Fetching
	FetchTimeout   time.Duration
	FetchRetries   int
	FetchBaseDelay time.Duration

	// Embed check
	EmbedTimeout time.Duration

	// Screenshot
	ChromePath             string
	ScreenshotNavTimeout   time.Duration
	ScreenshotReadyTimeout time.Duration
	ScreenshotCacheTTL     time.Duration
}

// defaults mirrors the env var names; viper resolves the env var first, then the
// optional config file, then these values.
var defaults = map[string]interface{}{
	"port":          "5050",
	"environment":   "development",
	"read_timeout":  "30s",
	"write_timeout": "180s",
	"body_limit":    2 * 1024 * 1024,
	"cors_origin":   "*",

	"log_level": "info",

	"postgres_uri": "",
	"redis_uri":    "",

	"template_id":     "digital-marketing/maxreach",
	"debug_file_path": "last-model-output.txt",

	"llm_provider":       "openai",
	"llm_use_structured": true,
	"llm_timeout":        "120s",
	"llm_rate_limit":     2.0,
	"llm_rate_burst":     4,
	"llm_temperature":    0.2,
	"llm_daily_budget":   0.0,
	"openai_api_key":     "",
	"openai_model":       "gpt-4.1-mini",
	"openai_base_url":    "https://api.openai.com/v1",
	"gemini_api_key":     "",
	"gemini_model":       "gemini-1.5-flash",

	"fetch_timeout":    "45s",
	"fetch_retries":    2,
	"fetch_base_delay": "1s",

	"embed_timeout": "15s",

	"chrome_path":              "",
	"screenshot_nav_timeout":   "45s",
	"screenshot_ready_timeout": "15s",
	"screenshot_cache_ttl":     "1h",
}

// NewConfig creates a new configuration from environment variables and, when
// SITECLONER_CONFIG points at a file, from that file.
func NewConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("SITECLONER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:         v.GetString("port"),
		Environment:  v.GetString("environment"),
		ReadTimeout:  v.GetDuration("read_timeout"),
		WriteTimeout: v.GetDuration("write_timeout"),
		BodyLimit:    v.GetInt("body_limit"),
		CORSOrigin:   v.GetString("cors_origin"),

		LogLevel: v.GetString("log_level"),

		PostgresURI: v.GetString("postgres_uri"),
		RedisURI:    v.GetString("redis_uri"),

		TemplateID:    v.GetString("template_id"),
		DebugFilePath: v.GetString("debug_file_path"),

		LLMProvider:      v.GetString("llm_provider"),
		LLMUseStructured: v.GetBool("llm_use_structured"),
		LLMTimeout:       v.GetDuration("llm_timeout"),
		LLMRateLimit:     v.GetFloat64("llm_rate_limit"),
		LLMRateBurst:     v.GetInt("llm_rate_burst"),
		LLMTemperature:   v.GetFloat64("llm_temperature"),
		LLMDailyBudget:   v.GetFloat64("llm_daily_budget"),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		OpenAIModel:      v.GetString("openai_model"),
		OpenAIBaseURL:    v.GetString("openai_base_url"),
		GeminiAPIKey:     v.GetString("gemini_api_key"),
		GeminiModel:      v.GetString("gemini_model"),

		FetchTimeout:   v.GetDuration("fetch_timeout"),
		FetchRetries:   v.GetInt("fetch_retries"),
		FetchBaseDelay: v.GetDuration("fetch_base_delay"),

		EmbedTimeout: v.GetDuration("embed_timeout"),

		ChromePath:             v.GetString("chrome_path"),
		ScreenshotNavTimeout:   v.GetDuration("screenshot_nav_timeout"),
		ScreenshotReadyTimeout: v.GetDuration("screenshot_ready_timeout"),
		ScreenshotCacheTTL:     v.GetDuration("screenshot_cache_ttl"),
	}

	if cfg.TemplateID == "" {
		return nil, fmt.Errorf("TEMPLATE_ID must not be empty")
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 0
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
