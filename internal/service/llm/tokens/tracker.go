package tokens

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Models maps model names to pricing information
var Models = map[string]ModelInfo{
	"gpt-4.1-mini": {
		TokensPerPromptDollar: 1000000.0 / 0.40, // $0.40 per 1M input tokens
		TokensPerOutputDollar: 1000000.0 / 1.60, // $1.60 per 1M output tokens
		Name:                  "gpt-4.1-mini",
		Provider:              "openai",
	},
	"gpt-4.1": {
		TokensPerPromptDollar: 1000000.0 / 2.00,
		TokensPerOutputDollar: 1000000.0 / 8.00,
		Name:                  "gpt-4.1",
		Provider:              "openai",
	},
	"gpt-4o-mini": {
		TokensPerPromptDollar: 1000000.0 / 0.15,
		TokensPerOutputDollar: 1000000.0 / 0.60,
		Name:                  "gpt-4o-mini",
		Provider:              "openai",
	},
	"gemini-1.5-flash": {
		TokensPerPromptDollar: 1000.0 / 0.00035, // $0.00035 per 1K input tokens
		TokensPerOutputDollar: 1000.0 / 0.00035,
		Name:                  "gemini-1.5-flash",
		Provider:              "gemini",
	},
	"gemini-1.5-pro": {
		TokensPerPromptDollar: 1000.0 / 0.00175,
		TokensPerOutputDollar: 1000.0 / 0.00175,
		Name:                  "gemini-1.5-pro",
		Provider:              "gemini",
	},
}

// fallbackModel prices models missing from the table
const fallbackModel = "gpt-4.1"

// ModelInfo contains pricing information for a model
type ModelInfo struct {
	TokensPerPromptDollar float64 // Tokens per dollar for input
	TokensPerOutputDollar float64 // Tokens per dollar for output
	Name                  string  // Model name
	Provider              string  // Provider name
}

// keyPrefix prefixes the per-day Redis usage hash
const keyPrefix = "llm_usage:"

// Tracker accumulates token usage and estimated cost per day. Redis is optional;
// without it only the Prometheus counters and the in-process total are kept.
type Tracker struct {
	redisClient *redis.Client
	dailyBudget float64
	now         func() time.Time

	mu         sync.RWMutex
	currentDay string
	dailyCost  float64
}

// NewTracker creates a usage tracker. A zero dailyBudget disables the budget check.
func NewTracker(client *redis.Client, dailyBudget float64) *Tracker {
	t := &Tracker{
		redisClient: client,
		dailyBudget: dailyBudget,
		now:         time.Now,
	}
	t.currentDay = t.day()
	return t
}

func (t *Tracker) day() string {
	return t.now().UTC().Format("2006-01-02")
}

// Key returns the Redis hash key holding usage for a day
func Key(day string) string {
	return keyPrefix + day
}

// TokensToCost converts tokens to cost for a given model
func TokensToCost(model string, promptTokens, completionTokens int) (float64, float64, float64) {
	modelInfo, ok := Models[model]
	if !ok {
		modelInfo = Models[fallbackModel]
	}

	promptCost := float64(promptTokens) / modelInfo.TokensPerPromptDollar
	completionCost := float64(completionTokens) / modelInfo.TokensPerOutputDollar
	return promptCost, completionCost, promptCost + completionCost
}

// Record implements llm.UsageRecorder
func (t *Tracker) Record(ctx context.Context, provider, model string, usage llm.Usage) error {
	telemetry.LLMTokens.WithLabelValues(provider, model, "input").Add(float64(usage.InputTokens))
	telemetry.LLMTokens.WithLabelValues(provider, model, "output").Add(float64(usage.OutputTokens))

	_, _, cost := TokensToCost(model, usage.InputTokens, usage.OutputTokens)
	day := t.day()

	t.mu.Lock()
	if day != t.currentDay {
		t.currentDay = day
		t.dailyCost = 0
	}
	t.dailyCost += cost
	t.mu.Unlock()

	if t.redisClient == nil {
		return nil
	}

	key := Key(day)
	_, err := t.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, "requests", 1)
		pipe.HIncrBy(ctx, key, provider+":"+model+":input", int64(usage.InputTokens))
		pipe.HIncrBy(ctx, key, provider+":"+model+":output", int64(usage.OutputTokens))
		pipe.HIncrByFloat(ctx, key, "cost_usd", cost)
		pipe.Expire(ctx, key, 35*24*time.Hour)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store usage: %w", err)
	}
	return nil
}

// DailyCost returns today's estimated spend, preferring the shared Redis total
func (t *Tracker) DailyCost(ctx context.Context) (float64, error) {
	if t.redisClient != nil {
		value, err := t.redisClient.HGet(ctx, Key(t.day()), "cost_usd").Result()
		if err == redis.Nil {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(value, 64)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.currentDay != t.day() {
		return 0, nil
	}
	return t.dailyCost, nil
}

// IsBudgetExceeded checks if the daily budget is exceeded
func (t *Tracker) IsBudgetExceeded(ctx context.Context) bool {
	if t.dailyBudget <= 0 {
		return false
	}
	cost, err := t.DailyCost(ctx)
	if err != nil {
		return false
	}
	return cost >= t.dailyBudget
}
