package tokens

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
)

func fixedClock(day string) func() time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(12 * time.Hour) }
}

func TestTokensToCost(t *testing.T) {
	in, out, total := TokensToCost("gpt-4.1-mini", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.40, in, 1e-9)
	assert.InDelta(t, 1.60, out, 1e-9)
	assert.InDelta(t, 2.00, total, 1e-9)

	_, _, unknown := TokensToCost("some-new-model", 1_000_000, 0)
	assert.InDelta(t, 2.00, unknown, 1e-9)
}

func TestTrackerInMemory(t *testing.T) {
	tracker := NewTracker(nil, 1.0)
	tracker.now = fixedClock("2026-03-01")
	tracker.currentDay = tracker.day()
	ctx := context.Background()

	require.NoError(t, tracker.Record(ctx, "openai", "gpt-4.1-mini", llm.Usage{InputTokens: 1_000_000}))
	cost, err := tracker.DailyCost(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, cost, 1e-9)
	assert.False(t, tracker.IsBudgetExceeded(ctx))

	require.NoError(t, tracker.Record(ctx, "openai", "gpt-4.1-mini", llm.Usage{OutputTokens: 1_000_000}))
	assert.True(t, tracker.IsBudgetExceeded(ctx))

	tracker.now = fixedClock("2026-03-02")
	cost, err = tracker.DailyCost(ctx)
	require.NoError(t, err)
	assert.Zero(t, cost)
	assert.False(t, tracker.IsBudgetExceeded(ctx))
}

func TestTrackerRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker := NewTracker(client, 0)
	tracker.now = fixedClock("2026-03-01")
	tracker.currentDay = tracker.day()
	ctx := context.Background()

	usage := llm.Usage{InputTokens: 1200, OutputTokens: 300, TotalTokens: 1500}
	require.NoError(t, tracker.Record(ctx, "openai", "gpt-4.1", usage))
	require.NoError(t, tracker.Record(ctx, "openai", "gpt-4.1", usage))

	key := Key("2026-03-01")
	assert.Equal(t, "2", mr.HGet(key, "requests"))
	assert.Equal(t, "2400", mr.HGet(key, "openai:gpt-4.1:input"))
	assert.Equal(t, "600", mr.HGet(key, "openai:gpt-4.1:output"))
	assert.True(t, mr.TTL(key) > 30*24*time.Hour)

	stored, err := strconv.ParseFloat(mr.HGet(key, "cost_usd"), 64)
	require.NoError(t, err)
	cost, err := tracker.DailyCost(ctx)
	require.NoError(t, err)
	assert.InDelta(t, stored, cost, 1e-9)
	assert.InDelta(t, 2*(1200*2.0+300*8.0)/1_000_000, cost, 1e-9)

	// zero budget never blocks
	assert.False(t, tracker.IsBudgetExceeded(ctx))
}

func TestTrackerRedisEmptyDay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cost, err := NewTracker(client, 5).DailyCost(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cost)
}
