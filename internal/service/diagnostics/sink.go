// Package diagnostics records model outputs that failed to parse, for offline inspection.
//
// Sinks are best effort. Concurrent failures race on the single "last output" slot of the
// file and Redis sinks, and the last writer wins.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/chynybekuuludastan/sitecloner/internal/models"
	"github.com/chynybekuuludastan/sitecloner/internal/repository"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Failure describes one unparseable model output
type Failure struct {
	ID         uuid.UUID `json:"id"`
	TemplateID string    `json:"templateId"`
	Industry   string    `json:"industry"`
	Source     string    `json:"source"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	ResponseID string    `json:"responseId"`
	Status     string    `json:"status"`
	ParseError string    `json:"parseError"`
	RawOutput  string    `json:"rawOutput"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Sink is a destination for failed model outputs
type Sink interface {
	Record(ctx context.Context, failure Failure) error
	Name() string
}

// Prepare fills the id and timestamp when missing
func (f *Failure) Prepare() {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
}

// FileSink overwrites a single file with the latest raw output
type FileSink struct {
	Path string
}

// NewFileSink creates a file sink writing to path
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) Name() string { return "file" }

// Record replaces the file contents with the raw output. The write is not atomic.
func (s *FileSink) Record(_ context.Context, failure Failure) error {
	if err := os.WriteFile(s.Path, []byte(failure.RawOutput), 0o644); err != nil {
		return fmt.Errorf("failed to write debug file: %w", err)
	}
	return nil
}

const (
	// RedisLastKey holds the raw text of the most recent failure
	RedisLastKey = "sitecloner:last-model-output"
	// RedisHistoryKey holds JSON-encoded recent failures, newest first
	RedisHistoryKey = "sitecloner:model-failures"
	// DefaultHistorySize bounds the Redis history list
	DefaultHistorySize = 20
)

// RedisSink keeps the last raw output plus a capped history list
type RedisSink struct {
	client      *redis.Client
	historySize int64
}

// NewRedisSink creates a Redis sink
func NewRedisSink(client *redis.Client, historySize int) *RedisSink {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &RedisSink{client: client, historySize: int64(historySize)}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Record(ctx context.Context, failure Failure) error {
	failure.Prepare()

	entry, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to marshal failure: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, RedisLastKey, failure.RawOutput, 0)
		pipe.LPush(ctx, RedisHistoryKey, entry)
		pipe.LTrim(ctx, RedisHistoryKey, 0, s.historySize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record failure in redis: %w", err)
	}
	return nil
}

// DBSink inserts failures through the failure repository
type DBSink struct {
	repo repository.FailureRepository
}

// NewDBSink creates a database sink
func NewDBSink(repo repository.FailureRepository) *DBSink {
	return &DBSink{repo: repo}
}

func (s *DBSink) Name() string { return "db" }

func (s *DBSink) Record(ctx context.Context, failure Failure) error {
	failure.Prepare()

	metadata, err := json.Marshal(map[string]interface{}{
		"rawLength": len(failure.RawOutput),
	})
	if err != nil {
		return err
	}

	row := &models.ModelFailure{
		ID:         failure.ID,
		TemplateID: failure.TemplateID,
		Industry:   failure.Industry,
		Source:     failure.Source,
		Provider:   failure.Provider,
		Model:      failure.Model,
		ResponseID: failure.ResponseID,
		Status:     failure.Status,
		ParseError: failure.ParseError,
		RawOutput:  failure.RawOutput,
		Metadata:   datatypes.JSON(metadata),
		CreatedAt:  failure.CreatedAt,
	}
	if err := s.repo.Record(ctx, row); err != nil {
		return fmt.Errorf("failed to store failure: %w", err)
	}
	return nil
}

// MultiSink records to every sink and returns the first error
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink fans out to the given sinks, skipping nils
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Name() string { return "multi" }

func (m *MultiSink) Record(ctx context.Context, failure Failure) error {
	failure.Prepare()

	var first error
	for _, s := range m.sinks {
		err := s.Record(ctx, failure)
		result := "ok"
		if err != nil {
			result = "error"
			if first == nil {
				first = err
			}
		}
		telemetry.DiagnosticsRecorded.WithLabelValues(s.Name(), result).Inc()
	}
	return first
}

// Len returns the number of wrapped sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// NopSink discards everything
type NopSink struct{}

func (NopSink) Name() string { return "nop" }

func (NopSink) Record(context.Context, Failure) error { return nil }
