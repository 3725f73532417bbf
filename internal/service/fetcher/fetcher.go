// Package fetcher retrieves a source site and extracts its readable text.
package fetcher

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Options allows customizing the fetching behavior
type Options struct {
	Timeout   time.Duration
	Retries   int
	BaseDelay time.Duration
	UserAgent string
}

// DefaultOptions returns the default fetch options
func DefaultOptions() Options {
	return Options{
		Timeout:   45 * time.Second,
		Retries:   2,
		BaseDelay: time.Second,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher tries URL variants with a retrying primary client and a one-shot fallback
type Fetcher struct {
	primary  Client
	fallback Client
	opts     Options
	logger   logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher backed by colly with a net/http fallback
func New(opts Options, logger logging.Logger) *Fetcher {
	return NewWithClients(
		NewCollyClient(opts.Timeout, opts.UserAgent),
		NewHTTPClient(opts.Timeout, opts.UserAgent),
		opts,
		logger,
	)
}

// NewWithClients creates a Fetcher with explicit clients
func NewWithClients(primary, fallback Client, opts Options, logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Fetcher{
		primary:  primary,
		fallback: fallback,
		opts:     opts,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// FetchReadable downloads the first variant that yields HTML and extracts its text
func (f *Fetcher) FetchReadable(ctx context.Context, input string) (*PageExtract, error) {
	html, finalURL, err := f.FetchHTML(ctx, input)
	if err != nil {
		return nil, err
	}
	return Extract(html, finalURL), nil
}

// FetchHTML returns the raw HTML and the variant that produced it
func (f *Fetcher) FetchHTML(ctx context.Context, input string) (string, string, error) {
	var lastErr error

	for _, variant := range BuildURLVariants(input) {
		html, err := f.withRetries(ctx, variant)
		if err == nil && html != "" {
			telemetry.FetchAttempts.WithLabelValues(f.primary.Name(), "success").Inc()
			return html, variant, nil
		}
		lastErr = err
		telemetry.FetchAttempts.WithLabelValues(f.primary.Name(), "failure").Inc()

		if ctx.Err() != nil {
			break
		}

		f.logger.Warn("primary fetch failed, trying fallback",
			"url", variant, "error", err, "code", ErrorCode(err))

		html, err = f.fallback.Get(ctx, variant)
		if err == nil && html != "" {
			telemetry.FetchAttempts.WithLabelValues(f.fallback.Name(), "success").Inc()
			return html, variant, nil
		}
		if err != nil {
			lastErr = err
		}
		telemetry.FetchAttempts.WithLabelValues(f.fallback.Name(), "failure").Inc()

		f.logger.Warn("fallback fetch failed", "url", variant, "error", lastErr)
	}

	if lastErr == nil {
		lastErr = ErrEmptyBody
	}
	return "", "", &FetchError{URL: input, Code: lastCode(lastErr), Err: lastErr}
}

// withRetries runs the primary client with exponential backoff on transient errors
func (f *Fetcher) withRetries(ctx context.Context, target string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= f.opts.Retries; attempt++ {
		html, err := f.primary.Get(ctx, target)
		if err == nil {
			if html == "" {
				return "", ErrEmptyBody
			}
			return html, nil
		}
		lastErr = err

		if !IsRetriable(err) || attempt == f.opts.Retries {
			break
		}

		delay := f.opts.BaseDelay * time.Duration(1<<uint(attempt))
		f.logger.Debug("retrying fetch", "url", target, "attempt", attempt+1, "delay", delay, "code", ErrorCode(err))
		if err := f.sleep(ctx, delay); err != nil {
			return "", lastErr
		}
	}

	return "", lastErr
}

func lastCode(err error) string {
	if code := ErrorCode(err); code != "" {
		return code
	}
	var status *StatusError
	if errors.As(err, &status) {
		return "HTTP_" + strconv.Itoa(status.StatusCode)
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
