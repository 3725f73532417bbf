package screenshot

import (
	"context"
	"errors"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/repository/cache"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Capturer produces PNG bytes for a URL
type Capturer interface {
	Screenshot(ctx context.Context, target string, opts Options) ([]byte, error)
}

// Store is the screenshot cache
type Store interface {
	GetScreenshot(ctx context.Context, key string) ([]byte, error)
	CacheScreenshot(ctx context.Context, key string, png []byte) error
}

// Service puts a cache in front of a Capturer. Cache failures are logged and ignored.
type Service struct {
	capturer Capturer
	store    Store
	logger   logging.Logger
}

// NewService creates a screenshot service. store may be nil.
func NewService(capturer Capturer, store Store, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{capturer: capturer, store: store, logger: logger}
}

// Capture returns the PNG for target and whether it came from the cache
func (s *Service) Capture(ctx context.Context, target string, opts Options) ([]byte, bool, error) {
	opts = opts.Clamp()
	key := cache.ScreenshotKey(target, opts.CacheKey())

	if s.store != nil {
		png, err := s.store.GetScreenshot(ctx, key)
		switch {
		case err != nil && !errors.Is(err, cache.ErrUnavailable):
			s.logger.Warn("Screenshot cache read failed", "url", target, "error", err)
		case len(png) > 0:
			telemetry.Screenshots.WithLabelValues("cache_hit").Inc()
			return png, true, nil
		}
	}

	png, err := s.capturer.Screenshot(ctx, target, opts)
	if err != nil {
		return nil, false, err
	}

	if s.store != nil {
		if err := s.store.CacheScreenshot(ctx, key, png); err != nil {
			s.logger.Warn("Screenshot cache write failed", "url", target, "error", err)
		}
	}
	return png, false, nil
}
