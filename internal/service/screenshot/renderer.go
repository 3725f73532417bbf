// Package screenshot renders pages to PNG with a headless Chrome driven by chromedp.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

const (
	DefaultNavTimeout      = 45 * time.Second
	DefaultSelectorTimeout = 10 * time.Second
	DefaultReadyTimeout    = 15 * time.Second
	DefaultAssetTimeout    = 5 * time.Second

	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
)

// freezeMotionScript disables animations and transitions on every document
const freezeMotionScript = `(() => {
  const apply = () => {
    const style = document.createElement('style');
    style.setAttribute('data-sitecloner', 'freeze');
    style.textContent = '*,*::before,*::after{animation:none!important;transition:none!important;caret-color:transparent!important;scroll-behavior:auto!important}';
    (document.head || document.documentElement).appendChild(style);
  };
  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', apply, { once: true });
  } else {
    apply();
  }
})();`

// assetsScript resolves once fonts and every <img> have loaded or failed
const assetsScript = `(async () => {
  try { if (document.fonts && document.fonts.ready) { await document.fonts.ready; } } catch (e) {}
  const imgs = Array.from(document.images || []);
  await Promise.all(imgs.map((img) => img.complete ? null : new Promise((resolve) => {
    img.addEventListener('load', resolve, { once: true });
    img.addEventListener('error', resolve, { once: true });
  })));
  return true;
})()`

// RenderError wraps any launch, navigation or capture failure
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("screenshot of %s failed: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Config holds browser-level settings shared by all captures
type Config struct {
	// ChromePath overrides browser discovery when set
	ChromePath      string
	UserAgent       string
	NavTimeout      time.Duration
	SelectorTimeout time.Duration
	ReadyTimeout    time.Duration
	AssetTimeout    time.Duration
}

// Renderer captures screenshots. Each call launches and tears down its own browser.
type Renderer struct {
	cfg    Config
	logger logging.Logger
}

// NewRenderer creates a renderer, filling zero timeouts with defaults
func NewRenderer(cfg Config, logger logging.Logger) *Renderer {
	if cfg.UserAgent == "" {
		cfg.UserAgent = desktopUserAgent
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = DefaultNavTimeout
	}
	if cfg.SelectorTimeout <= 0 {
		cfg.SelectorTimeout = DefaultSelectorTimeout
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.AssetTimeout <= 0 {
		cfg.AssetTimeout = DefaultAssetTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Screenshot renders target and returns PNG bytes
func (r *Renderer) Screenshot(ctx context.Context, target string, opts Options) ([]byte, error) {
	opts = opts.Clamp()
	start := time.Now()

	png, err := r.capture(ctx, target, opts)
	telemetry.ScreenshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.Screenshots.WithLabelValues("error").Inc()
		r.logger.Error("Screenshot failed", "url", target, "error", err)
		return nil, &RenderError{URL: target, Err: err}
	}

	telemetry.Screenshots.WithLabelValues("ok").Inc()
	r.logger.Info("Screenshot captured", "url", target, "bytes", len(png), "duration", time.Since(start))
	return png, nil
}

func (r *Renderer) capture(ctx context.Context, target string, opts Options) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("no-zygote", true),
		chromedp.UserAgent(r.cfg.UserAgent),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if r.cfg.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			r.logger.Debug("chromedp: "+fmt.Sprintf(format, args...), "url", target)
		}))
	defer cancelBrowser()

	// launch
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	if err := chromedp.Run(browserCtx,
		emulation.SetDeviceMetricsOverride(int64(opts.Width), int64(opts.Height), opts.DPR, false),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(freezeMotionScript).Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("prepare page: %w", err)
	}

	if err := r.navigate(browserCtx, target); err != nil {
		return nil, err
	}

	if opts.WaitSelector != "" {
		if err := runWithTimeout(browserCtx, r.cfg.SelectorTimeout,
			chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery)); err != nil {
			r.logger.Debug("Wait selector not found, continuing", "url", target, "selector", opts.WaitSelector)
		}
	}

	var ready bool
	if err := chromedp.Run(browserCtx, chromedp.Poll(`document.readyState === "complete"`, &ready,
		chromedp.WithPollingInterval(100*time.Millisecond),
		chromedp.WithPollingTimeout(r.cfg.ReadyTimeout))); err != nil {
		r.logger.Debug("Page did not reach readyState complete", "url", target, "error", err)
	}

	var loaded bool
	if err := runWithTimeout(browserCtx, r.cfg.AssetTimeout, chromedp.Evaluate(assetsScript, &loaded,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithAwaitPromise(true) })); err != nil {
		r.logger.Debug("Fonts or images still loading", "url", target, "error", err)
	}

	steps, err := settle(browserCtx, cdpPage{}, opts)
	if err != nil {
		return nil, fmt.Errorf("settle page: %w", err)
	}
	r.logger.Debug("Page settled", "url", target, "scrolls", steps)

	var buf []byte
	capture := chromedp.CaptureScreenshot(&buf)
	if opts.FullPage {
		capture = chromedp.FullScreenshot(&buf, 100)
	}
	if err := chromedp.Run(browserCtx, capture); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if len(buf) == 0 {
		return nil, errors.New("capture returned no data")
	}
	return buf, nil
}

// navigate waits for the body to exist rather than for the load event, so pages with
// long-lived connections do not hang the capture
func (r *Renderer) navigate(ctx context.Context, target string) error {
	err := runWithTimeout(ctx, r.cfg.NavTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errorText, _, err := page.Navigate(target).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return errors.New(errorText)
			}
			return nil
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

func runWithTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

// cdpPage implements Page on the chromedp context passed to each call
type cdpPage struct{}

func (cdpPage) ScrollMetrics(ctx context.Context) (float64, float64, float64, error) {
	var m struct {
		Offset   float64 `json:"offset"`
		Viewport float64 `json:"viewport"`
		Document float64 `json:"document"`
	}
	err := chromedp.Run(ctx, chromedp.Evaluate(`({
		offset: window.scrollY,
		viewport: window.innerHeight,
		document: Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight)
	})`, &m))
	return m.Offset, m.Viewport, m.Document, err
}

func (cdpPage) ScrollBy(ctx context.Context, dy float64) error {
	return chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`window.scrollBy(0, %f)`, dy), nil))
}

func (cdpPage) ScrollToTop(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil))
}

func (cdpPage) Sleep(ctx context.Context, d time.Duration) error {
	return chromedp.Run(ctx, chromedp.Sleep(d))
}
