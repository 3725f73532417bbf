package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/embed"
	"github.com/chynybekuuludastan/sitecloner/internal/service/fetcher"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
	"github.com/chynybekuuludastan/sitecloner/internal/service/screenshot"
)

const (
	msgURLRequired      = "URL parameter required"
	screenshotCacheCtrl = "public, max-age=3600"

	// DefaultScreenshotTimeout bounds one screenshot request, browser launch included
	DefaultScreenshotTimeout = 90 * time.Second
)

// Capturer returns PNG bytes for a URL and whether they were cached
type Capturer interface {
	Capture(ctx context.Context, target string, opts screenshot.Options) ([]byte, bool, error)
}

// EmbedChecker decides whether a page may be framed
type EmbedChecker interface {
	CanEmbed(ctx context.Context, target string) embed.Result
}

// PreviewHandler serves the two preview helpers: screenshots and the embed check
type PreviewHandler struct {
	Screenshots Capturer
	Embed       EmbedChecker
	Timeout     time.Duration
	Logger      logging.Logger
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(shots Capturer, checker EmbedChecker, timeout time.Duration, logger logging.Logger) *PreviewHandler {
	if timeout <= 0 {
		timeout = DefaultScreenshotTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PreviewHandler{Screenshots: shots, Embed: checker, Timeout: timeout, Logger: logger}
}

// Screenshot handles GET /api/screenshot
//
//	@Summary		Screenshot a page
//	@Tags			preview
//	@Produce		png
//	@Param			url				query		string	true	"Page URL"
//	@Param			fullPage		query		bool	false	"Capture the whole page (default true)"
//	@Param			width			query		int		false	"Viewport width"
//	@Param			height			query		int		false	"Viewport height"
//	@Param			dpr				query		number	false	"Device pixel ratio"
//	@Param			delay			query		int		false	"Extra wait in milliseconds"
//	@Param			waitSelector	query		string	false	"CSS selector to wait for"
//	@Param			maxScrolls		query		int		false	"Scroll steps used to trigger lazy content"
//	@Success		200				{file}		binary
//	@Failure		400				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/screenshot [get]
func (h *PreviewHandler) Screenshot(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    msgURLRequired,
			"category": pipeline.CategoryInput,
		})
	}
	target, err := fetcher.NormalizeURL(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    pipeline.MsgInvalidURL,
			"url":      raw,
			"category": pipeline.CategoryInput,
		})
	}

	opts := screenshot.ParseOptions(func(key string) string { return c.Query(key) })

	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()

	png, cached, err := h.Screenshots.Capture(ctx, target.String(), opts)
	if err != nil {
		h.Logger.Error("Screenshot failed", "url", raw, "error", err)
		category := pipeline.CategoryInternal
		var renderErr *screenshot.RenderError
		if errors.As(err, &renderErr) {
			category = pipeline.CategoryRender
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    "Failed to take screenshot",
			"details":  err.Error(),
			"url":      raw,
			"category": category,
		})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, screenshotCacheCtrl)
	if cached {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	return c.Send(png)
}

// CanEmbed handles GET /api/can-embed
//
//	@Summary		Check whether a page may be shown in an iframe
//	@Tags			preview
//	@Produce		json
//	@Param			url	query		string	true	"Page URL"
//	@Success		200	{object}	embed.Result
//	@Failure		400	{object}	ErrorResponse
//	@Router			/can-embed [get]
func (h *PreviewHandler) CanEmbed(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    msgURLRequired,
			"category": pipeline.CategoryInput,
		})
	}

	// Malformed URLs are still answered, as a non-embeddable result
	target := raw
	if u, err := fetcher.NormalizeURL(raw); err == nil {
		target = u.String()
	}

	return c.JSON(h.Embed.CanEmbed(context.Background(), target))
}
