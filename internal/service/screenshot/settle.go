package screenshot

import (
	"context"
	"time"
)

// Settle timings
const (
	ScrollPause = 250 * time.Millisecond
	SettlePause = 1000 * time.Millisecond
	TopPause    = 300 * time.Millisecond
)

// Page is the slice of browser behaviour the settle sequence needs
type Page interface {
	// ScrollMetrics reports the current scroll offset, viewport height and document height
	ScrollMetrics(ctx context.Context) (offset, viewport, document float64, err error)
	ScrollBy(ctx context.Context, dy float64) error
	ScrollToTop(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration) error
}

// autoScroll steps down one viewport at a time until the bottom is visible or maxScrolls
// steps were taken. It returns the number of steps.
func autoScroll(ctx context.Context, p Page, maxScrolls int) (int, error) {
	steps := 0
	for steps < maxScrolls {
		offset, viewport, document, err := p.ScrollMetrics(ctx)
		if err != nil {
			return steps, err
		}
		if viewport <= 0 || offset+viewport >= document {
			break
		}
		if err := p.ScrollBy(ctx, viewport); err != nil {
			return steps, err
		}
		steps++
		if err := p.Sleep(ctx, ScrollPause); err != nil {
			return steps, err
		}
	}
	return steps, nil
}

// settle runs auto-scroll, the network settle pause, the return to the top and the
// caller's extra delay. The pauses run even when no scrolling happened.
func settle(ctx context.Context, p Page, opts Options) (int, error) {
	steps, err := autoScroll(ctx, p, opts.MaxScrolls)
	if err != nil {
		return steps, err
	}
	if err := p.Sleep(ctx, SettlePause); err != nil {
		return steps, err
	}
	if err := p.ScrollToTop(ctx); err != nil {
		return steps, err
	}
	if err := p.Sleep(ctx, TopPause); err != nil {
		return steps, err
	}
	if opts.Delay > 0 {
		if err := p.Sleep(ctx, opts.Delay); err != nil {
			return steps, err
		}
	}
	return steps, nil
}
