package screenshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Option limits
const (
	DefaultWidth      = 1200
	DefaultHeight     = 800
	DefaultMaxScrolls = 40

	MinWidth, MaxWidth   = 320, 3840
	MinHeight, MaxHeight = 240, 4320
	MinDPR, MaxDPR       = 1.0, 3.0
	MaxDelay             = 10 * time.Second
	MaxScrollsLimit      = 200
)

// Options control a single capture
type Options struct {
	FullPage     bool
	Width        int
	Height       int
	DPR          float64
	Delay        time.Duration
	WaitSelector string
	MaxScrolls   int
}

// DefaultOptions returns a full-page 1200x800 capture at DPR 1
func DefaultOptions() Options {
	return Options{
		FullPage:   true,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		DPR:        1,
		MaxScrolls: DefaultMaxScrolls,
	}
}

// ParseOptions reads options from query-style parameters. Missing or malformed values
// keep their defaults; out-of-range values are clamped. delay is in milliseconds.
func ParseOptions(get func(key string) string) Options {
	opts := DefaultOptions()

	if v := strings.TrimSpace(get("fullPage")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.FullPage = b
		}
	}
	if n, ok := parseInt(get("width")); ok {
		opts.Width = n
	}
	if n, ok := parseInt(get("height")); ok {
		opts.Height = n
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(get("dpr")), 64); err == nil {
		opts.DPR = f
	}
	if n, ok := parseInt(get("delay")); ok {
		opts.Delay = time.Duration(n) * time.Millisecond
	}
	if n, ok := parseInt(get("maxScrolls")); ok {
		opts.MaxScrolls = n
	}
	opts.WaitSelector = strings.TrimSpace(get("waitSelector"))

	return opts.Clamp()
}

// Clamp forces every field into its allowed range
func (o Options) Clamp() Options {
	o.Width = clampInt(o.Width, MinWidth, MaxWidth)
	o.Height = clampInt(o.Height, MinHeight, MaxHeight)
	if o.DPR < MinDPR || o.DPR != o.DPR {
		o.DPR = MinDPR
	}
	if o.DPR > MaxDPR {
		o.DPR = MaxDPR
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.Delay > MaxDelay {
		o.Delay = MaxDelay
	}
	o.MaxScrolls = clampInt(o.MaxScrolls, 0, MaxScrollsLimit)
	return o
}

// CacheKey is a canonical rendering of the options, stable across equal values
func (o Options) CacheKey() string {
	return fmt.Sprintf("full=%t;w=%d;h=%d;dpr=%g;delay=%d;sel=%s;scrolls=%d",
		o.FullPage, o.Width, o.Height, o.DPR, o.Delay.Milliseconds(), o.WaitSelector, o.MaxScrolls)
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// accept "1.5"-style input by truncation
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		n = int(f)
	}
	return n, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
