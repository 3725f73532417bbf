// Package embed decides whether a page may be shown inside an iframe, judging only by
// the X-Frame-Options and Content-Security-Policy response headers.
package embed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

const (
	// DefaultTimeout bounds each of the HEAD and GET requests
	DefaultTimeout = 15 * time.Second

	headerXFO = "X-Frame-Options"
	headerCSP = "Content-Security-Policy"
)

// Reasons explains the verdict. Header fields are nil when the header was absent.
type Reasons struct {
	XFrameOptions         *string `json:"xFrameOptions,omitempty"`
	ContentSecurityPolicy *string `json:"contentSecurityPolicy,omitempty"`
	Error                 string  `json:"error,omitempty"`
}

// Result is the outcome of one check
type Result struct {
	Embeddable bool    `json:"embeddable"`
	Reasons    Reasons `json:"reasons"`
}

// Checker performs embeddability checks. Safe for concurrent use.
type Checker struct {
	client    *http.Client
	userAgent string
	logger    logging.Logger
}

// NewChecker creates a checker. A nil client gets one with DefaultTimeout.
func NewChecker(client *http.Client, userAgent string, logger logging.Logger) *Checker {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{client: client, userAgent: userAgent, logger: logger}
}

// CanEmbed never fails: request errors become a non-embeddable result with an error reason
func (c *Checker) CanEmbed(ctx context.Context, target string) Result {
	header, err := c.headers(ctx, target)
	if err != nil {
		c.logger.Warn("Embed check failed", "url", target, "error", err)
		telemetry.EmbedChecks.WithLabelValues("error").Inc()
		return Result{Embeddable: false, Reasons: Reasons{Error: err.Error()}}
	}

	result := Evaluate(header)
	telemetry.EmbedChecks.WithLabelValues(fmt.Sprintf("%t", result.Embeddable)).Inc()
	return result
}

// headers tries HEAD first and falls back to a single GET when HEAD errors or is
// non-2xx. The GET headers are used whatever its status; only transport failures error.
func (c *Checker) headers(ctx context.Context, target string) (http.Header, error) {
	header, status, err := c.do(ctx, http.MethodHead, target)
	if err == nil && status >= 200 && status <= 299 {
		return header, nil
	}
	c.logger.Debug("HEAD failed, retrying with GET", "url", target, "status", status, "error", err)

	header, status, err = c.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		c.logger.Debug("GET returned non-2xx, judging its headers", "url", target, "status", status)
	}
	return header, nil
}

func (c *Checker) do(ctx context.Context, method, target string) (http.Header, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.Header, resp.StatusCode, nil
}

// Evaluate applies the blocking rules to a set of response headers. A frame-ancestors
// directive blocks regardless of its sources; no origin matching is attempted.
func Evaluate(header http.Header) Result {
	var reasons Reasons
	blocked := false

	if values := header.Values(headerXFO); len(values) > 0 {
		xfo := strings.Join(values, ", ")
		reasons.XFrameOptions = &xfo
		lower := strings.ToLower(xfo)
		if strings.Contains(lower, "deny") || strings.Contains(lower, "sameorigin") {
			blocked = true
		}
	}

	if values := header.Values(headerCSP); len(values) > 0 {
		csp := strings.Join(values, ", ")
		reasons.ContentSecurityPolicy = &csp
		if hasFrameAncestors(csp) {
			blocked = true
		}
	}

	return Result{Embeddable: !blocked, Reasons: reasons}
}

func hasFrameAncestors(csp string) bool {
	// multiple policies arrive joined with commas
	directives := strings.FieldsFunc(csp, func(r rune) bool { return r == ';' || r == ',' })
	for _, directive := range directives {
		fields := strings.Fields(directive)
		if len(fields) > 0 && strings.EqualFold(fields[0], "frame-ancestors") {
			return true
		}
	}
	return false
}
