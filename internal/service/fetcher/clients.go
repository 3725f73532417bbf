package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Client retrieves the raw HTML of a single URL
type Client interface {
	Get(ctx context.Context, url string) (string, error)
	Name() string
}

const (
	maxRedirects = 10
	maxBodySize  = 20 * 1024 * 1024

	// DefaultUserAgent is a realistic desktop browser user agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
)

// browserHeaders are sent by both clients
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
}

// collyClient is the primary client, one collector per call
type collyClient struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
}

// NewCollyClient creates the primary colly-based client
func NewCollyClient(timeout time.Duration, userAgent string) Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &collyClient{
		timeout:   timeout,
		userAgent: userAgent,
		transport: ipv4Transport(),
	}
}

func (c *collyClient) Name() string {
	return "colly"
}

func (c *collyClient) Get(ctx context.Context, target string) (string, error) {
	collector := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize),
		colly.StdlibContext(ctx),
	)
	collector.WithTransport(c.transport)
	collector.SetRequestTimeout(c.timeout)
	extensions.Referer(collector)
	collector.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	})

	var body []byte
	statusCode := 0

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := collector.Visit(target); err != nil {
		if statusCode >= 300 {
			return "", &StatusError{StatusCode: statusCode}
		}
		return "", err
	}
	collector.Wait()

	if len(body) == 0 {
		return "", ErrEmptyBody
	}
	return string(body), nil
}

// httpClient is the single-shot fallback with an explicit timeout
type httpClient struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPClient creates the net/http fallback client
func NewHTTPClient(timeout time.Duration, userAgent string) Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &httpClient{
		client: &http.Client{
			Transport: ipv4Transport(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

func (c *httpClient) Name() string {
	return "http"
}

func (c *httpClient) Get(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBody
	}
	return string(data), nil
}

// ipv4Transport keeps connections alive and dials IPv4 only; some hosts stall on v6.
func ipv4Transport() *http.Transport {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if network == "tcp" {
			network = "tcp4"
		}
		return dialer.DialContext(ctx, network, addr)
	}
	return transport
}
