package fetcher

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when no host can be derived from the input
var ErrInvalidURL = errors.New("invalid URL")

// NormalizeURL checks that raw names an http(s) host, adding https:// when the scheme
// is missing. It does not touch the network.
func NormalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Join(ErrInvalidURL, errors.New("unsupported scheme "+u.Scheme))
	}
	host := u.Hostname()
	if host == "" || strings.ContainsAny(host, " \t\r\n") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, "..") {
		return nil, errors.Join(ErrInvalidURL, errors.New("missing or malformed host"))
	}
	return u, nil
}

// BuildURLVariants lists the scheme and www. variants of a URL to try in order.
// A full URL keeps its scheme first; a bare host prefers https over http.
func BuildURLVariants(input string) []string {
	input = strings.TrimSpace(input)

	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" || u.Host == "" {
		normalized := "https://" + input
		return dedupe([]string{
			normalized,
			"http://" + input,
			"https://www." + input,
			"http://www." + input,
		})
	}

	scheme := u.Scheme
	swapped := "https"
	if scheme == "https" {
		swapped = "http"
	}

	bare := strings.TrimPrefix(u.Host, "www.")
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return dedupe([]string{
		scheme + "://" + u.Host + path,
		swapped + "://" + u.Host + path,
		scheme + "://www." + bare + path,
		swapped + "://www." + bare + path,
		"https://" + bare + path,
		"http://" + bare + path,
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
