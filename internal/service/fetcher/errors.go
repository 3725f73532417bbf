package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Transient error codes worth retrying on the primary client
const (
	CodeConnAborted   = "ECONNABORTED"
	CodeTimedOut      = "ETIMEDOUT"
	CodeSocketTimeout = "ERR_SOCKET_TIMEOUT"
	CodeDNSAgain      = "EAI_AGAIN"
	CodeConnReset     = "ECONNRESET"
	CodeNotFound      = "ENOTFOUND"
	CodeConnRefused   = "ECONNREFUSED"
)

var retriableCodes = map[string]bool{
	CodeConnAborted:   true,
	CodeTimedOut:      true,
	CodeSocketTimeout: true,
	CodeDNSAgain:      true,
	CodeConnReset:     true,
	CodeNotFound:      true,
}

// FetchError is returned when every URL variant failed
type FetchError struct {
	URL  string
	Code string
	Err  error
}

func (e *FetchError) Error() string {
	code := ""
	if e.Code != "" {
		code = " [" + e.Code + "]"
	}
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("failed to fetch HTML after retries%s: %s", code, msg)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx HTTP response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ErrEmptyBody is returned when a response carried no HTML
var ErrEmptyBody = errors.New("empty response body")

// ErrorCode maps a network error to its transient-error code, or "" when unknown.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var status *StatusError
	if errors.As(err, &status) {
		return ""
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return CodeConnReset
	}
	if errors.Is(err, syscall.ECONNABORTED) {
		return CodeConnAborted
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeConnRefused
	}
	if errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, context.DeadlineExceeded) {
		return CodeTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout || dnsErr.IsTemporary {
			return CodeDNSAgain
		}
		return CodeNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeSocketTimeout
	}

	return ""
}

// IsRetriable reports whether err carries one of the transient codes
func IsRetriable(err error) bool {
	return retriableCodes[ErrorCode(err)]
}
