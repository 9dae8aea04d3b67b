// Package llm talks to external text-generation services. A Client owns the
// credential pool and the retry policy; a Backend performs a single request
// against one provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrGenerationUnavailable is returned when a prompt could not be completed
// after the retry budget was spent, or the provider rejected it outright.
// Callers treat it as recoverable: the workflow stays in its prior state.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// Backend sends one prompt with one credential.
type Backend interface {
	Name() string
	Complete(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// RateLimitError signals the provider throttled the request.
type RateLimitError struct {
	RetryAfter time.Duration // zero when the provider gave no hint
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// TransientError signals a failure worth retrying: network, timeout or 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// classifyStatus maps an HTTP status from a provider error onto the retry taxonomy.
func classifyStatus(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter, Err: err}
	case status == http.StatusRequestTimeout, status >= 500:
		return &TransientError{Err: err}
	default:
		return err
	}
}

// classifyTransport marks network-level failures as transient.
func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.As(err, &netErr):
		return &TransientError{Err: err}
	}
	return err
}

// parseRetryAfter reads a Retry-After header value in seconds or HTTP-date form.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
