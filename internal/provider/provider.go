// Package provider adapts the normalized question contract to the HTTP APIs of
// the supported LLM providers.
package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"study-helper/internal/message"
	"study-helper/internal/settings"
	"study-helper/internal/style"
)

// Adapter sends one request to one provider. Send never panics or returns an
// error: every outcome is a Result.
type Adapter interface {
	Send(ctx context.Context, req message.Request, cfg settings.Config) message.Result
}

const (
	// DefaultTimeout bounds a whole Send, fallbacks included.
	DefaultTimeout = 60 * time.Second

	// MissingKey is returned when no API key is configured.
	MissingKey = "No API key set. Add it in extension options."

	// NoResponse replaces an answer the provider did not include.
	NoResponse = "No response."

	maxErrorBody = 300
	noBody       = "(no body)"
)

// Options configures an adapter. Zero values select the provider defaults.
type Options struct {
	// BaseURLs are the candidate endpoints tried in order.
	BaseURLs   []string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func (o Options) withDefaults(baseURLs ...string) Options {
	if len(o.BaseURLs) == 0 {
		o.BaseURLs = baseURLs
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

var errInvalidJSON = errors.New("invalid JSON in response")

const systemPreamble = "You are an academic Q&A assistant. Follow user style instructions. Try providing the correct answers; try to avoid wrong answers; try to understand the question deeply."

// SystemPrompt is the domain instruction combined with the requested style.
func SystemPrompt(s style.Style) string {
	return systemPreamble + "\nDesired style: " + style.Format(s)
}

// shouldFallback reports whether a failed candidate may hand over to the next one.
func shouldFallback(status int, endpoint string) bool {
	if status == http.StatusNotFound {
		return true
	}
	return status == http.StatusBadRequest && strings.Contains(endpoint, "/v1/")
}

func httpFailure(p message.Provider, status int, body string) message.Result {
	return message.Failure("HTTP %d: %s. Try checking: 1) API key validity at %s, 2) Model availability, 3) Network connection.",
		status, truncate(body, maxErrorBody), p.Label())
}

func timeoutFailure(p message.Provider, timeout time.Duration) message.Result {
	return message.Failure("Request timeout after %s seconds. %s models that reason heavily can be slow. Try: 1) Using a faster model in settings, 2) Asking simpler questions, 3) Waiting a bit longer.",
		strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64), p.Label())
}

func transportFailure(err error) message.Result {
	return message.Failure("Request failed: %v. Check network connection and API key.", err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// truncate limits s to max characters and marks the cut with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}

func modelOrDefault(p message.Provider, cfg settings.Config) string {
	if m := strings.TrimSpace(cfg.Model); m != "" {
		return m
	}
	return settings.DefaultModel(p)
}
