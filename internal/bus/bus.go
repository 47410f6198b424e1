// Package bus delivers events from the background coordinator to pages (tabs).
package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"study-helper/internal/message"
	"study-helper/internal/retry"
)

// ErrNoReceiver mirrors a tab without a listening content script.
var ErrNoReceiver = errors.New("no receiver for tab")

type Handler func(context.Context, message.Event) error

// Bus exposes a minimal contract to push events to a tab and to listen on one.
type Bus interface {
	SendToTab(ctx context.Context, tabID string, ev message.Event) error
	// Listen blocks until ctx is done, invoking handler for each event of tabID.
	Listen(ctx context.Context, tabID string, handler Handler) error
	Close() error
}

// ValidateTabID rejects ids that cannot be used as a single subject token.
func ValidateTabID(tabID string) error {
	if tabID == "" {
		return errors.New("tab id required")
	}
	if strings.ContainsAny(tabID, ".*> \t\r\n") {
		return fmt.Errorf("invalid tab id %q", tabID)
	}
	return nil
}

// SendWithRetry attempts delivery with retries and exponential backoff.
// ErrNoReceiver is not retried.
func SendWithRetry(ctx context.Context, b Bus, tabID string, ev message.Event, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		err := b.SendToTab(ctx, tabID, ev)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNoReceiver) || attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base, 5*time.Second)):
		}
	}
	return nil
}
