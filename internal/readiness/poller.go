package readiness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bookit-dev/bookit/internal/metrics"
)

// Defaults applied by Check.normalized.
const (
	DefaultInterval       = time.Second
	DefaultAttemptTimeout = 2 * time.Second
)

// Check describes one readiness poll: probe URL at Interval until any probe
// completes, failing once Timeout of wall-clock time has elapsed.
type Check struct {
	URL            string
	Interval       time.Duration
	AttemptTimeout time.Duration
	Timeout        time.Duration
}

func (c Check) normalized() Check {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	return c
}

// TimeoutError reports that no probe succeeded within the configured deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no successful readiness probe within %s", e.Timeout)
}

// WaitUntilReady probes c.URL until a probe completes at the transport level.
// Any completed HTTP response counts as ready; the body and status are not
// inspected. The overall deadline is enforced by a timer rather than by
// counting attempts, so a slow final probe cannot extend the wait. Context
// cancellation abandons the poll promptly with ctx.Err().
func WaitUntilReady(ctx context.Context, c Check) error {
	c = c.normalized()
	client := &http.Client{Timeout: c.AttemptTimeout}

	overall := time.NewTimer(c.Timeout)
	defer overall.Stop()
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	if probe(ctx, client, c.URL) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-overall.C:
			return &TimeoutError{Timeout: c.Timeout}
		case <-ticker.C:
			if probe(ctx, client, c.URL) {
				return nil
			}
		}
	}
}

func probe(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.IncProbe(false)
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		metrics.IncProbe(false)
		return false
	}
	_ = resp.Body.Close()
	metrics.IncProbe(true)
	return true
}
