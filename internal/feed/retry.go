package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RetryPolicy bounds the retry loop applied to rate-limited feed calls: a
// maximum attempt count, an initial wait that doubles per attempt, and a
// ceiling on total time spent waiting.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxTotalWait time.Duration
}

// DefaultRetryPolicy is used when a Client is built without an explicit
// policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  4,
	InitialWait:  2 * time.Second,
	MaxTotalWait: 30 * time.Second,
}

// rateLimited reports whether the response indicates GitHub rate limiting.
// Secondary limits answer 429; primary limits answer 403 with a zeroed
// remaining-quota header.
func rateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden &&
		resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// doRetry runs an HTTP request as a bounded attempt/wait state machine.
// Only rate-limited responses are retried; transport failures surface
// immediately as ErrFeedUnavailable. On exhaustion the caller gets
// ErrRateLimited.
func (c *Client) doRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	policy := c.Retry
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy
	}

	var waited time.Duration
	wait := policy.InitialWait
	for attempt := 1; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient().Do(req.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
		}
		if !rateLimited(resp) {
			return resp, nil
		}
		resp.Body.Close()

		if attempt >= policy.MaxAttempts || waited+wait > policy.MaxTotalWait {
			return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, attempt)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		waited += wait
		wait *= 2
	}
}
