package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// errQuotaDeferred signals that the attempt hit the upstream quota limit and
// the governor has been penalized; the call re-attempts immediately and lets
// Acquire wait out the reset window. It never escapes execute.
var errQuotaDeferred = errors.New("directory: deferred for quota reset")

// callState is the position of one API call in its retry state machine:
// Attempting(n) -> Succeeded | Retrying(delay) -> Attempting(n+1) | Exhausted.
//
// Design decision: An explicit state machine replaces the usual
// loop-with-sleep-and-break control flow so every transition is a named,
// loggable event, and so the quota-retry path (which does not consume a
// transient attempt) cannot get tangled with the backoff path.
type callState int

const (
	// callAttempting means an HTTP attempt is about to be issued.
	callAttempting callState = iota

	// callRetrying means the last attempt failed transiently and the call
	// is waiting out its backoff delay.
	callRetrying

	// callSucceeded means a usable response was received.
	callSucceeded

	// callExhausted means the transient retry budget is spent.
	callExhausted
)

// maxResponseBody caps how much of a response is read. Following-list pages
// at max_results=1000 stay well under this.
const maxResponseBody = 8 * 1024 * 1024

// execute runs one API call through the retry state machine and returns the
// response body on success. Permanent per-record failures (404, 403) come
// back as a non-Found outcome with a nil error; everything the caller could
// meaningfully retry has already been retried here.
func (c *Client) execute(ctx context.Context, endpoint string, params map[string][]string) ([]byte, Outcome, error) {
	state := callAttempting
	attempt := 1
	quotaRetried := false

	var body []byte
	var delay time.Duration
	var lastErr error

	for {
		switch state {
		case callAttempting:
			var outcome Outcome
			var retryable bool
			body, outcome, retryable, lastErr = c.attempt(ctx, endpoint, params, &quotaRetried)

			switch {
			case lastErr == nil && outcome == OutcomeFound:
				state = callSucceeded
			case lastErr == nil:
				// Permanent per-record failure, never retried.
				return nil, outcome, nil
			case !retryable:
				return nil, OutcomeFound, lastErr
			case errors.Is(lastErr, errQuotaDeferred):
				// The governor holds the reset-window debt; re-attempt
				// without spending a transient retry or adding backoff.
				state = callAttempting
			case attempt >= c.maxAttempts:
				state = callExhausted
			default:
				delay = c.backoffBase<<(attempt-1) + c.jitter()
				state = callRetrying
			}

		case callRetrying:
			c.logger.Warn("transient directory failure, backing off",
				"endpoint", endpoint,
				"attempt", attempt,
				"delay", delay.Round(time.Millisecond),
				"error", lastErr,
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, OutcomeFound, err
			}
			attempt++
			state = callAttempting

		case callSucceeded:
			return body, OutcomeFound, nil

		case callExhausted:
			return nil, OutcomeFound, fmt.Errorf("%w after %d attempts: %w",
				ErrTransientExhausted, c.maxAttempts, lastErr)
		}
	}
}

// attempt issues a single HTTP request. It returns the body and outcome on
// success, or an error with retryable reporting whether the state machine
// may try again. quotaRetried tracks the one extra retry granted after an
// upstream quota-exceeded response.
func (c *Client) attempt(ctx context.Context, endpoint string, params map[string][]string, quotaRetried *bool) (_ []byte, _ Outcome, retryable bool, _ error) {
	// Quota first: a token is spent even on attempts that end up failing,
	// because the upstream meters requests, not successes.
	if err := c.governor.Acquire(ctx, 1); err != nil {
		return nil, OutcomeFound, false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	u := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, OutcomeFound, false, fmt.Errorf("directory: building request: %w", err)
	}
	q := req.URL.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient unless the parent
		// context (not the per-call timeout) is done.
		if ctx.Err() != nil {
			return nil, OutcomeFound, false, ctx.Err()
		}
		return nil, OutcomeFound, true, fmt.Errorf("directory: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, OutcomeFound, true, fmt.Errorf("directory: reading response: %w", err)
		}
		return b, OutcomeFound, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		if *quotaRetried {
			return nil, OutcomeFound, false, ErrQuotaRetryFailed
		}
		*quotaRetried = true

		reset := c.quotaResetWait(resp)
		c.logger.Warn("upstream quota exceeded",
			"endpoint", endpoint,
			"reset_in", reset,
		)
		c.governor.Penalize(reset)
		return nil, OutcomeFound, true, fmt.Errorf("%w (reset in %v)", errQuotaDeferred, reset)

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, OutcomeFound, false, ErrUnauthorized

	case resp.StatusCode == http.StatusForbidden:
		return nil, OutcomeRestricted, false, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, OutcomeNotFound, false, nil

	case resp.StatusCode >= 500:
		return nil, OutcomeFound, true, fmt.Errorf("directory: upstream returned %d", resp.StatusCode)

	default:
		return nil, OutcomeFound, false, fmt.Errorf("directory: unexpected status %d", resp.StatusCode)
	}
}

// quotaResetWait extracts the upstream's quota reset window from a 429
// response. The x-rate-limit-reset header carries a Unix timestamp; a
// missing or past value falls back to a conservative default.
func (c *Client) quotaResetWait(resp *http.Response) time.Duration {
	raw := resp.Header.Get("x-rate-limit-reset")
	if raw == "" {
		return defaultQuotaResetWait
	}

	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultQuotaResetWait
	}

	wait := time.Unix(epoch, 0).Sub(c.now())
	if wait <= 0 {
		return defaultQuotaResetWait
	}
	return wait
}

// defaultJitter pads backoff delays with up to 250ms of randomness.
func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(250 * time.Millisecond)))
}

// sleepContext suspends for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
