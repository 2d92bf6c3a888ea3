package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/ratelimit"
)

// DefaultHTTPTimeout bounds every live provider request.
const DefaultHTTPTimeout = 30 * time.Second

// StatusError is a non-2xx response from an upstream API.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the upstream asked us to slow down.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NewHTTPClient returns the client shared by live providers.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultHTTPTimeout}
}

// GetJSON issues a GET and decodes a JSON body into out.
// Transport failures and non-2xx responses are wrapped as ProviderUnavailable.
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.WrapError(core.ErrProviderUnavailable, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(body),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrProviderUnavailable, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Guard runs fn under the limiter's pacing for api and feeds the outcome
// back into its backoff. A 429 surfaces as RATE_LIMITED. Client errors other
// than 429 and caller cancellations do not count as failures.
func Guard(ctx context.Context, limiter *ratelimit.Limiter, api string, fn func(ctx context.Context) error) error {
	if limiter != nil {
		if err := limiter.Wait(ctx, api); err != nil {
			return err
		}
	}

	err := fn(ctx)
	if limiter == nil {
		return rateLimitedOr(err)
	}
	if err == nil {
		limiter.RecordSuccess(api)
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.RateLimited() {
			limiter.RecordFailure(api, err, se.RetryAfter)
			return core.WrapError(core.ErrRateLimited, se)
		}
		if se.StatusCode < 500 {
			return err
		}
	}
	limiter.RecordFailure(api, err, 0)
	return err
}

func rateLimitedOr(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.RateLimited() {
		return core.WrapError(core.ErrRateLimited, se)
	}
	return err
}
