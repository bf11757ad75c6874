package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/cache"
	apperrors "github.com/Dfera000/Buscador-nuevas-ediciones/internal/errors"
	"github.com/avast/retry-go/v4"
)

// statusError is a non-2xx answer.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openlibrary: unexpected status %d: %s", e.code, e.body)
}

// getJSON fetches path (relative to the base URL) and decodes the body into
// target. An empty body leaves target untouched.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	resource := path
	if len(query) > 0 {
		resource += "?" + query.Encode()
	}

	body, err := c.fetch(ctx, resource)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("openlibrary: decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, resource string) ([]byte, error) {
	if !c.useCache {
		return c.fetchRemote(ctx, resource)
	}

	body, _, err := cache.GetOrFetchWithPolicy(cache.TableOpenLibrary, resource,
		func() (json.RawMessage, error) {
			return c.fetchRemote(ctx, resource)
		},
		func(b json.RawMessage) bool { return len(b) > 0 },
	)
	return body, err
}

func (c *Client) fetchRemote(ctx context.Context, resource string) ([]byte, error) {
	attempts := c.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			b, err := c.doRequest(ctx, c.baseURL+resource)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retryWait),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("Retrying OpenLibrary request",
				"resource", resource, "attempt", n+1, "limiter", c.rateLimiter.Name(), "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitErrorWithRetry("openlibrary: rate limited", retryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
}

// retryWait honours a 429's Retry-After and otherwise backs off
// exponentially from the configured delay.
func retryWait(n uint, err error, config *retry.Config) time.Duration {
	var rlErr *apperrors.RateLimitError
	if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
		return rlErr.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func isRetryable(err error) bool {
	if apperrors.IsRateLimitError(err) {
		return true
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// connection resets, refused dials
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

func retryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
