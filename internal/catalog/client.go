// Package catalog provides a client for the OpenLibrary API: ISBN to work
// resolution, work editions, free-text search, and best-edition selection
// over both.
package catalog

import (
	"net/http"
	"strings"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://openlibrary.org"
	defaultUserAgent     = "Buscador-nuevas-ediciones/1.0 (+https://github.com/Dfera000/Buscador-nuevas-ediciones)"
	defaultMaxAttempts   = 2
	defaultRetryDelay    = 500 * time.Millisecond
	defaultPause         = 800 * time.Millisecond
	defaultTimeout       = 20 * time.Second
	editionsPageSize     = 50
	maxEditions          = 150
	searchResultLimit    = 10
	editionsFields       = "key,title,publish_date,publish_year,isbn_13,isbn_10,identifiers,authors,author_name"
	searchFields         = "key,title,author_name,publish_year,publish_date,isbn,first_publish_year"
	maxResponseBodyBytes = 8 << 20
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is an OpenLibrary API client.
type Client struct {
	baseURL       string
	userAgent     string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	limiterSet    bool
	pause         time.Duration
	retryAttempts int
	retryDelay    time.Duration
	useCache      bool
}

// NewClient creates a new OpenLibrary client. Unless WithRateLimiter is
// given, consecutive requests are spaced by a quarter of the record pause.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		userAgent:     defaultUserAgent,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		pause:         defaultPause,
		retryAttempts: defaultMaxAttempts,
		retryDelay:    defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(client)
	}

	if !client.limiterSet {
		client.rateLimiter = ratelimit.New("OpenLibrary", client.pause/4)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout replaces the default HTTP client with one using the given
// per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithBaseURL sets a custom base URL for the OpenLibrary API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRetryAttempts sets the number of attempts for transient failures.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(client *Client) {
		if d >= 0 {
			client.retryDelay = d
		}
	}
}

// WithPause sets the pause taken after every BestEdition lookup.
func WithPause(d time.Duration) Option {
	return func(client *Client) {
		if d >= 0 {
			client.pause = d
		}
	}
}

// WithRateLimiter sets the limiter consulted before each request. nil
// disables request spacing.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		client.rateLimiter = limiter
		client.limiterSet = true
	}
}

// WithCache routes GET requests through the sqlite response cache.
func WithCache(enabled bool) Option {
	return func(client *Client) {
		client.useCache = enabled
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		if ua != "" {
			client.userAgent = ua
		}
	}
}
