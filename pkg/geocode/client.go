// Package geocode is a client for the Nominatim search API together with the
// acceptance policy that decides whether a result set identifies one place.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/worldnewsmap/newsgeo/internal/resilience"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Searcher issues a single geocoding query and classifies the result.
type Searcher interface {
	Search(ctx context.Context, q Query) Outcome
}

// Observer is notified of every completed provider request.
type Observer interface {
	ProviderRequest(strategy, outcome string)
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the identifying User-Agent. Nominatim's usage policy
// requires a contact address; it is appended in parentheses when set.
func WithUserAgent(agent, contact string) Option {
	return func(c *Client) {
		if contact != "" {
			agent += " (" + contact + ")"
		}
		c.userAgent = agent
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetry sets the retry policy for a single query. The default makes one
// attempt.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithObserver reports request outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client queries Nominatim's /search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retry      resilience.RetryConfig
	observer   Observer
}

// NewClient creates a client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  "WorldNewsMapBot/1.0",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      resilience.NoRetry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
