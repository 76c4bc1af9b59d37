// Package backend is the HTTP client for the generation backend. It opens
// the two streaming connections (turn stream and job event stream) and
// issues the auxiliary request/response calls (outline, consolidation,
// job registration, resume decisions).
//
// The client forwards generation options opaquely; it does not interpret
// them. It performs no automatic retry or backoff.
package backend

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default backend base URL.
	DefaultBaseURL = "http://localhost:8800"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 30 * time.Second
)

// Client is the generation backend API client.
type Client struct {
	// Turns provides turn-level generation operations.
	Turns *TurnService

	// Jobs provides job workflow operations.
	Jobs *JobService

	config *clientConfig
	http   *httpClient
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *slog.Logger
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithBaseURL sets a custom base URL for the backend.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. Streaming connections inherit
// its transport; set no client-level timeout if streams may outlive
// DefaultTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout for non-streaming requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger used for stream diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *clientConfig) {
		c.log = log
	}
}

// NewClient creates a new backend client.
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		// No client-level timeout: streaming reads are bounded by the
		// request context, not a wall clock.
		cfg.httpClient = &http.Client{}
	}

	c := &Client{
		config: cfg,
		http:   newHTTPClient(cfg),
	}
	c.Turns = &TurnService{client: c}
	c.Jobs = &JobService{client: c}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.baseURL
}
