package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type options struct {
	httpClient    *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
	logger        *zap.Logger
	userAgent     string
}

func defaultOptions() options {
	return options{
		httpClient:    http.DefaultClient,
		timeout:       60 * time.Second,
		healthTimeout: 5 * time.Second,
		logger:        zap.NewNop(),
		userAgent:     "prdreview",
	}
}

// Option configures the client.
type Option func(*options)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds a single review submission.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHealthTimeout bounds a single health probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(o *options) { o.healthTimeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}
