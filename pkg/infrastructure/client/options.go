package client

import (
	"net/http"
	"time"
)

type options struct {
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
	httpClient   *http.Client
}

func defaultOptions() options {
	return options{
		timeout:      5 * time.Second,
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		httpClient:   &http.Client{},
	}
}

// Option configures a service client.
type Option func(*options)

// WithTimeout bounds every call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetry configures retries of idempotent reads. Mutations are never retried.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		o.initialDelay = initialDelay
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}
