package linq

import (
	"context"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithAPIKey sets the partner API key sent as a Bearer token on every request.
func WithAPIKey(key string) Option {
	return func(client *Client) {
		client.apiKey = key
	}
}

// WithHTTPClient sets the transport used for requests.
// If this is not provided, a default http.Client is used.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(client *Client) {
		client.httpClient = doer
	}
}

// WithBaseURL overrides the default API base URL. A trailing slash is removed.
// This is primarily useful for testing or connecting to a proxy.
func WithBaseURL(url string) Option {
	return func(client *Client) {
		client.baseURL = url
	}
}

// WithTimeout sets the per-attempt timeout. By default, this is 30 seconds.
// Zero disables the timer and leaves deadlines to the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.timeout = d
	}
}

// WithMaxRetries sets how many times a failed call is retried.
// By default, calls are not retried.
func WithMaxRetries(retries int) Option {
	return func(client *Client) {
		client.retry.MaxRetries = retries
	}
}

// WithBackoffBase sets the delay before the first retry.
// By default, this is 250 milliseconds.
func WithBackoffBase(base time.Duration) Option {
	return func(client *Client) {
		client.retry.BaseDelay = base
	}
}

// WithBackoffMax caps the delay between retries. By default, this is 2 seconds.
func WithBackoffMax(max time.Duration) Option {
	return func(client *Client) {
		client.retry.MaxDelay = max
	}
}

// WithRetryableStatuses replaces the set of API error statuses that are retried.
func WithRetryableStatuses(statuses ...int) Option {
	return func(client *Client) {
		client.retry.RetryableStatuses = slices.Clone(statuses)
	}
}

// WithRetryPolicy replaces the whole retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(client *Client) {
		p.RetryableStatuses = slices.Clone(p.RetryableStatuses)
		client.retry = p
	}
}

// WithUserAgent replaces the User-Agent header value.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// WithLogger sets the logger used for retry diagnostics (verbosity 1).
func WithLogger(logger logr.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithRateLimit enables client-side rate limiting at perSecond requests per
// second with the given burst. Rate limiting is off by default.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(client *Client) {
		client.limiter = newRateLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTracing wraps the HTTP transport with OpenTelemetry instrumentation.
// It requires the transport to be an *http.Client.
func WithTracing(opts ...otelhttp.Option) Option {
	return func(client *Client) {
		client.tracing = true
		client.tracingOptions = opts
	}
}

// WithMetrics registers request, attempt and retry metrics with reg.
// Clients sharing a registry share the collectors.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(client *Client) {
		client.metricsRegisterer = reg
	}
}

// withSleep replaces the backoff sleeper; tests use it to record delays.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(client *Client) {
		client.sleep = fn
	}
}
