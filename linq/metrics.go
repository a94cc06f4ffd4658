package linq

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "linq_client"

// clientMetrics records engine activity. Routes are labelled by path
// template ("/v3/chats/{chatId}"), never by the resolved URL, to keep
// label cardinality bounded.
type clientMetrics struct {
	requests *prometheus.CounterVec
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total number of logical API calls, by final outcome.",
			},
			[]string{"method", "route", "outcome"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "attempts_total",
				Help:      "Total number of HTTP attempts, by response status (0 when no response was received).",
			},
			[]string{"method", "route", "status"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "retries_total",
				Help:      "Total number of retries scheduled after a failed attempt.",
			},
			[]string{"method", "route"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of logical API calls including retries and backoff.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	var err error
	if m.requests, err = registerOrReuse(reg, m.requests); err != nil {
		return nil, err
	}
	if m.attempts, err = registerOrReuse(reg, m.attempts); err != nil {
		return nil, err
	}
	if m.retries, err = registerOrReuse(reg, m.retries); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or returns the collector already registered
// under the same descriptor so several clients can share one registry.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	var zero C
	return zero, err
}

func (m *clientMetrics) observeAttempt(method, route string, status int) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *clientMetrics) observeRetry(method, route string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(method, route).Inc()
}

func (m *clientMetrics) observeRequest(method, route string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, outcomeLabel(err)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// outcomeLabel buckets a call result into a small fixed label set.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var (
		apiErr     *APIError
		timeoutErr *TimeoutError
		validErr   *ValidationError
		transErr   *TransportError
	)
	switch {
	case errors.As(err, &validErr):
		return "invalid_request"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &transErr):
		return "transport_error"
	}
	return "cancelled"
}
