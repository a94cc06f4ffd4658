package linq

import (
	"errors"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMaxRetries = 0
	defaultBaseDelay  = 250 * time.Millisecond
	defaultMaxDelay   = 2 * time.Second
)

// defaultRetryableStatuses are the HTTP statuses retried when a call has
// retries left: timeouts, rate limiting and transient server failures.
var defaultRetryableStatuses = []int{408, 429, 500, 502, 503, 504}

// RetryPolicy controls how many times a failed call is re-attempted and how
// long the client waits between attempts.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the wait before the first retry. Each later retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the wait between two attempts.
	MaxDelay time.Duration

	// RetryableStatuses lists the API error statuses worth retrying.
	// Failures without an API response (timeouts, network errors) are
	// always eligible.
	RetryableStatuses []int
}

// DefaultRetryPolicy returns the policy used when no retry option is given:
// no retries, 250ms base delay, 2s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        defaultMaxRetries,
		BaseDelay:         defaultBaseDelay,
		MaxDelay:          defaultMaxDelay,
		RetryableStatuses: slices.Clone(defaultRetryableStatuses),
	}
}

// RetryOverride adjusts the client's retry policy for a single call.
// Nil fields inherit the client value.
type RetryOverride struct {
	MaxRetries        *int
	BaseDelay         *time.Duration
	MaxDelay          *time.Duration
	RetryableStatuses []int
}

// merge returns a copy of p with every field set in o applied on top.
func (p RetryPolicy) merge(o *RetryOverride) RetryPolicy {
	out := p
	out.RetryableStatuses = slices.Clone(p.RetryableStatuses)
	if o == nil {
		return out
	}
	if o.MaxRetries != nil {
		out.MaxRetries = *o.MaxRetries
	}
	if o.BaseDelay != nil {
		out.BaseDelay = *o.BaseDelay
	}
	if o.MaxDelay != nil {
		out.MaxDelay = *o.MaxDelay
	}
	if o.RetryableStatuses != nil {
		out.RetryableStatuses = slices.Clone(o.RetryableStatuses)
	}
	return out
}

// shouldRetry reports whether the failure of attempt (0-based) deserves
// another try. API errors are retried only for the listed statuses and
// invalid requests never are; every other failure is treated as transient.
func (p RetryPolicy) shouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxRetries {
		return false
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return slices.Contains(p.RetryableStatuses, apiErr.StatusCode)
	}
	return true
}

// backoffSchedule yields min(base * 2^(k-1), max) for the k-th retry.
type backoffSchedule struct {
	exp *backoff.ExponentialBackOff
	max time.Duration
}

func (p RetryPolicy) schedule() *backoffSchedule {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.MaxInterval = p.MaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.Reset()
	return &backoffSchedule{exp: exp, max: p.MaxDelay}
}

// next returns the delay before the following retry.
func (s *backoffSchedule) next() time.Duration {
	d := s.exp.NextBackOff()
	if d > s.max {
		d = s.max
	}
	if d < 0 {
		d = 0
	}
	return d
}
