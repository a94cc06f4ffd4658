package linq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrMissingPathParam is wrapped by the ValidationError returned when a
	// path template names a parameter the request does not supply.
	ErrMissingPathParam = errors.New("missing required path param")

	// ErrNoContent is returned by Response.Decode when the server sent no body.
	ErrNoContent = errors.New("response has no content")
)

// APIError represents a non-2xx response returned by the Linq API.
type APIError struct {
	StatusCode int
	Message    string

	// Code is the integer application code from error.code; nil when the
	// body carries none.
	Code *int

	// TraceID is the server trace identifier from trace_id, empty when absent.
	TraceID string

	// RawBody is the parsed JSON body, or the raw text when it was not JSON.
	RawBody any

	URL string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("linq api error: %d - %s", e.StatusCode, e.Message)
	if e.Code != nil {
		msg += fmt.Sprintf(" (code %d)", *e.Code)
	}
	if e.TraceID != "" {
		msg += fmt.Sprintf(" [trace %s]", e.TraceID)
	}
	return msg
}

// RateLimitError means the call was throttled: either the API answered 429,
// in which case Err is the *APIError, or the local limiter gave up waiting.
type RateLimitError struct {
	// RetryAfter is the 429 Retry-After delay in whole seconds. Zero when the
	// header is missing or holds a date.
	RetryAfter int
	Err        error
}

func (e *RateLimitError) Error() string {
	switch {
	case e.RetryAfter > 0:
		return fmt.Sprintf("linq rate limited: server asks to wait %ds", e.RetryAfter)
	case e.Err != nil:
		return "linq rate limited: " + e.Err.Error()
	default:
		return "linq rate limited"
	}
}

// Unwrap implements errors.Unwrap.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// AuthError is a 401 or 403 answer. Err holds the classified *APIError.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("linq credentials refused (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("linq credentials refused (%d): %s: %v", e.StatusCode, e.Message, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a single attempt exceeds its deadline.
type TimeoutError struct {
	Timeout time.Duration
	URL     string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s", e.Timeout)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) match timeouts.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// TransportError is a network level failure that happened before a response
// was obtained, or while its body was being read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("linq transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports a request that cannot be sent as described.
// It is raised before any network I/O and is never retried.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("linq invalid request: %s: %s", e.Field, e.Message)
	}
	return "linq invalid request: " + e.Message
}

// Unwrap implements errors.Unwrap.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned by NewClient when the client cannot be built.
type ConfigurationError struct {
	Option  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("linq client misconfigured: %s: %s", e.Option, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// errorEnvelope is the documented error body:
// { "error": { "status", "code", "message" }, "success": false, "trace_id" }.
type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	TraceID json.RawMessage `json:"trace_id"`
}

type errorDetail struct {
	Code    json.RawMessage `json:"code"`
	Message json.RawMessage `json:"message"`
}

// parseErrorBody decodes a raw error body as JSON, falling back to the text.
// An empty body yields nil.
func parseErrorBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}

// classifyError builds an APIError from a status and raw body. Extraction is
// best effort: fields of the wrong JSON type are ignored, never reported.
func classifyError(status int, raw []byte, url string) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("linq api request failed with status %d", status),
		RawBody:    parseErrorBody(raw),
		URL:        url,
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apiErr
	}

	var detail errorDetail
	hasDetail := len(env.Error) > 0 && env.Error[0] == '{' && json.Unmarshal(env.Error, &detail) == nil

	if msg, ok := jsonString(detail.Message); hasDetail && ok {
		apiErr.Message = msg
	} else if msg, ok := jsonString(env.Message); ok {
		apiErr.Message = msg
	}

	var code float64
	if hasDetail && json.Unmarshal(detail.Code, &code) == nil && code == math.Trunc(code) && math.Abs(code) <= 1<<53 {
		n := int(code)
		apiErr.Code = &n
	}

	if traceID, ok := jsonString(env.TraceID); ok {
		apiErr.TraceID = traceID
	}

	return apiErr
}

// jsonString reports the value of raw when it holds a JSON string.
func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// mapHTTPError converts an unsuccessful HTTP response into the matching error.
// Auth and rate limit failures wrap the classified APIError so that
// errors.As(err, &*APIError) keeps working.
func mapHTTPError(resp *http.Response, body []byte) error {
	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	baseErr := classifyError(resp.StatusCode, body, url)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &AuthError{StatusCode: resp.StatusCode, Message: "api key missing or invalid", Err: baseErr}
	case http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Message: "api key not allowed here", Err: baseErr}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        baseErr,
		}
	default:
		return baseErr
	}
}

// parseRetryAfter reads a delta-seconds Retry-After value; dates are ignored.
func parseRetryAfter(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
