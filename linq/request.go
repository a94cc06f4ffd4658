package linq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// errAttemptTimeout is the cancellation cause of an attempt context whose
// timer fired, used to tell it apart from a caller cancellation.
var errAttemptTimeout = errors.New("linq: attempt timed out")

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Request describes a single API call. Path is a template relative to the
// client base URL; {name} tokens are filled from PathParams.
type Request struct {
	Method     string
	Path       string
	PathParams map[string]any
	Query      Query

	// Body is JSON-encoded when non-nil.
	Body any

	// Header entries replace the client defaults key by key.
	Header http.Header
}

// RequestOptions are the per-call settings built from RequestOption values.
// They apply to one logical call, retries included.
type RequestOptions struct {
	// Timeout bounds each attempt. Nil inherits the client timeout and zero
	// disables the timer, as WithTimeout(0) does for the client.
	Timeout *time.Duration

	// Header entries are applied after Request.Header and win on conflicts.
	Header http.Header

	// Retry overrides parts of the client retry policy.
	Retry *RetryOverride
}

// RequestOption adjusts the options of a single call.
type RequestOption func(*RequestOptions)

// WithRequestTimeout overrides the per-attempt timeout for one call. Zero
// runs the call without a timer; a negative value is rejected.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(o *RequestOptions) {
		o.Timeout = &d
	}
}

// WithRequestHeader sets a header for one call, replacing any value set by
// the client or the resource method.
func WithRequestHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Header == nil {
			o.Header = http.Header{}
		}
		o.Header.Set(key, value)
	}
}

// WithRequestRetry merges a retry override into the client policy for one call.
func WithRequestRetry(r RetryOverride) RequestOption {
	return func(o *RequestOptions) {
		o.Retry = &r
	}
}

// WithRequestMaxRetries overrides only the retry count for one call.
func WithRequestMaxRetries(n int) RequestOption {
	return func(o *RequestOptions) {
		if o.Retry == nil {
			o.Retry = &RetryOverride{}
		}
		o.Retry.MaxRetries = &n
	}
}

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyText
)

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header

	// Body holds the raw response bytes; nil when the server sent no content.
	Body []byte

	kind bodyKind
}

// NoContent reports whether the response carries no value: a 204 or 205
// status, or an empty body that was not declared as JSON.
func (r *Response) NoContent() bool {
	return r.kind == bodyNone
}

// IsJSON reports whether the body holds a JSON document.
func (r *Response) IsJSON() bool {
	return r.kind == bodyJSON
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v. It returns ErrNoContent when the
// response has no body.
func (r *Response) Decode(v any) error {
	switch r.kind {
	case bodyNone:
		return ErrNoContent
	case bodyText:
		return fmt.Errorf("linq: response body is not JSON (status %d)", r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("linq: decode response: %w", err)
	}
	return nil
}

// preparedRequest is a Request resolved against the client configuration.
// It is built once and replayed for every attempt.
type preparedRequest struct {
	method string
	route  string
	url    string
	header http.Header
	body   []byte
}

// Execute sends req and returns the decoded response. Failed attempts are
// retried according to the client retry policy merged with any per-call
// override; only the final failure is returned.
//
// When ctx is cancelled the cancellation cause is returned unchanged and no
// further attempt is made. When an attempt exceeds its timeout the error is
// a *TimeoutError.
func (c *Client) Execute(ctx context.Context, req *Request, opts ...RequestOption) (*Response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, req, opts)
	if req != nil {
		c.metrics.observeRequest(strings.ToUpper(req.Method), req.Path, err, time.Since(start))
	}
	return resp, err
}

func (c *Client) execute(ctx context.Context, req *Request, opts []RequestOption) (*Response, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Message: "request is nil"}
	}

	var ro RequestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if ro.Timeout != nil && *ro.Timeout < 0 {
		return nil, &ValidationError{Field: "timeout", Message: "timeout must not be negative"}
	}

	p, err := c.prepare(req, &ro)
	if err != nil {
		return nil, err
	}

	timeout := c.timeout
	if ro.Timeout != nil {
		timeout = *ro.Timeout
	}
	policy := c.retry.merge(ro.Retry)
	schedule := policy.schedule()

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}

		err := c.limiter.Wait(ctx)
		if err == nil {
			var resp *Response
			resp, err = c.attempt(ctx, p, timeout)
			if err == nil {
				return resp, nil
			}
		}
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}

		if !policy.shouldRetry(err, attempt) {
			if attempt > 0 {
				c.logger.V(1).Info("giving up on request", "method", p.method, "route", p.route, "attempts", attempt+1, "err", err)
			}
			return nil, err
		}

		delay := schedule.next()
		c.logger.V(1).Info("retrying request", "method", p.method, "route", p.route, "attempt", attempt+1, "delay", delay, "err", err)
		c.metrics.observeRetry(p.method, p.route)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, context.Cause(ctx)
		}
	}
}

// prepare resolves everything that can fail without touching the network.
// Errors here are ValidationErrors and are never retried.
func (c *Client) prepare(req *Request, ro *RequestOptions) (*preparedRequest, error) {
	method := strings.ToUpper(req.Method)
	if !allowedMethods[method] {
		return nil, &ValidationError{Field: "method", Message: fmt.Sprintf("unsupported HTTP method %q", req.Method)}
	}

	path, err := interpolatePath(req.Path, req.PathParams)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + path
	if q := req.Query.encode(); q != "" {
		target += "?" + q
	}
	if _, err := url.Parse(target); err != nil {
		return nil, &ValidationError{Field: "url", Message: err.Error(), Err: err}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("Accept", "application/json")
	header.Set("User-Agent", c.userAgent)
	mergeHeader(header, req.Header)
	mergeHeader(header, ro.Header)

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, &ValidationError{Field: "body", Message: "cannot encode request body as JSON", Err: err}
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	}

	return &preparedRequest{
		method: method,
		route:  req.Path,
		url:    target,
		header: header,
		body:   body,
	}, nil
}

// mergeHeader copies src into dst, replacing each key wholesale.
func mergeHeader(dst, src http.Header) {
	for key, values := range src {
		key = http.CanonicalHeaderKey(key)
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// attempt performs a single HTTP exchange under its own timeout.
func (c *Client) attempt(ctx context.Context, p *preparedRequest, timeout time.Duration) (*Response, error) {
	var (
		attemptCtx context.Context
		cancel     context.CancelFunc
	)
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeoutCause(ctx, timeout, errAttemptTimeout)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, p.method, p.url, body)
	if err != nil {
		return nil, &ValidationError{Field: "url", Message: err.Error(), Err: err}
	}
	httpReq.Header = p.header.Clone()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeAttempt(p.method, p.route, 0)
		return nil, abortError(ctx, attemptCtx, timeout, p, err)
	}
	defer func() { _ = httpResp.Body.Close() }()
	if httpResp.Request == nil {
		httpResp.Request = httpReq
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.observeAttempt(p.method, p.route, 0)
		return nil, abortError(ctx, attemptCtx, timeout, p, err)
	}
	c.metrics.observeAttempt(p.method, p.route, httpResp.StatusCode)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, mapHTTPError(httpResp, raw)
	}
	return decodeResponse(httpResp, raw, p)
}

// abortError picks the error for an attempt that produced no response.
// A cancelled caller context wins over the attempt timer.
func abortError(ctx, attemptCtx context.Context, timeout time.Duration, p *preparedRequest, err error) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	if errors.Is(context.Cause(attemptCtx), errAttemptTimeout) {
		return &TimeoutError{Timeout: timeout, URL: p.url}
	}
	return &TransportError{Method: p.method, URL: p.url, Err: err}
}

// decodeResponse classifies a 2xx body. A body declared as JSON must parse,
// so an empty one is an error; any other body is kept as text and promoted to JSON when it happens to be
// valid JSON.
func decodeResponse(httpResp *http.Response, raw []byte, p *preparedRequest) (*Response, error) {
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
	}

	if httpResp.StatusCode == http.StatusNoContent || httpResp.StatusCode == http.StatusResetContent {
		return resp, nil
	}

	declaredJSON := isJSONContentType(httpResp.Header.Get("Content-Type"))
	if len(raw) == 0 && !declaredJSON {
		return resp, nil
	}
	resp.Body = raw

	if declaredJSON {
		if err := json.Unmarshal(raw, new(json.RawMessage)); err != nil {
			return nil, &TransportError{Method: p.method, URL: p.url, Err: fmt.Errorf("invalid JSON response body: %w", err)}
		}
		resp.kind = bodyJSON
		return resp, nil
	}

	resp.kind = bodyText
	if json.Valid(raw) {
		resp.kind = bodyJSON
	}
	return resp, nil
}

func isJSONContentType(v string) bool {
	if v == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.Contains(strings.ToLower(v), "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// do executes req and decodes the JSON response into a new T. A response
// without content yields (nil, nil).
func do[T any](ctx context.Context, c *Client, req *Request, opts []RequestOption) (*T, error) {
	resp, err := c.Execute(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	if resp.NoContent() {
		return nil, nil
	}
	out := new(T)
	if err := resp.Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
