package linq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

// delayRecorder replaces the backoff sleep and remembers every delay.
type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *delayRecorder) sleep(ctx context.Context, delay time.Duration) error {
	d.mu.Lock()
	d.delays = append(d.delays, delay)
	d.mu.Unlock()
	return ctx.Err()
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithAPIKey("test-key"), WithBaseURL(baseURL)}, opts...)
	c, err := NewClient(all...)
	require.NoError(t, err)
	return c
}

func statusServer(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestExecute_RetriesWithExponentialBackoff(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		base, max  time.Duration
		want       []time.Duration
	}{
		{"no retries", 0, 100 * time.Millisecond, time.Second, nil},
		{"doubling", 3, 100 * time.Millisecond, time.Second, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}},
		{"capped", 4, 100 * time.Millisecond, 250 * time.Millisecond, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}},
		{"defaults", 2, defaultBaseDelay, defaultMaxDelay, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := statusServer(t, http.StatusServiceUnavailable, `{"message":"down"}`, &calls)
			rec := &delayRecorder{}
			c := newTestClient(t, ts.URL,
				WithMaxRetries(tt.maxRetries),
				WithBackoffBase(tt.base),
				WithBackoffMax(tt.max),
				withSleep(rec.sleep),
			)

			_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
			assert.Equal(t, "down", apiErr.Message)
			assert.EqualValues(t, tt.maxRetries+1, calls.Load())
			assert.Equal(t, tt.want, rec.delays)
		})
	}
}

func TestExecute_NonRetryableStatusSingleAttempt(t *testing.T) {
	for _, status := range []int{400, 401, 404, 422} {
		var calls atomic.Int32
		ts := statusServer(t, status, `{"error":{"status":400,"code":1002,"message":"bad"}}`, &calls)
		c := newTestClient(t, ts.URL, WithMaxRetries(5), withSleep((&delayRecorder{}).sleep))

		_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})
		require.Error(t, err)
		assert.EqualValues(t, 1, calls.Load(), "status %d", status)
	}
}

func TestExecute_RateLimitedResponseIsRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chat-1"}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, WithMaxRetries(1), withSleep((&delayRecorder{}).sleep))
	chat, err := c.Chats.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", chat.ID)
	assert.EqualValues(t, 2, calls.Load())
}

func TestExecute_TransportErrorsAreRetried(t *testing.T) {
	var calls int
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
		}, nil
	})

	c := newTestClient(t, "https://api.example.com", WithHTTPClient(doer), WithMaxRetries(2), withSleep((&delayRecorder{}).sleep))
	resp, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/phonenumbers"})
	require.NoError(t, err)
	assert.True(t, resp.IsJSON())
	assert.Equal(t, 3, calls)
}

func TestExecute_TransportErrorSurfacesLastFailure(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	doer := doerFunc(func(r *http.Request) (*http.Response, error) { return nil, boom })

	c := newTestClient(t, "https://api.example.com", WithHTTPClient(doer), WithMaxRetries(1), withSleep((&delayRecorder{}).sleep))
	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Equal(t, "https://api.example.com/v3/chats", transportErr.URL)
	assert.ErrorIs(t, err, boom)
}

func TestExecute_PerCallRetryOverride(t *testing.T) {
	var calls atomic.Int32
	ts := statusServer(t, http.StatusBadGateway, "bad gateway", &calls)
	rec := &delayRecorder{}
	c := newTestClient(t, ts.URL, withSleep(rec.sleep))

	base := 10 * time.Millisecond
	_, err := c.Execute(context.Background(),
		&Request{Method: http.MethodGet, Path: "/v3/chats"},
		WithRequestRetry(RetryOverride{MaxRetries: ptr(2), BaseDelay: &base}),
	)
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, rec.delays)

	// The client policy itself is untouched.
	calls.Store(0)
	_, _ = c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})
	assert.EqualValues(t, 1, calls.Load())
}

func TestExecute_RetryableStatusesOverride(t *testing.T) {
	var calls atomic.Int32
	ts := statusServer(t, http.StatusConflict, "", &calls)
	c := newTestClient(t, ts.URL, WithMaxRetries(2), WithRetryableStatuses(409), withSleep((&delayRecorder{}).sleep))

	_, err := c.Execute(context.Background(), &Request{Method: http.MethodPost, Path: "/v3/chats", Body: map[string]string{}})
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestExecute_NoContent(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusResetContent} {
		var calls atomic.Int32
		ts := statusServer(t, status, "", &calls)
		c := newTestClient(t, ts.URL)

		resp, err := c.Execute(context.Background(), &Request{Method: http.MethodPost, Path: "/v3/chats/{chatId}/typing", PathParams: map[string]any{"chatId": "c1"}})
		require.NoError(t, err)
		assert.True(t, resp.NoContent())
		assert.Nil(t, resp.Body)
		assert.ErrorIs(t, resp.Decode(&map[string]any{}), ErrNoContent)

		chat, err := do[Chat](context.Background(), c, &Request{Method: http.MethodGet, Path: "/v3/chats/x"}, nil)
		require.NoError(t, err)
		assert.Nil(t, chat)
	}
}

func TestExecute_NonJSONServerError(t *testing.T) {
	var calls atomic.Int32
	ts := statusServer(t, http.StatusInternalServerError, "<html>Bad Gateway</html>", &calls)
	c := newTestClient(t, ts.URL)

	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "linq api request failed with status 500", apiErr.Message)
	assert.Equal(t, "<html>Bad Gateway</html>", apiErr.RawBody)
	assert.Nil(t, apiErr.Code)
	assert.Empty(t, apiErr.TraceID)
}

func TestExecute_ResponseDecoding(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
		wantErr     bool
	}{
		{"json content type", "application/json; charset=utf-8", `{"a":1}`, true, false},
		{"vendor json", "application/problem+json", `{"a":1}`, true, false},
		{"text that is json", "text/plain", `{"a":1}`, true, false},
		{"plain text", "text/plain", "accepted", false, false},
		{"declared json but broken", "application/json", `{"a":`, false, true},
		{"declared json but empty", "application/json", "", false, true},
		{"empty text body", "text/plain", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()
			c := newTestClient(t, ts.URL)

			resp, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/x"})
			if tt.wantErr {
				var transportErr *TransportError
				require.ErrorAs(t, err, &transportErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantJSON, resp.IsJSON())
			assert.Equal(t, tt.body, resp.Text())
		})
	}
}

func TestExecute_EmptyJSONBodyIsRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			return
		}
		_, _ = io.WriteString(w, `{"id":"chat-1"}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, WithMaxRetries(1), withSleep((&delayRecorder{}).sleep))
	resp, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats/chat-1"})
	require.NoError(t, err)
	assert.False(t, resp.NoContent())
	assert.EqualValues(t, 2, calls.Load())
}

func TestExecute_QueryEncoding(t *testing.T) {
	var rawQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	_, err := c.Execute(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/v3/chats",
		Query:  Query{"from": "+1222", "limit": 20, "cursor": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "from=%2B1222&limit=20", rawQuery)
}

func TestExecute_Headers(t *testing.T) {
	var got http.Header
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	testCases := []struct {
		name     string
		req      *Request
		opts     []RequestOption
		expected map[string]string
		absent   []string
	}{
		{
			name: "defaults",
			req:  &Request{Method: http.MethodGet, Path: "/v3/chats"},
			expected: map[string]string{
				"Authorization": "Bearer test-key",
				"Accept":        "application/json",
				"User-Agent":    userAgent,
			},
			absent: []string{"Content-Type"},
		},
		{
			name:     "json body sets content type",
			req:      &Request{Method: http.MethodPost, Path: "/v3/chats", Body: map[string]string{"a": "b"}},
			expected: map[string]string{"Content-Type": "application/json"},
		},
		{
			name: "caller content type is kept",
			req: &Request{Method: http.MethodPost, Path: "/v3/chats", Body: "x",
				Header: http.Header{"content-type": []string{"application/vnd.linq+json"}}},
			expected: map[string]string{"Content-Type": "application/vnd.linq+json"},
		},
		{
			name: "call headers win over request headers",
			req: &Request{Method: http.MethodGet, Path: "/v3/chats",
				Header: http.Header{"Accept": []string{"text/plain"}, "X-Trace": []string{"req"}}},
			opts:     []RequestOption{WithRequestHeader("x-trace", "call")},
			expected: map[string]string{"Accept": "text/plain", "X-Trace": "call"},
		},
		{
			name:     "authorization can be overridden per call",
			req:      &Request{Method: http.MethodGet, Path: "/v3/chats"},
			opts:     []RequestOption{WithRequestHeader("authorization", "Bearer other")},
			expected: map[string]string{"Authorization": "Bearer other"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Execute(context.Background(), tc.req, tc.opts...)
			require.NoError(t, err)
			for k, v := range tc.expected {
				assert.Equal(t, v, got.Get(k), k)
				assert.Len(t, got.Values(k), 1, k)
			}
			for _, k := range tc.absent {
				assert.Empty(t, got.Get(k), k)
			}
			if tc.req.Body != nil {
				want, _ := json.Marshal(tc.req.Body)
				assert.Equal(t, want, gotBody)
			}
		})
	}
}

func TestExecute_RequestHeaderNotMutated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	h := http.Header{"X-Custom-Header": []string{"original-value"}}
	_, err := c.Execute(context.Background(), &Request{Method: http.MethodPost, Path: "/v3/chats", Header: h, Body: 1})
	require.NoError(t, err)
	assert.Equal(t, http.Header{"X-Custom-Header": []string{"original-value"}}, h)
}

func TestExecute_ValidationFailuresSendNothing(t *testing.T) {
	called := false
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unreachable")
	})
	c := newTestClient(t, "https://api.example.com", WithHTTPClient(doer), WithMaxRetries(3))

	tests := []struct {
		name  string
		req   *Request
		field string
	}{
		{"missing path param", &Request{Method: http.MethodGet, Path: "/v3/chats/{chatId}"}, "chatId"},
		{"nil path param", &Request{Method: http.MethodGet, Path: "/v3/chats/{chatId}", PathParams: map[string]any{"chatId": nil}}, "chatId"},
		{"unsupported method", &Request{Method: "TRACE", Path: "/v3/chats"}, "method"},
		{"unencodable body", &Request{Method: http.MethodPost, Path: "/v3/chats", Body: func() {}}, "body"},
		{"nil request", nil, "request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Execute(context.Background(), tt.req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.False(t, called)
		})
	}
}

func TestExecute_MissingPathParamIsSentinel(t *testing.T) {
	c := newTestClient(t, "https://api.example.com")
	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/messages/{messageId}/thread"})
	assert.ErrorIs(t, err, ErrMissingPathParam)
	assert.Contains(t, err.Error(), "messageId")
}

func TestExecute_AttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}))
	defer ts.Close()

	rec := &delayRecorder{}
	c := newTestClient(t, ts.URL, WithTimeout(20*time.Millisecond), WithMaxRetries(1), withSleep(rec.sleep))

	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 2, calls.Load(), "timeouts are retry eligible")
	assert.Len(t, rec.delays, 1)
}

func TestExecute_PerCallTimeoutOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()
	c := newTestClient(t, ts.URL)

	start := time.Now()
	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"}, WithRequestTimeout(15*time.Millisecond))

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 15*time.Millisecond, timeoutErr.Timeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecute_PerCallZeroTimeoutDisablesTimer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()
	c := newTestClient(t, ts.URL, WithTimeout(10*time.Millisecond))

	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr, "the client timeout applies by default")

	resp, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"}, WithRequestTimeout(0))
	require.NoError(t, err)
	assert.True(t, resp.NoContent())
}

func TestExecute_NegativePerCallTimeout(t *testing.T) {
	called := false
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unreachable")
	})
	c := newTestClient(t, "https://api.example.com", WithHTTPClient(doer))

	_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"}, WithRequestTimeout(-time.Second))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "timeout", validationErr.Field)
	assert.False(t, called)
}

func TestExecute_LocalRateLimitFailureIsRetried(t *testing.T) {
	var calls atomic.Int32
	ts := statusServer(t, http.StatusNoContent, "", &calls)
	rec := &delayRecorder{}
	c := newTestClient(t, ts.URL, WithRateLimit(0.001, 1), WithMaxRetries(2), withSleep(rec.sleep))

	// The first call takes the only token. The next token is ~1000s away,
	// beyond the deadline, so every later wait fails while ctx is live.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err := c.Execute(ctx, &Request{Method: http.MethodGet, Path: "/v3/chats"})
	require.NoError(t, err)

	_, err = c.Execute(ctx, &Request{Method: http.MethodGet, Path: "/v3/chats"})
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	require.NoError(t, ctx.Err())
	assert.EqualValues(t, 1, calls.Load())
	assert.Len(t, rec.delays, 2, "each failed wait goes through the retry policy")
}

func TestExecute_CallerCancellationPropagatesCause(t *testing.T) {
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		started <- struct{}{}
		<-r.Context().Done()
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, WithMaxRetries(3), withSleep((&delayRecorder{}).sleep))

	reason := errors.New("user navigated away")
	ctx, cancel := context.WithCancelCause(context.Background())
	go func() {
		<-started
		cancel(reason)
	}()

	_, err := c.Execute(ctx, &Request{Method: http.MethodGet, Path: "/v3/chats"})
	require.ErrorIs(t, err, reason)

	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
	assert.EqualValues(t, 1, calls.Load())
}

func TestExecute_AlreadyCancelledContext(t *testing.T) {
	called := false
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unreachable")
	})
	c := newTestClient(t, "https://api.example.com", WithHTTPClient(doer))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Execute(ctx, &Request{Method: http.MethodGet, Path: "/v3/chats"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExecute_CancelDuringBackoff(t *testing.T) {
	var calls atomic.Int32
	ts := statusServer(t, http.StatusServiceUnavailable, "", &calls)
	c := newTestClient(t, ts.URL, WithMaxRetries(5), WithBackoffBase(time.Hour), WithBackoffMax(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Execute(ctx, &Request{Method: http.MethodGet, Path: "/v3/chats"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, calls.Load())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecute_AuthAndRateLimitErrorsWrapAPIError(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, func(t *testing.T, err error) {
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
		}},
		{http.StatusForbidden, func(t *testing.T, err error) {
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
		}},
		{http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rlErr *RateLimitError
			require.ErrorAs(t, err, &rlErr)
			assert.Equal(t, 7, rlErr.RetryAfter)
		}},
	}

	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(tt.status)
			_, _ = io.WriteString(w, `{"error":{"status":0,"code":1002,"message":"nope"},"success":false,"trace_id":"tr-1"}`)
		}))
		c := newTestClient(t, ts.URL)

		_, err := c.Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v3/chats"})
		tt.check(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.status, apiErr.StatusCode)
		assert.Equal(t, "nope", apiErr.Message)
		assert.Equal(t, ptr(1002), apiErr.Code)
		assert.Equal(t, "tr-1", apiErr.TraceID)
		ts.Close()
	}
}

func ptr[T any](v T) *T { return &v }
