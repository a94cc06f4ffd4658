package linq

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Version is the SDK version reported in the User-Agent header.
const Version = "0.1.0"

const (
	defaultBaseURL = "https://api.linqapp.com/api/partner"
	defaultTimeout = 30 * time.Second
	userAgent      = "linq-go/" + Version
)

// HTTPDoer sends a single HTTP request. *http.Client satisfies it, as does
// any test double or instrumented client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the Linq Partner API client. It is immutable once built and
// safe for concurrent use.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	retry      RetryPolicy

	limiter *rateLimiter
	logger  logr.Logger
	metrics *clientMetrics

	metricsRegisterer prometheus.Registerer
	tracing           bool
	tracingOptions    []otelhttp.Option

	sleep func(ctx context.Context, d time.Duration) error

	// Services used for communicating with the Linq API endpoints.
	Chats        *ChatsService
	Messages     *MessagesService
	Attachments  *AttachmentsService
	PhoneNumbers *PhoneNumbersService
	Webhooks     *WebhooksService
}

// NewClient creates a new Linq API client. WithAPIKey is required.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		timeout:    defaultTimeout,
		retry:      DefaultRetryPolicy(),
		logger:     logr.Discard(),
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.init(); err != nil {
		return nil, err
	}

	c.Chats = &ChatsService{client: c}
	c.Messages = &MessagesService{client: c}
	c.Attachments = &AttachmentsService{client: c}
	c.PhoneNumbers = &PhoneNumbersService{client: c}
	c.Webhooks = &WebhooksService{client: c}

	return c, nil
}

// init validates the options and builds the derived collaborators.
func (c *Client) init() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return &ConfigurationError{Option: "WithAPIKey", Message: "an API key is required"}
	}
	if c.httpClient == nil {
		return &ConfigurationError{Option: "WithHTTPClient", Message: "HTTP client must not be nil"}
	}
	if c.timeout < 0 {
		return &ConfigurationError{Option: "WithTimeout", Message: "timeout must not be negative"}
	}
	if c.retry.MaxRetries < 0 {
		return &ConfigurationError{Option: "WithMaxRetries", Message: "max retries must not be negative"}
	}
	if c.retry.BaseDelay < 0 || c.retry.MaxDelay < 0 {
		return &ConfigurationError{Option: "WithRetryPolicy", Message: "backoff delays must not be negative"}
	}

	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if c.baseURL == "" {
		return &ConfigurationError{Option: "WithBaseURL", Message: "base URL must not be empty"}
	}

	if c.tracing {
		hc, ok := c.httpClient.(*http.Client)
		if !ok {
			return &ConfigurationError{Option: "WithTracing", Message: fmt.Sprintf("tracing needs an *http.Client, got %T", c.httpClient)}
		}
		traced := *hc
		base := traced.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		traced.Transport = otelhttp.NewTransport(base, c.tracingOptions...)
		c.httpClient = &traced
	}

	if c.metricsRegisterer != nil {
		m, err := newClientMetrics(c.metricsRegisterer)
		if err != nil {
			return &ConfigurationError{Option: "WithMetrics", Message: "cannot register collectors", Err: err}
		}
		c.metrics = m
	}

	return nil
}

// BaseURL returns the normalized base URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// String implements fmt.Stringer and never prints the API key.
func (c *Client) String() string {
	return fmt.Sprintf("linq.Client{baseURL:%s apiKey:<REDACTED> timeout:%s maxRetries:%d}",
		c.baseURL, c.timeout, c.retry.MaxRetries)
}

// GoString implements fmt.GoStringer so %#v is redacted too.
func (c *Client) GoString() string {
	return c.String()
}
