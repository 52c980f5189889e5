package readwise

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public Readwise host
	DefaultBaseURL = "https://readwise.io"

	apiPrefix      = "/api/v2"
	defaultTimeout = 30 * time.Second
)

// Client talks to the Readwise API on behalf of a single access token.
// Its configuration is fixed at construction, so a Client can be shared
// between goroutines
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     logrus.FieldLogger
}

// Option configures a Client during construction
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a local mock server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the transport-level timeout for each request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger enables request logging at debug level
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client bound to token without contacting the API
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: quiet,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Authenticate validates token against the auth endpoint and returns a
// client bound to it. Any non-2xx answer yields an *AuthError
func Authenticate(ctx context.Context, token string, opts ...Option) (*Client, error) {
	c, err := NewClient(token, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := c.signedRequest(ctx, http.MethodGet, "/auth", nil)
	if err != nil {
		if code, ok := StatusCode(err); ok {
			return nil, &AuthError{StatusCode: code, Err: err}
		}
		return nil, err
	}
	discard(resp)

	c.logger.Debug("readwise token validated")
	return c, nil
}

// Token returns the access token the client signs requests with
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the API host the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}
